package engine

// AnswerKind tags the result of one engine call.
type AnswerKind string

const (
	// AnswerText carries the engine's reply messages.
	AnswerText AnswerKind = "text"
	// AnswerImage carries a generated image reference and an optional
	// companion description.
	AnswerImage AnswerKind = "image"
	// AnswerFailure means the engine responded but reported failure
	// (success=false or an empty message list). ErrMessage may carry a
	// short diagnostic from the engine.
	AnswerFailure AnswerKind = "failure"
	// AnswerTransportFailure means the call itself did not complete
	// (network error, timeout, non-2xx status, unparseable body). The
	// cause is logged by the client, never surfaced to users.
	AnswerTransportFailure AnswerKind = "transport_failure"
)

// Answer is the single-use result of one engine call. Produced once per
// request and consumed once by rendering.
type Answer struct {
	Kind        AnswerKind
	Messages    []string
	ImageURL    string
	Description string
	ErrMessage  string
}

// Failed reports whether the answer represents any failure shape.
func (a Answer) Failed() bool {
	return a.Kind == AnswerFailure || a.Kind == AnswerTransportFailure
}
