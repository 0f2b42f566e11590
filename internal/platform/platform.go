package platform

// Variant identifies one inbound platform protocol shape.
type Variant string

const (
	// Mention is the event-driven chat client path: no ack envelope, a
	// typing indicator while processing, inline reply into the
	// conversation.
	Mention Variant = "mention"
	// SkillChannel is the skill-platform text shape: plain ack, callback
	// delivery of a text envelope.
	SkillChannel Variant = "channel"
	// SkillGroup is the skill-platform group/image shape: ack carries a
	// wait message, callback delivery may include an image block.
	SkillGroup Variant = "group"
)

func (v Variant) String() string { return string(v) }

// EnvelopeVersion is the fixed version tag of every skill-platform
// response envelope.
const EnvelopeVersion = "2.0"

// User-visible strings, localized for the platform's audience.
const (
	// FallbackText is the terminal message for every absorbed failure.
	FallbackText = "지금은 요청을 처리할 수 없어요. 잠시 후 다시 시도해 주세요."
	// WaitText is sent with the group-shape acknowledgment while the
	// engine call runs in the background.
	WaitText = "답변을 준비하고 있어요. 잠시만 기다려 주세요!"
)

// Descriptor parameterizes the orchestrator for one skill-platform
// variant. The source system grew near-identical handlers per variant;
// here each variant is one table row.
type Descriptor struct {
	Variant Variant
	// MessagePath is the inbound webhook route.
	MessagePath string
	// AckText, when non-empty, is included as data.text on the immediate
	// acknowledgment.
	AckText string
	// WantsImage routes the utterance to the engine's image endpoint
	// instead of the text endpoint.
	WantsImage bool
}

// Descriptors lists the skill-platform variants served by the bridge.
func Descriptors() []Descriptor {
	return []Descriptor{
		{
			Variant:     SkillChannel,
			MessagePath: "/channel/message",
		},
		{
			Variant:     SkillGroup,
			MessagePath: "/group/message",
			AckText:     WaitText,
			WantsImage:  true,
		},
	}
}
