package bridge

import (
	"context"

	"github.com/talkbridgehq/talkbridge/internal/callback"
	"github.com/talkbridgehq/talkbridge/internal/engine"
	"github.com/talkbridgehq/talkbridge/internal/platform"
	"github.com/talkbridgehq/talkbridge/internal/render"
)

// Request is one inbound utterance, normalized across platform shapes.
// Lives only for the duration of one orchestration run.
type Request struct {
	Platform       platform.Variant
	Utterance      string
	ConversationID string
	UserID         string
	UserType       string
	DisplayName    string
	Username       string
	CallbackURL    string
}

// Gateway is the upstream engine surface the orchestrator dispatches to.
// Implementations return tagged answers, never errors.
type Gateway interface {
	Ask(ctx context.Context, sessionKey, speakerName, utterance string) engine.Answer
	AskForImage(ctx context.Context, userID, sessionID, utterance string) engine.Answer
}

// Deliverer is the out-of-band delivery surface for skill-platform
// responses.
type Deliverer interface {
	Deliver(ctx context.Context, callbackURL string, envelope render.Envelope) callback.Outcome
}

// Replier is the mention-path inline delivery surface, implemented by
// the chat-client session adapters.
type Replier interface {
	// Typing shows the transient processing indicator. Best effort.
	Typing(ctx context.Context)
	// Reply sends text into the originating conversation.
	Reply(ctx context.Context, text string) error
}
