// Package bridge is the per-request state machine tying validation,
// the engine gateway, rendering, and delivery together:
//
//	Received → Validated → (AckSent) → Dispatched → Rendered → Delivered | Failed
//
// Failed is reachable only before dispatch, from malformed input. Once
// the caller has been acknowledged, the only remaining contract is one
// best-effort delivery of some envelope: every downstream failure is
// absorbed into the rendered fallback.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/talkbridgehq/talkbridge/internal/callback"
	"github.com/talkbridgehq/talkbridge/internal/engine"
	"github.com/talkbridgehq/talkbridge/internal/identity"
	"github.com/talkbridgehq/talkbridge/internal/platform"
	"github.com/talkbridgehq/talkbridge/internal/render"
)

// ErrEmptyUtterance rejects a request before any upstream call is made.
var ErrEmptyUtterance = errors.New("utterance is required")

// Orchestrator runs the bridge state machine. Stateless across requests;
// the shared gateway handle is its only long-lived collaborator.
type Orchestrator struct {
	gateway   Gateway
	deliverer Deliverer
	logger    *slog.Logger
}

func New(log *slog.Logger, gateway Gateway, deliverer Deliverer) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		gateway:   gateway,
		deliverer: deliverer,
		logger:    log.With(slog.String("component", "bridge")),
	}
}

// Validate is the Received → Validated transition. It must run before
// the acknowledgment is sent; rejected requests never reach the engine.
func (o *Orchestrator) Validate(req Request) error {
	if strings.TrimSpace(req.Utterance) == "" {
		return ErrEmptyUtterance
	}
	return nil
}

// DispatchAsync runs the post-acknowledgment states on a detached
// goroutine with its own error boundary. The caller must have already
// written the acknowledgment and must pass a context decoupled from the
// request lifecycle (context.WithoutCancel); completion is never awaited.
func (o *Orchestrator) DispatchAsync(ctx context.Context, desc platform.Descriptor, req Request) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("background dispatch panicked",
					slog.String("platform", desc.Variant.String()),
					slog.Any("panic", r),
				)
			}
		}()
		o.run(ctx, desc, req)
	}()
}

// run executes Dispatched → Rendered → Delivered. Rendering never
// branches into a second failure state; Delivered is terminal regardless
// of the callback outcome.
func (o *Orchestrator) run(ctx context.Context, desc platform.Descriptor, req Request) {
	sess := identity.Resolve(identity.Source{
		Platform:       req.Platform,
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
		UserType:       req.UserType,
		DisplayName:    req.DisplayName,
		Username:       req.Username,
	})

	var answer engine.Answer
	if desc.WantsImage {
		answer = o.gateway.AskForImage(ctx, sess.UserID, sess.Key, req.Utterance)
	} else {
		answer = o.gateway.Ask(ctx, sess.Key, sess.DisplayName, req.Utterance)
	}

	envelope := render.Render(answer, req.Utterance)
	outcome := o.deliverer.Deliver(ctx, req.CallbackURL, envelope)

	o.logger.Info("request delivered",
		slog.String("platform", desc.Variant.String()),
		slog.String("session", sess.Key),
		slog.String("answer", string(answer.Kind)),
		slog.String("outcome", string(outcome)),
	)
}

// HandleMention is the mention-bot path: no acknowledgment envelope, a
// typing indicator while the engine call runs, then one inline reply.
// Post-validation failures are absorbed into the fallback text; the
// reply outcome is logged, not re-raised.
func (o *Orchestrator) HandleMention(ctx context.Context, rep Replier, req Request) error {
	if err := o.Validate(req); err != nil {
		return err
	}
	rep.Typing(ctx)

	sess := identity.Resolve(identity.Source{
		Platform:       platform.Mention,
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
		UserType:       req.UserType,
		DisplayName:    req.DisplayName,
		Username:       req.Username,
	})

	answer := o.gateway.Ask(ctx, sess.Key, sess.DisplayName, req.Utterance)
	text := render.PlainText(answer)

	outcome := callback.DeliveredInline
	if err := rep.Reply(ctx, text); err != nil {
		outcome = callback.CallbackFailed
		o.logger.Warn("mention reply failed",
			slog.String("session", sess.Key),
			slog.Any("error", err),
		)
	}
	o.logger.Info("mention handled",
		slog.String("session", sess.Key),
		slog.String("answer", string(answer.Kind)),
		slog.String("outcome", string(outcome)),
	)
	return nil
}
