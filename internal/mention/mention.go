// Package mention connects chat-client sessions to the bridge. A
// listener watches one chat platform for messages addressed to the bot
// and hands each one to the handler together with a replier bound to
// the originating conversation.
package mention

import (
	"context"
	"strings"

	"github.com/talkbridgehq/talkbridge/internal/bridge"
)

// Handler processes one addressed message. Implemented by the bridge
// orchestrator.
type Handler interface {
	HandleMention(ctx context.Context, rep bridge.Replier, req bridge.Request) error
}

// Listener is one chat-client session. Start begins receiving events
// and returns once the session is established; Stop tears it down.
type Listener interface {
	Start(ctx context.Context, handler Handler) error
	Stop(ctx context.Context) error
}

// StripMention removes a leading or embedded @username address from the
// message text so the engine sees only the utterance.
func StripMention(text, botUsername string) string {
	botUsername = strings.TrimPrefix(strings.TrimSpace(botUsername), "@")
	if botUsername == "" {
		return strings.TrimSpace(text)
	}
	cleaned := strings.ReplaceAll(text, "@"+botUsername, "")
	return strings.TrimSpace(cleaned)
}
