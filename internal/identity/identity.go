package identity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/talkbridgehq/talkbridge/internal/platform"
)

const (
	defaultUserType     = "user"
	defaultConversation = "direct"
)

// Source carries the identity-bearing fields of one inbound request.
// Any field may be empty; resolution fills gaps with placeholders.
type Source struct {
	Platform       platform.Variant
	ConversationID string
	UserID         string
	UserType       string
	DisplayName    string
	Username       string
}

// Session binds one request to a logical conversation for the engine.
type Session struct {
	// Key is the engine session id. Stable for the same
	// conversation+user within a process run.
	Key string
	// UserID is the inbound user id, or the generated fallback.
	UserID string
	// DisplayName is the speaker name forwarded to the engine.
	DisplayName string
}

// Resolve derives the session identity for an inbound request. Total:
// missing fields become generated placeholders so the caller can always
// proceed to the gateway. When the payload carries no user id a fresh
// random id is generated per request, so such requests get no identity
// continuity.
func Resolve(src Source) Session {
	userID := strings.TrimSpace(src.UserID)
	if userID == "" {
		userID = "anon-" + uuid.NewString()
	}
	userType := strings.TrimSpace(src.UserType)
	if userType == "" {
		userType = defaultUserType
	}
	conversation := strings.TrimSpace(src.ConversationID)
	if conversation == "" {
		conversation = defaultConversation
	}
	tag := strings.TrimSpace(src.Platform.String())
	if tag == "" {
		tag = platform.SkillChannel.String()
	}

	return Session{
		Key:         tag + ":" + conversation + ":" + userID + ":" + userType,
		UserID:      userID,
		DisplayName: resolveDisplayName(src, userID),
	}
}

// resolveDisplayName falls back member display name, account username,
// then a placeholder derived from the user id.
func resolveDisplayName(src Source, userID string) string {
	if name := strings.TrimSpace(src.DisplayName); name != "" {
		return name
	}
	if name := strings.TrimSpace(src.Username); name != "" {
		return name
	}
	return "guest-" + shortID(userID)
}

func shortID(id string) string {
	id = strings.TrimPrefix(id, "anon-")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
