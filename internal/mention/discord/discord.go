// Package discord is the gateway-event Discord session for the mention
// path.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/talkbridgehq/talkbridge/internal/bridge"
	"github.com/talkbridgehq/talkbridge/internal/mention"
	"github.com/talkbridgehq/talkbridge/internal/platform"
)

// Listener opens a Discord gateway session and forwards addressed
// messages to the mention handler. Guild messages are handled only when
// they mention the bot; direct messages are always addressed.
type Listener struct {
	logger  *slog.Logger
	token   string
	session *discordgo.Session
	remove  func()
}

func NewListener(log *slog.Logger, botToken string) *Listener {
	if log == nil {
		log = slog.Default()
	}
	return &Listener{
		logger: log.With(slog.String("component", "discord")),
		token:  botToken,
	}
}

func (l *Listener) Start(ctx context.Context, handler mention.Handler) error {
	session, err := discordgo.New("Bot " + l.token)
	if err != nil {
		l.logger.Error("create session failed", slog.Any("error", err))
		return err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	l.remove = session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if ctx.Err() != nil {
			return
		}
		if m.Author == nil || m.Author.Bot {
			return
		}
		if m.GuildID != "" && !isBotMentioned(m.Message, s.State.User.ID) {
			return
		}

		text := stripUserMention(m.Content, s.State.User.ID)
		req := bridge.Request{
			Platform:       platform.Mention,
			Utterance:      text,
			ConversationID: m.ChannelID,
			UserID:         m.Author.ID,
			Username:       m.Author.Username,
			DisplayName:    m.Author.GlobalName,
		}

		rep := &replier{
			session:   s,
			channelID: m.ChannelID,
			replyTo:   m.ID,
		}

		go func() {
			if err := handler.HandleMention(ctx, rep, req); err != nil {
				l.logger.Warn("mention skipped",
					slog.String("channel_id", m.ChannelID),
					slog.Any("error", err),
				)
			}
		}()
	})

	if err := session.Open(); err != nil {
		l.remove()
		return fmt.Errorf("discord open connection: %w", err)
	}
	l.session = session
	l.logger.Info("start", slog.String("bot", session.State.User.Username))
	return nil
}

func (l *Listener) Stop(_ context.Context) error {
	l.logger.Info("stop")
	if l.remove != nil {
		l.remove()
	}
	if l.session != nil {
		return l.session.Close()
	}
	return nil
}

// replier delivers into one Discord channel, threading the reply onto
// the triggering message.
type replier struct {
	session   *discordgo.Session
	channelID string
	replyTo   string
}

func (r *replier) Typing(_ context.Context) {
	_ = r.session.ChannelTyping(r.channelID)
}

func (r *replier) Reply(_ context.Context, text string) error {
	_, err := r.session.ChannelMessageSendReply(r.channelID, text, &discordgo.MessageReference{
		ChannelID: r.channelID,
		MessageID: r.replyTo,
	})
	return err
}

func isBotMentioned(msg *discordgo.Message, botID string) bool {
	if msg == nil {
		return false
	}
	for _, mentioned := range msg.Mentions {
		if mentioned != nil && mentioned.ID == botID {
			return true
		}
	}
	return false
}

// stripUserMention removes the <@id> and <@!id> mention markup Discord
// embeds in message content.
func stripUserMention(text, botID string) string {
	text = strings.ReplaceAll(text, "<@"+botID+">", "")
	text = strings.ReplaceAll(text, "<@!"+botID+">", "")
	return strings.TrimSpace(text)
}
