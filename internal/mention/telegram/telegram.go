// Package telegram is the long-polling Telegram session for the
// mention path.
package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/talkbridgehq/talkbridge/internal/bridge"
	"github.com/talkbridgehq/talkbridge/internal/mention"
	"github.com/talkbridgehq/talkbridge/internal/platform"
)

// Listener long-polls the Telegram bot API and forwards addressed
// messages to the mention handler. Group messages are handled only when
// they mention the bot; direct chats are always addressed.
type Listener struct {
	logger  *slog.Logger
	token   string
	bot     *tgbotapi.BotAPI
	updates tgbotapi.UpdatesChannel
	cancel  context.CancelFunc
}

func NewListener(log *slog.Logger, botToken string) *Listener {
	if log == nil {
		log = slog.Default()
	}
	return &Listener{
		logger: log.With(slog.String("component", "telegram")),
		token:  botToken,
	}
}

func (l *Listener) Start(ctx context.Context, handler mention.Handler) error {
	bot, err := tgbotapi.NewBotAPI(l.token)
	if err != nil {
		l.logger.Error("create bot failed", slog.Any("error", err))
		return err
	}
	l.bot = bot

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	l.updates = bot.GetUpdatesChan(updateConfig)

	loopCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.logger.Info("start", slog.String("bot", bot.Self.UserName))

	go func() {
		for {
			select {
			case <-loopCtx.Done():
				return
			case update, ok := <-l.updates:
				if !ok {
					l.logger.Info("updates channel closed")
					return
				}
				l.handleUpdate(loopCtx, handler, update)
			}
		}
	}()

	return nil
}

func (l *Listener) handleUpdate(ctx context.Context, handler mention.Handler, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	if msg.From != nil && msg.From.IsBot {
		return
	}
	if !msg.Chat.IsPrivate() && !isBotMentioned(msg, l.bot.Self.UserName) {
		return
	}

	text := mention.StripMention(msg.Text, l.bot.Self.UserName)
	req := bridge.Request{
		Platform:       platform.Mention,
		Utterance:      text,
		ConversationID: strconv.FormatInt(msg.Chat.ID, 10),
	}
	if msg.From != nil {
		req.UserID = strconv.FormatInt(msg.From.ID, 10)
		req.Username = msg.From.UserName
		req.DisplayName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	}

	rep := &replier{
		bot:     l.bot,
		chatID:  msg.Chat.ID,
		replyTo: msg.MessageID,
	}

	go func() {
		if err := handler.HandleMention(ctx, rep, req); err != nil {
			l.logger.Warn("mention skipped",
				slog.Int64("chat_id", msg.Chat.ID),
				slog.Any("error", err),
			)
		}
	}()
}

func (l *Listener) Stop(_ context.Context) error {
	l.logger.Info("stop")
	if l.bot != nil {
		l.bot.StopReceivingUpdates()
	}
	if l.cancel != nil {
		l.cancel()
	}
	// Drain remaining updates so the library's polling goroutine can
	// finish writing and exit. Without this, the in-flight long-poll
	// HTTP request keeps the old getUpdates session alive, causing
	// "Conflict: terminated by other getUpdates request" on restart.
	if l.updates != nil {
		for range l.updates {
		}
	}
	return nil
}

// replier delivers into one Telegram conversation, threading the reply
// onto the triggering message.
type replier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	replyTo int
}

func (r *replier) Typing(_ context.Context) {
	action := tgbotapi.NewChatAction(r.chatID, tgbotapi.ChatTyping)
	_, _ = r.bot.Request(action)
}

func (r *replier) Reply(_ context.Context, text string) error {
	message := tgbotapi.NewMessage(r.chatID, text)
	message.ReplyToMessageID = r.replyTo
	_, err := r.bot.Send(message)
	return err
}

func isBotMentioned(msg *tgbotapi.Message, botUsername string) bool {
	if msg == nil {
		return false
	}
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(botUsername), "@"))
	if normalized != "" {
		if strings.Contains(strings.ToLower(msg.Text), "@"+normalized) {
			return true
		}
	}
	for _, entity := range msg.Entities {
		if entity.Type == "text_mention" && entity.User != nil && entity.User.IsBot {
			return true
		}
	}
	return false
}
