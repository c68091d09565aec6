package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wientjes/nanoclaw/history"
	"github.com/wientjes/nanoclaw/internal/worker"
	"github.com/wientjes/nanoclaw/queue"
	"github.com/wientjes/nanoclaw/reminders"
	"github.com/wientjes/nanoclaw/session"
	"github.com/wientjes/nanoclaw/turn"
)

const typingInterval = 4 * time.Second

type RuntimeConfig struct {
	// ModelName is shown by /status.
	ModelName string
	// MaxConcurrent bounds how many chats are processed at once.
	MaxConcurrent int
	// PollTimeout is the getUpdates long-poll duration.
	PollTimeout time.Duration
	// QueueInbound writes non-command messages to the inbox for a separate
	// `process` run instead of answering them in the loop.
	QueueInbound bool
	// Reminders is the schedule delivered to the owner chat; empty disables
	// reminder delivery.
	Reminders []reminders.Reminder
}

// Runtime owns the long-poll loop: it fans inbound updates out to per-chat
// workers, answers slash commands directly, and routes everything else
// through the turn pipeline.
type Runtime struct {
	api      *API
	pipeline *turn.Pipeline
	session  *session.Store
	history  *history.Store
	archive  *queue.Queue
	log      *slog.Logger
	cfg      RuntimeConfig

	startedAt time.Time
}

func NewRuntime(api *API, pipeline *turn.Pipeline, sess *session.Store, hist *history.Store, archive *queue.Queue, cfg RuntimeConfig, log *slog.Logger) *Runtime {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	return &Runtime{
		api:       api,
		pipeline:  pipeline,
		session:   sess,
		history:   hist,
		archive:   archive,
		log:       log,
		cfg:       cfg,
		startedAt: time.Now(),
	}
}

// Run long-polls until ctx is cancelled. Reminder delivery is scheduled here
// so it stops with the loop.
func (r *Runtime) Run(ctx context.Context) error {
	me, err := r.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	r.log.Info("telegram_connected", "username", me.Username, "bot_id", me.ID)

	if len(r.cfg.Reminders) > 0 {
		sched, err := reminders.NewScheduler(r.cfg.Reminders, r.sendToOwner, r.log)
		if err != nil {
			return fmt.Errorf("reminder schedule: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// One dispatcher lane per chat keeps turns in a conversation strictly
	// ordered.
	workers := worker.NewDispatcher(ctx, r.cfg.MaxConcurrent, func(ctx context.Context, _ int64, u Update) {
		r.handle(ctx, u)
	})

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, next, err := r.api.GetUpdates(ctx, offset, r.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if IsPollTimeoutError(err) {
				continue
			}
			r.log.Warn("telegram_poll_error", "error", err.Error())
			time.Sleep(3 * time.Second)
			continue
		}
		offset = next

		for _, u := range updates {
			if u.Message == nil || u.Message.Chat == nil {
				continue
			}
			if err := workers.Dispatch(ctx, u.Message.Chat.ID, u); err != nil {
				r.log.Warn("telegram_dispatch_error", "chat_id", u.Message.Chat.ID, "error", err.Error())
			}
		}
	}
}

func (r *Runtime) handle(ctx context.Context, u Update) {
	msg := u.Message
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	// First inbound private chat becomes the owner session.
	if _, ok := r.session.Load(); !ok {
		if err := r.session.Save(chatID); err != nil {
			r.log.Warn("session_save_error", "chat_id", chatID, "error", err.Error())
		} else {
			r.log.Info("session_saved", "chat_id", chatID)
		}
	}

	if strings.HasPrefix(text, "/") {
		r.handleCommand(ctx, chatID, text)
		return
	}

	r.log.Info("message_received", "chat_id", chatID, "text_len", len(text))

	if r.cfg.QueueInbound {
		item := newItem(msg, text)
		if err := r.archive.Enqueue(item); err != nil {
			r.log.Error("enqueue_error", "chat_id", chatID, "error", err.Error())
			return
		}
		r.log.Info("message_queued", "chat_id", chatID)
		_ = r.api.SendTyping(ctx, chatID)
		return
	}

	stopTyping := r.startTyping(ctx, chatID)
	reply := r.pipeline.Respond(ctx, text)
	stopTyping()

	if err := r.api.SendChunked(ctx, chatID, reply); err != nil {
		r.log.Error("telegram_send_error", "chat_id", chatID, "error", err.Error())
		return
	}

	if err := r.archive.Archive(newItem(msg, text), reply); err != nil {
		r.log.Warn("archive_error", "chat_id", chatID, "error", err.Error())
	}
}

func newItem(msg *Message, text string) queue.Item {
	item := queue.Item{
		ChatID:    msg.Chat.ID,
		Text:      text,
		Timestamp: msg.Date * 1000,
		MessageID: msg.MessageID,
	}
	if msg.From != nil {
		item.Username = msg.From.Username
		item.FirstName = msg.From.FirstName
	}
	return item
}

func (r *Runtime) handleCommand(ctx context.Context, chatID int64, text string) {
	cmd := text
	if i := strings.IndexAny(cmd, " @"); i > 0 {
		cmd = cmd[:i]
	}

	var reply string
	switch cmd {
	case "/start":
		if err := r.session.Save(chatID); err != nil {
			r.log.Warn("session_save_error", "chat_id", chatID, "error", err.Error())
		}
		reply = "🌅 *GForceDawn here!*\n\n" +
			"Full AI integration active. I can:\n\n" +
			"• Have real conversations with context\n" +
			"• Remember our chat history\n" +
			"• Learn from our interactions\n" +
			"• Send your daily reminders (6 PM, 7 PM, 9 PM)\n\n" +
			"Just talk to me naturally!"
	case "/help":
		reply = "*Available Commands:*\n\n" +
			"/start - Initialize the bot\n" +
			"/help - Show this help message\n" +
			"/status - Check bot status\n" +
			"/reminders - Show upcoming reminders\n" +
			"/reset - Clear conversation history\n\n" +
			"You can also just chat with me naturally! 🌅"
	case "/status":
		reply = fmt.Sprintf(
			"✅ *Bot Status: Online (AI Mode)*\n\n"+
				"Chat ID: %d\n"+
				"Model: %s\n"+
				"Conversation length: %d exchanges\n"+
				"Uptime: %ds\n\n"+
				"Full AI integration active. 🌅",
			chatID, r.cfg.ModelName, r.history.Len(), int(time.Since(r.startedAt).Seconds()))
	case "/reminders":
		reply = reminders.Describe()
	case "/reset":
		if err := r.history.Clear(); err != nil {
			r.log.Error("history_clear_error", "error", err.Error())
			reply = fmt.Sprintf("Could not clear history: %v", err)
			break
		}
		reply = "🔄 Conversation history cleared. Fresh start! 🌅"
	default:
		r.log.Info("unknown_command", "chat_id", chatID, "command", cmd)
		return
	}

	if err := r.api.SendMarkdown(ctx, chatID, reply); err != nil {
		r.log.Error("telegram_send_error", "chat_id", chatID, "error", err.Error())
	}
}

// startTyping keeps the typing indicator alive while a turn runs. Telegram
// clears the action after a few seconds, so it is re-sent on a ticker.
func (r *Runtime) startTyping(ctx context.Context, chatID int64) func() {
	_ = r.api.SendTyping(ctx, chatID)
	tickCtx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				_ = r.api.SendTyping(tickCtx, chatID)
			}
		}
	}()
	return cancel
}

// sendToOwner delivers out-of-band messages (reminders, one-shot sends) to
// the saved owner chat.
func (r *Runtime) sendToOwner(ctx context.Context, message string) error {
	rec, ok := r.session.Load()
	if !ok {
		return fmt.Errorf("no owner chat saved yet")
	}
	return r.api.SendMarkdown(ctx, rec.ChatID, message)
}
