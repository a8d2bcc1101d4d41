// Package telegram serves the DocVQA form over a Telegram chat. A photo
// selects the image, its caption or any later text message is the question.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lehigh-university-libraries/docvqa/internal/form"
	"github.com/lehigh-university-libraries/docvqa/internal/storage"
)

// maxDownload caps image downloads at the backend's upload limit.
const maxDownload = 10 * 1024 * 1024

const (
	helpText    = "Send me a photo of a document, then ask a question about it. You can also put the question in the photo caption. /reset forgets the current image."
	busyText    = "Still working on your previous question."
	previewText = "Image received. Ask a question about it."
	resetText   = "Image cleared. Send a new photo."
)

// Bot is the subset of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Router keeps one form controller per chat.
type Router struct {
	bot        Bot
	asker      form.Asker
	httpClient *http.Client

	chats *storage.SessionStore[int64, *form.Controller]
}

func NewRouter(bot Bot, asker form.Asker) *Router {
	return &Router{
		bot:        bot,
		asker:      asker,
		httpClient: http.DefaultClient,
		chats:      storage.New[int64, *form.Controller](),
	}
}

// chatQueueSize bounds the updates buffered for one chat.
const chatQueueSize = 16

// Run handles updates until ctx ends or updates is closed. Each chat gets
// its own worker so a chat's updates are handled in arrival order while
// different chats proceed concurrently.
func (r *Router) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	var wg sync.WaitGroup
	queues := make(map[int64]chan tgbotapi.Update)
	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Telegram polling stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			if upd.Message == nil || upd.Message.Chat == nil {
				continue
			}
			chatID := upd.Message.Chat.ID
			q, exists := queues[chatID]
			if !exists {
				q = make(chan tgbotapi.Update, chatQueueSize)
				queues[chatID] = q
				wg.Add(1)
				go func() {
					defer wg.Done()
					r.work(ctx, q)
				}()
			}
			select {
			case q <- upd:
			case <-ctx.Done():
				slog.Info("Telegram polling stopped")
				return
			}
		}
	}
}

// work handles one chat's updates in order. Updates still queued when ctx
// ends are dropped.
func (r *Router) work(ctx context.Context, queue <-chan tgbotapi.Update) {
	for upd := range queue {
		if ctx.Err() != nil {
			continue
		}
		r.HandleUpdate(ctx, upd)
	}
}

func (r *Router) controller(chatID int64) *form.Controller {
	return r.chats.GetOrCreate(chatID, func() *form.Controller {
		return form.New(&chatView{bot: r.bot, chatID: chatID}, r.asker)
	})
}

// HandleUpdate processes a single update and blocks until any submission it
// starts has finished.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	ctrl := r.controller(chatID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			r.send(chatID, helpText)
		case "reset":
			if ctrl.State() == form.Submitting {
				r.send(chatID, busyText)
				return
			}
			r.chats.Delete(chatID)
			r.send(chatID, resetText)
		default:
			r.send(chatID, "Unknown command. "+helpText)
		}
		return
	}

	question := strings.TrimSpace(msg.Text)
	if f, ok := r.fileFromMessage(ctx, msg); ok {
		if err := ctrl.SelectFile(ctx, f); err != nil {
			return
		}
		question = strings.TrimSpace(msg.Caption)
		if question == "" {
			return
		}
	}
	if question == "" {
		return
	}

	res := ctrl.SubmitSelected(ctx, question)
	if errors.Is(res.Err, form.ErrSubmissionInFlight) {
		r.send(chatID, busyText)
	}
}

// fileFromMessage downloads the photo or image document attached to msg.
// A failed download is reported as a file whose read fails so the preview
// warning path shows it.
func (r *Router) fileFromMessage(ctx context.Context, msg *tgbotapi.Message) (form.File, bool) {
	var fileID, name string
	switch {
	case len(msg.Photo) > 0:
		ph := msg.Photo[len(msg.Photo)-1]
		fileID = ph.FileID
		name = fmt.Sprintf("photo_%d.jpg", msg.MessageID)
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		fileID = msg.Document.FileID
		name = msg.Document.FileName
	default:
		return nil, false
	}

	data, err := r.download(ctx, fileID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to download telegram file", "chat_id", msg.Chat.ID, "file_id", fileID, "err", err)
		return failedFile{name: name, err: err}, true
	}
	return form.BytesFile(name, data), true
}

func (r *Router) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := r.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownload {
		return nil, fmt.Errorf("file exceeds %d bytes", maxDownload)
	}
	return data, nil
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("Failed to send telegram message", "chat_id", chatID, "err", err)
	}
}

type failedFile struct {
	name string
	err  error
}

func (f failedFile) Name() string { return f.name }

func (f failedFile) Open() (io.ReadCloser, error) { return nil, f.err }
