// Package bot adapts the Telegram transport to the coordinator: it
// routes inbound updates and implements the outbound messenger and
// file download interfaces.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/video-transcribe-bot/internal/coordinator"
	"github.com/codebuildervaibhav/video-transcribe-bot/internal/types"
)

const greeting = "Hi! Send me a video and I'll transcribe it for you.\n" +
	"Use /cancel to stop a running transcription."

// Bot wraps the Telegram API client and the update loop.
type Bot struct {
	api         *tgbotapi.BotAPI
	coord       *coordinator.Coordinator
	client      *http.Client
	pollTimeout int
	log         zerolog.Logger
}

// New authenticates against the Telegram API.
func New(token string, pollTimeoutSec int, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authenticate bot: %w", err)
	}

	log.Info().Str("username", api.Self.UserName).Msg("authorized on telegram")
	return &Bot{
		api:         api,
		client:      &http.Client{Timeout: 5 * time.Minute},
		pollTimeout: pollTimeoutSec,
		log:         log,
	}, nil
}

// SetCoordinator wires the coordinator after construction, since the
// coordinator itself needs the bot as messenger and fetcher.
func (b *Bot) SetCoordinator(coord *coordinator.Coordinator) {
	b.coord = coord
}

// Run polls for updates until the context is cancelled. All inbound
// events are handled on this goroutine; long-running work is launched
// by the coordinator in the background.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("failed to answer callback query")
	}
	if cb.Message == nil {
		return
	}

	if err := b.coord.HandleTier(cb.Message.Chat.ID, cb.Data); err != nil {
		b.log.Debug().Err(err).Str("data", cb.Data).Msg("tier callback not applied")
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.reply(chatID, greeting)
		case "cancel":
			// Errors here already produced a user-facing message.
			_ = b.coord.HandleCancel(chatID)
		default:
			b.reply(chatID, "Unknown command. Send me a video, or use /cancel.")
		}
		return
	}

	if msg.Video != nil {
		fileName := msg.Video.FileName
		if fileName == "" {
			fileName = "video.mp4"
		}
		_ = b.coord.HandleVideo(ctx, chatID, coordinator.VideoInput{
			FileID:   msg.Video.FileID,
			FileName: fileName,
			Size:     int64(msg.Video.FileSize),
		})
		return
	}

	b.reply(chatID, "Send me a video and I'll transcribe it.")
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.SendText(chatID, text); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
	}
}

// SendText implements coordinator.Messenger.
func (b *Bot) SendText(chatID int64, text string) (int, error) {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// EditText implements coordinator.Messenger.
func (b *Bot) EditText(chatID int64, messageID int, text string) error {
	_, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

// SendTierPrompt implements coordinator.Messenger with an inline keyboard.
func (b *Bot) SendTierPrompt(chatID int64, text string) (int, error) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(types.Tiers()))
	for _, tier := range types.Tiers() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(tier.Label(), string(tier)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// SendDocument implements coordinator.Messenger. The local file is
// streamed under the given display name.
func (b *Bot) SendDocument(chatID int64, path, filename, caption string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: filename, Reader: f})
	doc.Caption = caption
	_, err = b.api.Send(doc)
	return err
}

// Fetch implements coordinator.FileFetcher by downloading a Telegram
// file to dest.
func (b *Bot) Fetch(ctx context.Context, fileID, dest string) error {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("write file: %w", err)
	}
	return out.Close()
}
