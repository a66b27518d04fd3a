package publisher

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
)

// TelegramPublisher posts articles to a Telegram channel. The bot API
// client is created lazily so missing network at construction time only
// surfaces as a per-publish failure.
type TelegramPublisher struct {
	token     string
	channelID string
	endpoint  string
	client    *http.Client

	once    sync.Once
	bot     *tgbotapi.BotAPI
	initErr error
}

var _ ports.Publisher = (*TelegramPublisher)(nil)

// NewTelegramPublisher registers bot token and channel identifier.
func NewTelegramPublisher(cfg config.TelegramConfig) *TelegramPublisher {
	return &TelegramPublisher{
		token:     cfg.BotToken,
		channelID: cfg.ChannelID,
		endpoint:  tgbotapi.APIEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Name identifies the channel inside publish reports.
func (p *TelegramPublisher) Name() string {
	return "telegram"
}

// Configured reports whether both token and channel are present.
func (p *TelegramPublisher) Configured() bool {
	return p.token != "" && p.channelID != ""
}

// Publish sends the article as a photo post when an image is present,
// as a plain HTML message otherwise. Returns the Telegram message id.
func (p *TelegramPublisher) Publish(ctx context.Context, article domain.Article) (string, error) {
	if !p.Configured() {
		return "", fmt.Errorf("telegram publisher is not configured")
	}

	bot, err := p.api()
	if err != nil {
		return "", fmt.Errorf("telegram bot init: %w", err)
	}

	message := formatTelegramMessage(article)

	var sent tgbotapi.Message
	if article.ImageURL != "" {
		photo := p.newPhoto(article.ImageURL)
		photo.Caption = message
		photo.ParseMode = tgbotapi.ModeHTML
		sent, err = bot.Send(photo)
	} else {
		msg := p.newMessage(message)
		msg.ParseMode = tgbotapi.ModeHTML
		sent, err = bot.Send(msg)
	}
	if err != nil {
		return "", fmt.Errorf("telegram send: %w", err)
	}

	return strconv.Itoa(sent.MessageID), nil
}

func (p *TelegramPublisher) api() (*tgbotapi.BotAPI, error) {
	p.once.Do(func() {
		p.bot, p.initErr = tgbotapi.NewBotAPIWithClient(p.token, p.endpoint, p.client)
	})
	return p.bot, p.initErr
}

func (p *TelegramPublisher) newMessage(text string) tgbotapi.MessageConfig {
	if chatID, err := strconv.ParseInt(p.channelID, 10, 64); err == nil {
		return tgbotapi.NewMessage(chatID, text)
	}
	return tgbotapi.NewMessageToChannel(p.channelID, text)
}

func (p *TelegramPublisher) newPhoto(imageURL string) tgbotapi.PhotoConfig {
	file := tgbotapi.FileURL(imageURL)
	if chatID, err := strconv.ParseInt(p.channelID, 10, 64); err == nil {
		return tgbotapi.NewPhoto(chatID, file)
	}
	return tgbotapi.NewPhotoToChannel(p.channelID, file)
}

func formatTelegramMessage(article domain.Article) string {
	parts := []string{fmt.Sprintf("📰 <b>%s</b>", html.EscapeString(article.Title))}

	body := article.Description
	if body == "" {
		body = article.Content
	}
	if body != "" {
		parts = append(parts, "\n"+html.EscapeString(body))
	}

	if article.SourceURL != "" {
		parts = append(parts, fmt.Sprintf("\n\n🔗 <a href=\"%s\">Read more</a>", article.SourceURL))
	}

	return strings.Join(parts, "\n")
}
