package telegram

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"eshop/internal/configstore"
	"eshop/internal/logger"
	"eshop/internal/services/chat"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	sessionTagRegex   = regexp.MustCompile(`(?i)\[CS:([^\]]+)\]`)
	replyCommandRegex = regexp.MustCompile(`(?is)^/(?:reply|odpoved)\s+(\S+)\s+(.+)`)
)

type PollResult struct {
	Processed  int `json:"processed"`
	NextOffset int `json:"nextOffset"`
}

// Poller runs one getUpdates round at a time so the worker loop and the
// admin trigger never handle the same updates twice.
type Poller struct {
	mu     sync.Mutex
	chat   *chat.Service
	store  *configstore.Store
	client *Client
	logger *logger.Logger
}

func NewPoller(chatService *chat.Service, store *configstore.Store, client *Client, logger *logger.Logger) *Poller {
	return &Poller{
		chat:   chatService,
		store:  store,
		client: client,
		logger: logger,
	}
}

// Poll turns operator replies received since the stored offset into agent
// messages.
func (p *Poller) Poll(ctx context.Context) (PollResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	settings, err := p.chat.Settings(ctx)
	if err != nil {
		return PollResult{}, err
	}

	offset, err := configstore.Read(ctx, p.store, configstore.KeyTelegramOffset, 0)
	if err != nil {
		return PollResult{}, err
	}
	if offset < 0 {
		offset = 0
	}

	token := strings.TrimSpace(settings.TelegramBotToken)
	allowed := settings.TelegramChats()
	if token == "" || len(allowed) == 0 {
		return PollResult{NextOffset: offset}, nil
	}

	updates, err := p.client.Updates(token, offset)
	if err != nil {
		return PollResult{NextOffset: offset}, err
	}
	if len(updates) == 0 {
		return PollResult{NextOffset: offset}, nil
	}

	result := PollResult{}
	maxUpdateID := 0
	for _, update := range updates {
		if update.UpdateID > maxUpdateID {
			maxUpdateID = update.UpdateID
		}

		message := update.Message
		if message == nil || message.Chat == nil {
			continue
		}
		if !contains(allowed, strconv.FormatInt(message.Chat.ID, 10)) {
			continue
		}

		key, content, ok := ParseMessage(message)
		if !ok {
			continue
		}

		// Another process may have stored this update before the offset moved.
		updateID := strconv.Itoa(update.UpdateID)
		seen, err := p.chat.HasTelegramUpdate(ctx, updateID)
		if err != nil {
			return result, err
		}
		if seen {
			continue
		}

		_, err = p.chat.AddAgentMessage(ctx, key, content, chat.AgentMeta{
			TelegramMessageID: strconv.Itoa(message.MessageID),
			TelegramUpdateID:  updateID,
		})
		if errors.Is(err, chat.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return result, err
		}
		result.Processed++
	}

	result.NextOffset = offset
	if maxUpdateID > 0 {
		result.NextOffset = maxUpdateID + 1
	}
	if result.NextOffset != offset {
		if err := configstore.Write(ctx, p.store, configstore.KeyTelegramOffset, result.NextOffset); err != nil {
			return result, err
		}
	}

	return result, nil
}

// Run polls every interval until ctx is done.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := p.Poll(ctx)
			if err != nil {
				p.logger.Error("Telegram poll failed: %v", err)
				continue
			}
			if result.Processed > 0 {
				p.logger.Info("Telegram poll stored %d replies", result.Processed)
			}
		}
	}
}

// ParseMessage finds the session key and reply text of an operator message.
// A reply to a tagged message wins over a /reply command, which wins over an
// inline tag.
func ParseMessage(message *tgbotapi.Message) (string, string, bool) {
	text := strings.TrimSpace(messageText(message))
	if text == "" {
		return "", "", false
	}

	if message.ReplyToMessage != nil {
		if key := sessionKey(messageText(message.ReplyToMessage)); key != "" {
			return key, text, true
		}
	}

	if match := replyCommandRegex.FindStringSubmatch(text); match != nil {
		if content := strings.TrimSpace(match[2]); content != "" {
			return strings.TrimSpace(match[1]), content, true
		}
	}

	if key := sessionKey(text); key != "" {
		loc := sessionTagRegex.FindStringIndex(text)
		content := strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
		if content != "" {
			return key, content, true
		}
	}
	return "", "", false
}

func messageText(message *tgbotapi.Message) string {
	if message.Text != "" {
		return message.Text
	}
	return message.Caption
}

func sessionKey(text string) string {
	match := sessionTagRegex.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
