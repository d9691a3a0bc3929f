// Package telegram forwards chat messages to operators over the Telegram
// Bot API and pulls their replies back into chat sessions.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"eshop/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client keeps one bot per token since the token lives in chat settings and
// may change at runtime.
type Client struct {
	endpoint string
	logger   *logger.Logger

	mu   sync.Mutex
	bots map[string]*tgbotapi.BotAPI
}

func NewClient(endpoint string, logger *logger.Logger) *Client {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &Client{
		endpoint: endpoint,
		logger:   logger,
		bots:     make(map[string]*tgbotapi.BotAPI),
	}
}

func (c *Client) bot(token string) (*tgbotapi.BotAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bot, ok := c.bots[token]; ok {
		return bot, nil
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	c.logger.Info("Authorized on telegram account %s", bot.Self.UserName)
	c.bots[token] = bot
	return bot, nil
}

// SendText posts text to chatID, which is a numeric id or an @channel name.
func (c *Client) SendText(token, chatID, text string) (int, error) {
	bot, err := c.bot(token)
	if err != nil {
		return 0, err
	}

	var msg tgbotapi.MessageConfig
	if strings.HasPrefix(chatID, "@") {
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	} else {
		id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid telegram chat id %q", chatID)
		}
		msg = tgbotapi.NewMessage(id, text)
	}

	sent, err := bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send telegram message: %w", err)
	}
	return sent.MessageID, nil
}

// Updates fetches pending message updates starting at offset.
func (c *Client) Updates(token string, offset int) ([]tgbotapi.Update, error) {
	bot, err := c.bot(token)
	if err != nil {
		return nil, err
	}

	updates, err := bot.GetUpdates(tgbotapi.UpdateConfig{
		Offset:         offset,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates error: %w", err)
	}
	return updates, nil
}
