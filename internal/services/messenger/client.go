// Package messenger talks to the Facebook Messenger Send API.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eshop/internal/logger"
)

type Client struct {
	apiURL     string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(apiURL string, logger *logger.Logger) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type sendRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

type sendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
	Error       *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText delivers text to recipientID and returns the Messenger message id.
func (c *Client) SendText(ctx context.Context, pageToken, recipientID, text string) (string, error) {
	var payload sendRequest
	payload.Recipient.ID = recipientID
	payload.Message.Text = text

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", c.apiURL, url.QueryEscape(pageToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var result sendResponse
	_ = json.Unmarshal(body, &result)

	if result.Error != nil && result.Error.Message != "" {
		c.logger.Error("Messenger API error: %s", string(body))
		return "", fmt.Errorf("messenger API error: %s", result.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("API request failed: %d - %s", resp.StatusCode, string(body))
	}

	return result.MessageID, nil
}
