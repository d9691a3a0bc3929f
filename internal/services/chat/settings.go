package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eshop/internal/configstore"
)

const (
	ChannelTelegram  = "telegram"
	ChannelMessenger = "messenger"
)

// ScheduleEntry is one online slot. Day 0 is Sunday.
type ScheduleEntry struct {
	Day   int    `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type TawkTo struct {
	Enabled    bool   `json:"enabled"`
	PropertyID string `json:"propertyId"`
	WidgetID   string `json:"widgetId"`
}

type Settings struct {
	AdminEmail         string          `json:"adminEmail"`
	Timezone           string          `json:"timezone"`
	OnlineHours        []ScheduleEntry `json:"onlineHours"`
	AlwaysOnline       bool            `json:"alwaysOnline"`
	EmailSubjectPrefix string          `json:"emailSubjectPrefix"`
	AutoReplyEnabled   bool            `json:"autoReplyEnabled"`
	AutoReplyMessage   string          `json:"autoReplyMessage"`
	TawkTo             TawkTo          `json:"tawkTo"`

	ChannelType          string `json:"channelType"`
	TelegramBotToken     string `json:"telegramBotToken"`
	TelegramGroupID      string `json:"telegramGroupId"`
	TelegramChatID       string `json:"telegramChatId"`
	MessengerPageToken   string `json:"messengerPageToken"`
	MessengerRecipientID string `json:"messengerRecipientId"`
}

func DefaultSettings() Settings {
	return Settings{
		Timezone: "Europe/Bratislava",
		OnlineHours: []ScheduleEntry{
			{Day: 1, Start: "08:00", End: "16:00"},
			{Day: 2, Start: "08:00", End: "16:00"},
			{Day: 3, Start: "08:00", End: "16:00"},
			{Day: 4, Start: "08:00", End: "16:00"},
			{Day: 5, Start: "08:00", End: "15:00"},
		},
		EmailSubjectPrefix: "[Eshop Chat]",
		AutoReplyMessage:   "Ďakujeme za vašu správu. Ozveme sa vám čo najskôr.",
		ChannelType:        ChannelTelegram,
	}
}

// TelegramTarget is the chat that receives visitor messages.
func (s Settings) TelegramTarget() string {
	if id := strings.TrimSpace(s.TelegramGroupID); id != "" {
		return id
	}
	return strings.TrimSpace(s.TelegramChatID)
}

// TelegramChats lists the chats whose replies are accepted.
func (s Settings) TelegramChats() []string {
	var chats []string
	for _, id := range []string{s.TelegramGroupID, s.TelegramChatID} {
		if id = strings.TrimSpace(id); id != "" {
			chats = append(chats, id)
		}
	}
	return chats
}

func (s Settings) TelegramReady() bool {
	return strings.TrimSpace(s.TelegramBotToken) != "" && s.TelegramTarget() != ""
}

func (s Settings) MessengerReady() bool {
	return s.MessengerPageToken != "" && s.MessengerRecipientID != ""
}

// PublicSettings is what storefront visitors may see.
type PublicSettings struct {
	Online           bool            `json:"online"`
	Timezone         string          `json:"timezone"`
	OnlineHours      []ScheduleEntry `json:"onlineHours"`
	AlwaysOnline     bool            `json:"alwaysOnline"`
	AutoReplyEnabled bool            `json:"autoReplyEnabled"`
	AutoReplyMessage string          `json:"autoReplyMessage"`
	TawkTo           TawkTo          `json:"tawkTo"`
	ChannelType      string          `json:"channelType"`
	ChannelReady     bool            `json:"channelReady"`
	EmailEnabled     bool            `json:"emailEnabled"`
}

func (s Settings) Public(now time.Time) PublicSettings {
	channel := s.ChannelType
	if channel != ChannelMessenger {
		channel = ChannelTelegram
	}
	ready := s.TelegramReady()
	if channel == ChannelMessenger {
		ready = s.MessengerReady()
	}

	return PublicSettings{
		Online:           IsOnline(s, now),
		Timezone:         s.Timezone,
		OnlineHours:      s.OnlineHours,
		AlwaysOnline:     s.AlwaysOnline,
		AutoReplyEnabled: s.AutoReplyEnabled,
		AutoReplyMessage: s.AutoReplyMessage,
		TawkTo:           s.TawkTo,
		ChannelType:      channel,
		ChannelReady:     ready,
		EmailEnabled:     s.AdminEmail != "",
	}
}

func (s *Service) Settings(ctx context.Context) (Settings, error) {
	settings, err := configstore.ReadMerged(ctx, s.store, configstore.KeyChatSettings, DefaultSettings)
	if err != nil {
		return settings, fmt.Errorf("failed to read chat settings: %w", err)
	}
	return settings, nil
}

// SaveSettings applies a partial JSON payload onto the current settings.
func (s *Service) SaveSettings(ctx context.Context, patch []byte) (Settings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return current, err
	}

	if err := json.Unmarshal(patch, &current); err != nil {
		return current, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	if err := configstore.Write(ctx, s.store, configstore.KeyChatSettings, current); err != nil {
		return current, err
	}
	return current, nil
}
