// Package site keeps the storefront look and navigation settings and the
// backoffice menu.
package site

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"eshop/internal/configstore"
	"eshop/internal/logger"
)

var (
	ErrInvalidSettings = errors.New("invalid site settings")
	ErrInvalidMenu     = errors.New("invalid menu format")
)

type Highlight struct {
	Metric string `json:"metric"`
	Title  string `json:"title"`
	Copy   string `json:"copy"`
}

type VisualSettings struct {
	BackgroundImage   string      `json:"backgroundImage"`
	CarouselImages    []string    `json:"carouselImages"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	PrimaryCtaLabel   string      `json:"primaryCtaLabel"`
	PrimaryCtaLink    string      `json:"primaryCtaLink"`
	SecondaryCtaLabel string      `json:"secondaryCtaLabel"`
	SecondaryCtaLink  string      `json:"secondaryCtaLink"`
	Highlights        []Highlight `json:"highlights"`
}

type FooterLink struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type LinkSettings struct {
	LogoPrimaryLink string       `json:"logoPrimaryLink"`
	LogoAdminLink   string       `json:"logoAdminLink"`
	FooterLinks     []FooterLink `json:"footerLinks"`
}

type MenuItem struct {
	Label    string     `json:"label"`
	Href     string     `json:"href"`
	Icon     string     `json:"icon,omitempty"`
	Children []MenuItem `json:"children,omitempty"`
}

type MenuSettings struct {
	MainMenu          []MenuItem `json:"mainMenu"`
	FooterMenu        []MenuItem `json:"footerMenu"`
	MobileMenuEnabled bool       `json:"mobileMenuEnabled"`
}

// SiteSettings is the combined document used by older storefront builds.
type SiteSettings struct {
	Hero  VisualSettings `json:"hero"`
	Links LinkSettings   `json:"links"`
}

type AdminMenuItem struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Children    []AdminMenuItem `json:"children,omitempty"`
}

type Service struct {
	store  *configstore.Store
	logger *logger.Logger
}

func NewService(store *configstore.Store, logger *logger.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) Visual(ctx context.Context) (VisualSettings, error) {
	return readSection(ctx, s.store, configstore.KeySiteVisual, "hero", DefaultVisual)
}

// SaveVisual merges a partial payload onto the current visual settings.
func (s *Service) SaveVisual(ctx context.Context, patch []byte) (VisualSettings, error) {
	current, err := s.Visual(ctx)
	if err != nil {
		return current, err
	}
	return save(ctx, s.store, configstore.KeySiteVisual, current, patch)
}

func (s *Service) Links(ctx context.Context) (LinkSettings, error) {
	return readSection(ctx, s.store, configstore.KeySiteLinks, "links", DefaultLinks)
}

func (s *Service) SaveLinks(ctx context.Context, patch []byte) (LinkSettings, error) {
	current, err := s.Links(ctx)
	if err != nil {
		return current, err
	}
	return save(ctx, s.store, configstore.KeySiteLinks, current, patch)
}

func (s *Service) Menu(ctx context.Context) (MenuSettings, error) {
	return configstore.ReadMerged(ctx, s.store, configstore.KeySiteMenu, DefaultMenu)
}

func (s *Service) SaveMenu(ctx context.Context, patch []byte) (MenuSettings, error) {
	current, err := s.Menu(ctx)
	if err != nil {
		return current, err
	}
	return save(ctx, s.store, configstore.KeySiteMenu, current, patch)
}

func (s *Service) SiteSettings(ctx context.Context) (SiteSettings, error) {
	return configstore.ReadMerged(ctx, s.store, configstore.KeySiteSettings, DefaultSiteSettings)
}

type siteSettingsPatch struct {
	Hero *struct {
		BackgroundImage *string   `json:"backgroundImage"`
		CarouselImages  *[]string `json:"carouselImages"`
	} `json:"hero"`
	Links json.RawMessage `json:"links"`
}

// SaveSiteSettings updates the combined document. Only the hero background
// and carousel and the links can be changed through it.
func (s *Service) SaveSiteSettings(ctx context.Context, payload []byte) (SiteSettings, error) {
	current, err := s.SiteSettings(ctx)
	if err != nil {
		return current, err
	}

	var patch siteSettingsPatch
	if err := json.Unmarshal(payload, &patch); err != nil {
		return current, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if patch.Hero != nil {
		if patch.Hero.BackgroundImage != nil {
			current.Hero.BackgroundImage = *patch.Hero.BackgroundImage
		}
		if patch.Hero.CarouselImages != nil {
			current.Hero.CarouselImages = *patch.Hero.CarouselImages
		}
	}
	if len(patch.Links) > 0 {
		if err := json.Unmarshal(patch.Links, &current.Links); err != nil {
			return current, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
	}

	if err := configstore.Write(ctx, s.store, configstore.KeySiteSettings, current); err != nil {
		return current, err
	}
	return current, nil
}

// AdminMenu returns the stored backoffice menu, or the default tree when
// none or an empty one is stored.
func (s *Service) AdminMenu(ctx context.Context) ([]AdminMenuItem, error) {
	menu, err := configstore.Read(ctx, s.store, configstore.KeyAdminMenu, DefaultAdminMenu())
	if err != nil {
		return DefaultAdminMenu(), err
	}
	if len(menu) == 0 {
		return DefaultAdminMenu(), nil
	}
	return menu, nil
}

func (s *Service) SaveAdminMenu(ctx context.Context, menu []AdminMenuItem) error {
	if menu == nil {
		return ErrInvalidMenu
	}
	return configstore.Write(ctx, s.store, configstore.KeyAdminMenu, menu)
}

// readSection reads key merged over defaults. Documents imported from the
// combined legacy file are unwrapped to their section first.
func readSection[T any](ctx context.Context, store *configstore.Store, key, section string, defaults func() T) (T, error) {
	def, err := json.Marshal(defaults())
	if err != nil {
		return defaults(), err
	}
	raw, err := configstore.Read(ctx, store, key, json.RawMessage(def))
	if err != nil {
		return defaults(), err
	}

	var combined map[string]json.RawMessage
	if json.Unmarshal(raw, &combined) == nil {
		if inner, ok := combined[section]; ok {
			raw = inner
		}
	}

	value := defaults()
	if err := json.Unmarshal(raw, &value); err != nil {
		return defaults(), nil
	}
	return value, nil
}

func save[T any](ctx context.Context, store *configstore.Store, key string, current T, patch []byte) (T, error) {
	if err := json.Unmarshal(patch, &current); err != nil {
		return current, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := configstore.Write(ctx, store, key, current); err != nil {
		return current, err
	}
	return current, nil
}
