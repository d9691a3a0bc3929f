package flexibee

import (
	"context"
	"fmt"
	"strings"

	"eshop/internal/configstore"
)

// PasswordMask replaces a stored password in API responses.
const PasswordMask = "••••••••"

type Settings struct {
	URL      string `json:"url"`
	Company  string `json:"company"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s Settings) trimmed() Settings {
	return Settings{
		URL:      strings.TrimSpace(s.URL),
		Company:  strings.TrimSpace(s.Company),
		Username: strings.TrimSpace(s.Username),
		Password: strings.TrimSpace(s.Password),
	}
}

// Masked hides the password.
func (s Settings) Masked() Settings {
	if s.Password != "" {
		s.Password = PasswordMask
	}
	return s
}

// Missing lists the environment keys of the empty fields.
func (s Settings) Missing() []string {
	missing := []string{}
	if s.URL == "" {
		missing = append(missing, "FLEXIBEE_URL")
	}
	if s.Company == "" {
		missing = append(missing, "FLEXIBEE_COMPANY")
	}
	if s.Username == "" {
		missing = append(missing, "FLEXIBEE_USERNAME")
	}
	if s.Password == "" {
		missing = append(missing, "FLEXIBEE_PASSWORD")
	}
	return missing
}

type Status struct {
	Configured bool     `json:"configured"`
	Missing    []string `json:"missing"`
}

// StoredSettings returns the settings saved by admins, without environment
// overrides.
func (s *Service) StoredSettings(ctx context.Context) (Settings, error) {
	settings, err := configstore.ReadMerged(ctx, s.store, configstore.KeyFlexibeeSettings, func() Settings { return Settings{} })
	if err != nil {
		return settings, fmt.Errorf("failed to read flexibee settings: %w", err)
	}
	return settings, nil
}

// SaveSettings stores trimmed settings. A masked password keeps the stored
// one, and so does any field sent back with its environment value.
func (s *Service) SaveSettings(ctx context.Context, settings Settings) (Settings, error) {
	settings = settings.trimmed()
	current, err := s.StoredSettings(ctx)
	if err != nil {
		return settings, err
	}
	if settings.Password == PasswordMask {
		settings.Password = current.Password
	}

	settings.URL = keepStored(settings.URL, current.URL, s.env.URL, func(v string) string { return strings.TrimRight(v, "/") })
	settings.Company = keepStored(settings.Company, current.Company, s.env.Company, nil)
	settings.Username = keepStored(settings.Username, current.Username, s.env.Username, nil)
	settings.Password = keepStored(settings.Password, current.Password, s.env.Password, nil)

	if err := configstore.Write(ctx, s.store, configstore.KeyFlexibeeSettings, settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// EnvOverrides names the settings fields set from the environment.
func (s *Service) EnvOverrides() []string {
	overrides := []string{}
	for _, field := range []struct{ name, value string }{
		{"url", s.env.URL},
		{"company", s.env.Company},
		{"username", s.env.Username},
		{"password", s.env.Password},
	} {
		if strings.TrimSpace(field.value) != "" {
			overrides = append(overrides, field.name)
		}
	}
	return overrides
}

func keepStored(value, stored, envValue string, normalize func(string) string) string {
	envValue = strings.TrimSpace(envValue)
	if envValue == "" {
		return value
	}
	compared := value
	if normalize != nil {
		compared, envValue = normalize(value), normalize(envValue)
	}
	if compared == envValue {
		return stored
	}
	return value
}

// Resolve combines environment values, which win, with stored settings.
func (s *Service) Resolve(ctx context.Context) (Settings, error) {
	stored, err := s.StoredSettings(ctx)
	if err != nil {
		s.logger.Warn("Using environment only flexibee settings: %v", err)
		stored = Settings{}
	}
	stored = stored.trimmed()

	resolved := Settings{
		URL:      firstNonEmpty(s.env.URL, stored.URL),
		Company:  firstNonEmpty(s.env.Company, stored.Company),
		Username: firstNonEmpty(s.env.Username, stored.Username),
		Password: firstNonEmpty(s.env.Password, stored.Password),
	}
	resolved.URL = strings.TrimRight(resolved.URL, "/")
	return resolved, nil
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	resolved, err := s.Resolve(ctx)
	if err != nil {
		return Status{}, err
	}
	missing := resolved.Missing()
	return Status{Configured: len(missing) == 0, Missing: missing}, nil
}

func (s *Service) config(ctx context.Context) (Settings, error) {
	resolved, err := s.Resolve(ctx)
	if err != nil {
		return resolved, err
	}
	if missing := resolved.Missing(); len(missing) > 0 {
		return resolved, fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}
	return resolved, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
