package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite://eshop.db", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, 12*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 5*time.Second, cfg.Telegram.PollInterval)
	assert.Equal(t, "https://graph.facebook.com/v18.0", cfg.Messenger.APIURL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FLEXIBEE_URL", "https://demo.flexibee.eu/")
	t.Setenv("FLEXIBEE_COMPANY", "demo")
	t.Setenv("FLEXIBEE_AUTO_EXPORT", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TELEGRAM_POLL_INTERVAL", "2s")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://demo.flexibee.eu/", cfg.Flexibee.URL)
	assert.Equal(t, "demo", cfg.Flexibee.Company)
	assert.True(t, cfg.Flexibee.AutoExport)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, 2*time.Second, cfg.Telegram.PollInterval)
	assert.True(t, cfg.IsProduction())
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("JWT_EXPIRATION", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "   "
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "a-private-production-secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidateAllowsDefaultSecretInDevelopment(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}
