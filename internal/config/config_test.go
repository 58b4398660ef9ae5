package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validYAML = `
telegram:
  token: "123:abc"
database:
  host: localhost
  port: "5432"
  user: bot
  password: secret
  name: groupbot
  sslmode: disable
marketplace:
  admin_channel_id: -100987654321
  verifier_token: "456:def"
  support_handle: "@market_help"
  session_ttl_minutes: 45
`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "groupbot", cfg.Database.Name)
	assert.EqualValues(t, -100987654321, cfg.Marketplace.AdminChannelID)
	assert.Equal(t, "@market_help", cfg.Marketplace.SupportHandle)
	assert.Equal(t, 45*time.Minute, cfg.Marketplace.SessionTTL())
	assert.Equal(t, 5*time.Minute, cfg.Marketplace.SweepInterval(), "interval falls back to default")

	require.NotNil(t, cfg.CoreConfig())
	assert.Equal(t, cfg.Telegram.Token, cfg.CoreConfig().Telegram.Token)
}

func TestLoadMissingAdminChannel(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
marketplace:
  verifier_token: "456:def"
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_channel_id")
}

func TestLoadMissingVerifierToken(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
marketplace:
  admin_channel_id: -1
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verifier_token")
}

func TestLoadDefaultSupportHandle(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
marketplace:
  admin_channel_id: -1
  verifier_token: "456:def"
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "@groupmarket_support", cfg.Marketplace.SupportHandle)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
