package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_LoadsFromYAML(t *testing.T) {
	tempFile := createTempConfigFile(t, `
server:
  port: "9090"
  session_secret: "test-secret"
  debug: true
  log_level: "debug"
  max_ai_concurrent: 20
  max_ai_per_session: 2
  cors_origins:
    - "http://test:3000"
    - "http://test:3001"

session:
  store: cookie
  max_age: 2h

ai:
  provider: anthropic
  model: claude-test
  base_url: "http://llm.local:8080"
  api_key_parameter: /custom/key
  max_tokens: 512
  temperature: 0.4
  timeout: 45s

catalog:
  path: /etc/quiz/topics.yaml

database:
  driver: sqlite
  url: "file:usage.db"
  max_open_conns: 5
  conn_max_lifetime: "10m"

aws:
  region: eu-west-1

open_telemetry:
  endpoint: "test:4317"
  protocol: "http"
  service_name: "test-service"
  sampling_rate: 0.5
`)
	t.Setenv("QUIZ_CONFIG_FILE", tempFile)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "test-secret", cfg.Server.SessionSecret)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 20, cfg.Server.MaxAIConcurrent)
	assert.Equal(t, 2, cfg.Server.MaxAIPerSession)
	assert.Equal(t, []string{"http://test:3000", "http://test:3001"}, cfg.Server.CORSOrigins)

	assert.Equal(t, SessionStoreCookie, cfg.Session.Store)
	assert.Equal(t, 2*time.Hour, cfg.Session.MaxAge)

	assert.Equal(t, ProviderAnthropic, cfg.AI.Provider)
	assert.Equal(t, "claude-test", cfg.AI.Model)
	assert.Equal(t, "http://llm.local:8080", cfg.AI.BaseURL)
	assert.Equal(t, "/custom/key", cfg.AI.APIKeyParameter)
	assert.Equal(t, 512, cfg.AI.MaxTokens)
	assert.InDelta(t, 0.4, cfg.AI.Temperature, 0.0001)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)

	assert.Equal(t, "/etc/quiz/topics.yaml", cfg.Catalog.Path)
	assert.Equal(t, DatabaseDriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.True(t, cfg.UsageStatsEnabled())
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)

	assert.Equal(t, "http", cfg.OpenTelemetry.Protocol)
	assert.Equal(t, 0.5, cfg.OpenTelemetry.SamplingRate)
}

func TestNewConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("QUIZ_CONFIG_FILE", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("PORT", "")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultSessionSecret, cfg.Server.SessionSecret)
	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, SessionMaxAge, cfg.Session.MaxAge)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, DefaultOpenAIModel, cfg.AI.Model)
	assert.Equal(t, DefaultAPIKeyParameter, cfg.AI.APIKeyParameter)
	assert.Equal(t, AIRequestTimeout, cfg.AI.Timeout)
	assert.Equal(t, DefaultMaxAIPerSession, cfg.Server.MaxAIPerSession)
	assert.False(t, cfg.UsageStatsEnabled())
	assert.Equal(t, "devops-quiz", cfg.OpenTelemetry.ServiceName)
}

func TestNewConfig_EnvironmentVariableOverrides(t *testing.T) {
	tempFile := createTempConfigFile(t, `
server:
  port: "8080"
ai:
  model: gpt-4o-mini
`)
	t.Setenv("QUIZ_CONFIG_FILE", tempFile)
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("SERVER_DEBUG", "true")
	t.Setenv("SERVER_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("AI_MODEL", "gpt-4.1-mini")
	t.Setenv("AI_TIMEOUT", "30s")
	t.Setenv("AI_TEMPERATURE", "0.2")
	t.Setenv("OPEN_TELEMETRY_ENABLE_TRACING", "true")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "gpt-4.1-mini", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.InDelta(t, 0.2, cfg.AI.Temperature, 0.0001)
	assert.True(t, cfg.OpenTelemetry.EnableTracing)
}

func TestNewConfig_WellKnownVariables(t *testing.T) {
	tempFile := createTempConfigFile(t, "server:\n  port: \"8080\"\n")
	t.Setenv("QUIZ_CONFIG_FILE", tempFile)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("SERVER_SESSION_SECRET", "")
	t.Setenv("SECRET_KEY", "from-secret-key")
	t.Setenv("PORT", "7000")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-secret-key", cfg.Server.SessionSecret)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "sk-env", cfg.AI.APIKey)
}

func TestNewConfig_AnthropicKeyVariable(t *testing.T) {
	tempFile := createTempConfigFile(t, "ai:\n  provider: anthropic\n")
	t.Setenv("QUIZ_CONFIG_FILE", tempFile)
	t.Setenv("AI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "sk-ant", cfg.AI.APIKey)
	assert.Equal(t, DefaultAnthropicModel, cfg.AI.Model)
}

func TestNewConfig_InvalidEnvironmentVariableIgnored(t *testing.T) {
	tempFile := createTempConfigFile(t, "server:\n  max_ai_concurrent: 4\n")
	t.Setenv("QUIZ_CONFIG_FILE", tempFile)
	t.Setenv("SERVER_MAX_AI_CONCURRENT", "many")
	t.Setenv("AI_TIMEOUT", "soon")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Server.MaxAIConcurrent)
	assert.Equal(t, AIRequestTimeout, cfg.AI.Timeout)
}

func TestNewConfig_ConfigFileNotFound(t *testing.T) {
	t.Setenv("QUIZ_CONFIG_FILE", "/nonexistent/file.yaml")

	_, err := NewConfig()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config from /nonexistent/file.yaml")
}

func TestNewConfig_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown provider", "ai:\n  provider: bard\n"},
		{"unknown session store", "session:\n  store: redis\n"},
		{"non numeric port", "server:\n  port: \"http\"\n"},
		{"postgres session store without database", "session:\n  store: postgres\n"},
		{"postgres session store on sqlite", "session:\n  store: postgres\ndatabase:\n  driver: sqlite\n  url: file:x.db\n"},
		{"bad base url", "ai:\n  base_url: \"not a url\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("QUIZ_CONFIG_FILE", createTempConfigFile(t, tt.yaml))
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}

func TestNewConfig_LoadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AI_MODEL=gpt-from-dotenv\n"), 0o600))
	t.Setenv("QUIZ_CONFIG_FILE", "")
	t.Setenv("AI_MODEL", "")
	require.NoError(t, os.Unsetenv("AI_MODEL"))

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "gpt-from-dotenv", cfg.AI.Model)
}

func TestOverrideStructFromEnv_NestedStruct(t *testing.T) {
	type Inner struct {
		Name    string        `yaml:"name"`
		Timeout time.Duration `yaml:"timeout"`
	}
	type Outer struct {
		Inner Inner `yaml:"inner"`
		Count int   `yaml:"count,omitempty"`
		Skip  string
	}

	t.Setenv("INNER_NAME", "nested")
	t.Setenv("INNER_TIMEOUT", "3s")
	t.Setenv("COUNT", "7")
	t.Setenv("SKIP", "ignored")

	var o Outer
	overrideStructFromEnv(&o)

	assert.Equal(t, "nested", o.Inner.Name)
	assert.Equal(t, 3*time.Second, o.Inner.Timeout)
	assert.Equal(t, 7, o.Count)
	assert.Empty(t, o.Skip)
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
