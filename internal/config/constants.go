package config

import "time"

// Defaults
const (
	DefaultPort            = "5000"
	DefaultSessionSecret   = "devops-quiz-secret-key"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultAnthropicModel  = "claude-3-5-haiku-latest"
	DefaultAPIKeyParameter = "/devops-quiz/openai-api-key"
	DefaultAIMaxTokens     = 1024
	DefaultMaxAIConcurrent = 10
	DefaultMaxAIPerSession = 1
)

// Timeout constants
const (
	// HTTP timeouts
	AIRequestTimeout     = 2 * time.Minute
	AIClientTimeoutSlack = 5 * time.Second
	AIShutdownTimeout    = 30 * time.Second
	ServerReadTimeout    = 15 * time.Second
	ShutdownTimeout      = 30 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days
)

// Session configuration constants
const (
	SessionPath     = "/"
	SessionHTTPOnly = true

	// Session name
	SessionName = "devops-quiz-session"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self'; script-src 'self'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none';"
)

// AI service constants
const (
	// Polling intervals
	AIShutdownPollInterval = 100 * time.Millisecond
)
