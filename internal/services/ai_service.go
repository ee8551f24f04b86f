package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"devopsquiz/internal/config"
	"devopsquiz/internal/models"
	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// Usage types recorded for each completion call
const (
	UsageTypeQuestionGeneration = "question_generation"
	UsageTypeAnswerEvaluation   = "answer_evaluation"
)

// AIServiceInterface defines the interface for AI-backed question generation and evaluation
type AIServiceInterface interface {
	GenerateQuestion(ctx context.Context, category, keyword, difficulty string) (string, error)
	EvaluateAnswer(ctx context.Context, question, answer, difficulty string) (*models.Evaluation, error)
	GetConcurrencyStats() ConcurrencyStats
	Shutdown(ctx context.Context) error
}

// UsageRecorder receives one event per completion call
type UsageRecorder interface {
	Record(ctx context.Context, event UsageEvent) error
}

// ConcurrencyStats provides metrics about AI request concurrency
type ConcurrencyStats struct {
	ActiveRequests     int            `json:"active_requests"`
	MaxConcurrent      int            `json:"max_concurrent"`
	TotalRequests      int64          `json:"total_requests"`
	SessionActiveCount map[string]int `json:"session_active_count"`
	MaxPerSession      int            `json:"max_per_session"`
}

// AIService renders the interview prompts and forwards them to a Completer
type AIService struct {
	completer       Completer
	templateManager *AITemplateManager
	timeout         time.Duration

	usage   UsageRecorder
	metrics *observability.QuizMetrics
	logger  *observability.Logger

	// Concurrency control
	globalSemaphore chan struct{} // Limits total concurrent requests
	maxConcurrent   int
	maxPerSession   int

	sessionRequestCount map[string]int // Hashed session id -> active request count
	concurrencyMu       sync.Mutex

	totalRequests  int64
	activeRequests int
	statsMu        sync.RWMutex

	shuttingDown bool
	shutdownMu   sync.RWMutex
}

// NewAIService creates a new AI service instance. usage and metrics may be nil.
func NewAIService(cfg *config.Config, completer Completer, usage UsageRecorder, metrics *observability.QuizMetrics, logger *observability.Logger) (*AIService, error) {
	templateManager, err := NewAITemplateManager()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load prompt templates: %w", err)
	}

	maxConcurrent := cfg.Server.MaxAIConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = config.DefaultMaxAIConcurrent
	}
	maxPerSession := cfg.Server.MaxAIPerSession
	if maxPerSession <= 0 {
		maxPerSession = config.DefaultMaxAIPerSession
	}
	timeout := cfg.AI.Timeout
	if timeout <= 0 {
		timeout = config.AIRequestTimeout
	}

	return &AIService{
		completer:           completer,
		templateManager:     templateManager,
		timeout:             timeout,
		usage:               usage,
		metrics:             metrics,
		logger:              logger,
		globalSemaphore:     make(chan struct{}, maxConcurrent),
		maxConcurrent:       maxConcurrent,
		maxPerSession:       maxPerSession,
		sessionRequestCount: make(map[string]int),
	}, nil
}

// GenerateQuestion asks the model for one interview question about keyword within category
func (s *AIService) GenerateQuestion(ctx context.Context, category, keyword, difficulty string) (result string, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "GenerateQuestion",
		observability.AttributeCategory(category),
		observability.AttributeKeyword(keyword),
		attribute.String("quiz.difficulty", difficulty),
		observability.AttributeProvider(s.completer.Provider()),
		observability.AttributeModel(s.completer.Model()),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templateManager.QuestionPrompt(category, keyword, difficulty)
	if err != nil {
		return "", err
	}

	completion, err := s.complete(ctx, UsageTypeQuestionGeneration, prompt, nil)
	if err != nil {
		return "", err
	}

	s.metrics.RecordQuestion(ctx, category, difficulty)
	span.SetAttributes(attribute.Int("question.length", len(completion.Text)))
	return completion.Text, nil
}

// EvaluateAnswer asks the model to score answer against question at the given difficulty
func (s *AIService) EvaluateAnswer(ctx context.Context, question, answer, difficulty string) (result *models.Evaluation, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "EvaluateAnswer",
		attribute.String("quiz.difficulty", difficulty),
		attribute.Int("answer.length", len(answer)),
		observability.AttributeProvider(s.completer.Provider()),
		observability.AttributeModel(s.completer.Model()),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templateManager.EvaluationPrompt(question, answer, difficulty)
	if err != nil {
		return nil, err
	}

	var evaluation models.Evaluation
	_, err = s.complete(ctx, UsageTypeAnswerEvaluation, prompt, func(c *Completion) *int {
		evaluation = ParseEvaluation(c.Text)
		if evaluation.Scored {
			return &evaluation.Score
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEvaluation(ctx, difficulty, evaluation.Score, evaluation.Scored)
	span.SetAttributes(attribute.Bool("evaluation.scored", evaluation.Scored))
	if evaluation.Scored {
		span.SetAttributes(attribute.Int("evaluation.score", evaluation.Score))
	}
	return &evaluation, nil
}

// complete runs one completion under concurrency control and records metrics
// and usage. score extracts an optional score from a successful completion.
func (s *AIService) complete(ctx context.Context, usageType, prompt string, score func(*Completion) *int) (*Completion, error) {
	var completion *Completion
	err := s.withConcurrencyControl(ctx, contextutils.SessionHashFromContext(ctx), func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		start := time.Now()
		c, err := s.completer.Complete(callCtx, prompt)
		elapsed := time.Since(start)

		event := UsageEvent{
			Provider:  s.completer.Provider(),
			Model:     s.completer.Model(),
			UsageType: usageType,
			At:        start,
		}

		result := "success"
		switch {
		case err != nil:
			result = "error"
			event.Failed = true
		case c.Text == "":
			result = "empty"
			event.Failed = true
			err = contextutils.WrapError(contextutils.ErrAIResponseInvalid, "AI returned empty content")
		default:
			event.Model = c.Model
			event.PromptTokens = c.PromptTokens
			event.CompletionTokens = c.CompletionTokens
			if score != nil {
				event.Score = score(c)
			}
		}

		s.metrics.RecordAIRequest(ctx, usageType, s.completer.Provider(), result, elapsed)
		s.recordUsage(ctx, event)

		fields := map[string]interface{}{
			"usage_type": usageType,
			"provider":   s.completer.Provider(),
			"model":      event.Model,
			"duration":   elapsed.String(),
		}
		if err != nil {
			s.logger.Error(ctx, "AI request failed", err, fields)
			return err
		}
		fields["prompt_tokens"] = c.PromptTokens
		fields["completion_tokens"] = c.CompletionTokens
		s.logger.Info(ctx, "AI request completed", fields)

		completion = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completion, nil
}

func (s *AIService) recordUsage(ctx context.Context, event UsageEvent) {
	if s.usage == nil {
		return
	}
	// Usage stats are best effort; a failed write never fails the request.
	if err := s.usage.Record(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to record AI usage", map[string]interface{}{
			"error":      err.Error(),
			"usage_type": event.UsageType,
		})
	}
}

var (
	scorePattern    = regexp.MustCompile(`(?i)your\s+score\s*:\s*(\d{1,2})\s*/\s*10`)
	feedbackPattern = regexp.MustCompile(`(?is)feedback\s*:\s*(.*)`)
)

// ParseEvaluation extracts the "Your score: N/10" line and the feedback text
// from an evaluation. Scores outside 1..10 are treated as missing.
func ParseEvaluation(text string) models.Evaluation {
	evaluation := models.Evaluation{Text: text}

	if m := scorePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 10 {
			evaluation.Score = n
			evaluation.Scored = true
		}
	}
	if m := feedbackPattern.FindStringSubmatch(text); m != nil {
		evaluation.Feedback = strings.TrimSpace(m[1])
	}
	return evaluation
}

// GetConcurrencyStats returns current concurrency metrics
func (s *AIService) GetConcurrencyStats() ConcurrencyStats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	s.concurrencyMu.Lock()
	defer s.concurrencyMu.Unlock()

	sessionActive := make(map[string]int)
	for session, count := range s.sessionRequestCount {
		if count > 0 {
			sessionActive[session] = count
		}
	}

	return ConcurrencyStats{
		ActiveRequests:     s.activeRequests,
		MaxConcurrent:      s.maxConcurrent,
		TotalRequests:      s.totalRequests,
		SessionActiveCount: sessionActive,
		MaxPerSession:      s.maxPerSession,
	}
}

// Shutdown stops accepting new requests and waits for in-flight ones
func (s *AIService) Shutdown(ctx context.Context) error {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	timeout := config.AIShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ticker := time.NewTicker(config.AIShutdownPollInterval)
	defer ticker.Stop()

	for {
		s.statsMu.RLock()
		active := s.activeRequests
		s.statsMu.RUnlock()

		if active == 0 {
			s.logger.Info(ctx, "AI Service shutdown completed")
			return nil
		}

		select {
		case <-ticker.C:
		case <-timer.C:
			return s.shutdownIncomplete(ctx, active, context.DeadlineExceeded)
		case <-ctx.Done():
			return s.shutdownIncomplete(ctx, active, ctx.Err())
		}
	}
}

func (s *AIService) shutdownIncomplete(ctx context.Context, active int, cause error) error {
	s.logger.Warn(ctx, "AI Service shutdown timed out with requests still active", map[string]interface{}{
		"active_requests": active,
	})
	return contextutils.WrapErrorf(contextutils.ErrTimeout, "AI service shutdown left %d active requests: %w", active, cause)
}

func (s *AIService) isShutdown() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	return s.shuttingDown
}

// acquireGlobalSlot attempts to acquire a global concurrency slot without waiting
func (s *AIService) acquireGlobalSlot(ctx context.Context) error {
	select {
	case s.globalSemaphore <- struct{}{}:
		s.statsMu.Lock()
		s.activeRequests++
		s.statsMu.Unlock()
		return nil
	case <-ctx.Done():
		return contextutils.WrapErrorf(contextutils.ErrTimeout, "request cancelled while waiting for AI slot: %w", ctx.Err())
	default:
		return contextutils.WrapErrorf(contextutils.ErrServiceUnavailable, "AI service at capacity (%d concurrent requests)", s.maxConcurrent)
	}
}

func (s *AIService) releaseGlobalSlot(ctx context.Context) {
	select {
	case <-s.globalSemaphore:
		s.statsMu.Lock()
		if s.activeRequests > 0 {
			s.activeRequests--
		}
		s.statsMu.Unlock()
	default:
		s.logger.Warn(ctx, "Attempted to release global AI slot but none were acquired")
	}
}

// acquireSessionSlot enforces the per-session limit. Requests without a
// session hash share the global limit only.
func (s *AIService) acquireSessionSlot(session string) error {
	if session == "" {
		return nil
	}
	s.concurrencyMu.Lock()
	defer s.concurrencyMu.Unlock()

	current := s.sessionRequestCount[session]
	if current >= s.maxPerSession {
		return contextutils.WrapErrorf(contextutils.ErrRateLimit, "session concurrency limit exceeded: %d/%d", current, s.maxPerSession)
	}
	s.sessionRequestCount[session] = current + 1
	return nil
}

func (s *AIService) releaseSessionSlot(session string) {
	if session == "" {
		return
	}
	s.concurrencyMu.Lock()
	defer s.concurrencyMu.Unlock()

	if s.sessionRequestCount[session] <= 1 {
		delete(s.sessionRequestCount, session)
		return
	}
	s.sessionRequestCount[session]--
}

// withConcurrencyControl wraps an AI operation with the global and per-session limits
func (s *AIService) withConcurrencyControl(ctx context.Context, session string, operation func() error) error {
	if s.isShutdown() {
		return contextutils.WrapError(contextutils.ErrServiceUnavailable, "AI service is shutting down")
	}

	s.statsMu.Lock()
	s.totalRequests++
	s.statsMu.Unlock()

	if err := s.acquireSessionSlot(session); err != nil {
		return err
	}
	defer s.releaseSessionSlot(session)

	if err := s.acquireGlobalSlot(ctx); err != nil {
		return err
	}
	defer s.releaseGlobalSlot(ctx)

	return operation()
}
