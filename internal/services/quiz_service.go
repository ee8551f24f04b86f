package services

import (
	"context"

	"devopsquiz/internal/catalog"
	"devopsquiz/internal/models"
	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"

	"github.com/google/uuid"
)

// QuizServiceInterface defines the quiz flow used by the page handlers
type QuizServiceInterface interface {
	Catalog() *catalog.Catalog
	ApplySelection(state *models.QuizState, sel Selection)
	GenerateQuestion(ctx context.Context, state *models.QuizState) error
	SubmitAnswer(ctx context.Context, state *models.QuizState, answer string) (*models.Evaluation, error)
}

// Selection carries the selector fields of a form post. A nil field was not posted.
type Selection struct {
	Category   *string
	Subject    *string
	Difficulty *string
}

// QuizService ties the topic catalog to the AI service and mutates session state
type QuizService struct {
	catalog *catalog.Catalog
	ai      AIServiceInterface
	logger  *observability.Logger
	newID   func() string
}

// NewQuizService creates a new quiz service
func NewQuizService(cat *catalog.Catalog, ai AIServiceInterface, logger *observability.Logger) *QuizService {
	return &QuizService{
		catalog: cat,
		ai:      ai,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// Catalog returns the topic table
func (s *QuizService) Catalog() *catalog.Catalog {
	return s.catalog
}

// ApplySelection applies posted selector values in order: category, subject,
// difficulty. Values unknown to the catalog are stored as unset.
func (s *QuizService) ApplySelection(state *models.QuizState, sel Selection) {
	if sel.Category != nil {
		category := *sel.Category
		if !s.catalog.HasCategory(category) {
			category = ""
		}
		state.SelectCategory(category)
	}
	if sel.Subject != nil {
		subject := *sel.Subject
		if !s.catalog.HasSubject(state.Category, subject) {
			subject = ""
		}
		state.SelectSubject(subject)
	}
	if sel.Difficulty != nil {
		difficulty := *sel.Difficulty
		if !contextutils.IsValidDifficulty(difficulty) {
			difficulty = ""
		}
		state.SelectDifficulty(difficulty)
	}
}

// GenerateQuestion picks a keyword for the selected subject and stores a new
// question in state. state is left untouched when anything fails.
func (s *QuizService) GenerateQuestion(ctx context.Context, state *models.QuizState) (err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "generate_question",
		observability.AttributeCategory(state.Category),
		observability.AttributeSubject(state.Subject),
		observability.AttributeDifficulty(state.Difficulty),
		observability.AttributeSession(contextutils.SessionHashFromContext(ctx)),
	)
	defer observability.FinishSpan(span, &err)

	if !state.ReadyToGenerate() {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "category, subject and difficulty must be selected")
	}

	keyword, err := s.catalog.RandomKeyword(state.Category, state.Subject)
	if err != nil {
		return err
	}
	span.SetAttributes(observability.AttributeKeyword(keyword))

	question, err := s.ai.GenerateQuestion(ctx, state.Category, keyword, state.Difficulty)
	if err != nil {
		return err
	}

	id := s.newID()
	state.SetQuestion(id, keyword, question)
	span.SetAttributes(observability.AttributeQuestionID(id))

	s.logger.Info(ctx, "Generated question", map[string]interface{}{
		"question_id": id,
		"category":    state.Category,
		"subject":     state.Subject,
		"keyword":     keyword,
		"difficulty":  state.Difficulty,
	})
	return nil
}

// SubmitAnswer evaluates answer against the active question and stores the
// answer and feedback in state
func (s *QuizService) SubmitAnswer(ctx context.Context, state *models.QuizState, answer string) (result *models.Evaluation, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "submit_answer",
		observability.AttributeQuestionID(state.QuestionID),
		observability.AttributeDifficulty(state.Difficulty),
		observability.AttributeSession(contextutils.SessionHashFromContext(ctx)),
	)
	defer observability.FinishSpan(span, &err)

	if !state.HasQuestion() {
		return nil, contextutils.WrapError(contextutils.ErrNotFound, "no active question")
	}
	if contextutils.IsBlank(answer) {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "answer is empty")
	}

	evaluation, err := s.ai.EvaluateAnswer(ctx, state.Question, answer, state.Difficulty)
	if err != nil {
		return nil, err
	}

	state.RecordEvaluation(answer, evaluation.Text)

	fields := map[string]interface{}{
		"question_id": state.QuestionID,
		"difficulty":  state.Difficulty,
		"scored":      evaluation.Scored,
	}
	if evaluation.Scored {
		fields["score"] = evaluation.Score
	}
	s.logger.Info(ctx, "Evaluated answer", fields)
	return evaluation, nil
}
