package handlers

import (
	"net/http"
	"unicode/utf8"

	"devopsquiz/internal/models"
	"devopsquiz/internal/observability"
	"devopsquiz/internal/services"
	contextutils "devopsquiz/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Form actions
const (
	ActionGenerate = "generate"
	ActionReset    = "reset"
	ActionSubmit   = "submit"
	ActionAskAgain = "ask_again"
)

// Messages shown for incomplete forms
const (
	MsgSelectDifficulty = "Please select a difficulty before generating a question."
	MsgEnterAnswer      = "Please enter an answer before submitting."
	MsgAnswerTooLong    = "Please keep your answer under 2000 characters."
)

// MaxAnswerLength is the longest answer, in characters, sent for evaluation
const MaxAnswerLength = 2000

const pageTitle = "DevOps Interview Quiz"

// QuizHandler serves the selection page and the question page
type QuizHandler struct {
	quizService services.QuizServiceInterface
	logger      *observability.Logger
	transient   map[string]bool
}

// NewQuizHandler creates a new QuizHandler. sessionStore names the configured
// session store and decides which state fields are kept between requests.
func NewQuizHandler(quizService services.QuizServiceInterface, logger *observability.Logger, sessionStore string) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		logger:      logger,
		transient:   transientKeys(sessionStore),
	}
}

// loadSession reads the quiz state and drops stored selections the current
// catalog no longer knows
func (h *QuizHandler) loadSession(c *gin.Context) *quizSession {
	qs := loadQuizSession(c, h.transient)
	category, subject, difficulty := qs.State.Category, qs.State.Subject, qs.State.Difficulty
	h.quizService.ApplySelection(qs.State, services.Selection{
		Category:   &category,
		Subject:    &subject,
		Difficulty: &difficulty,
	})
	return qs
}

// Index handles GET and POST on "/": topic and difficulty selection and
// question generation
func (h *QuizHandler) Index(c *gin.Context) {
	qs := h.loadSession(c)
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "index",
		attribute.String("http.method", c.Request.Method),
		observability.AttributeSession(contextutils.SessionHashFromContext(c.Request.Context())),
	)
	defer span.End()

	feedback := qs.State.TakeFeedback()

	if c.Request.Method == http.MethodPost {
		action := c.PostForm("action")
		span.SetAttributes(attribute.String("quiz.action", action))

		if action == ActionReset {
			qs.State.ResetAll()
			h.saveAndRedirect(c, qs, "/")
			return
		}

		h.quizService.ApplySelection(qs.State, selectionFromForm(c))

		if action == ActionGenerate {
			switch {
			case qs.State.Difficulty == "":
				feedback = MsgSelectDifficulty
			case qs.State.Category != "" && qs.State.Subject != "":
				if err := h.quizService.GenerateQuestion(ctx, qs.State); err != nil {
					h.logger.Error(ctx, "Failed to generate question", err, map[string]interface{}{
						"category":   qs.State.Category,
						"subject":    qs.State.Subject,
						"difficulty": qs.State.Difficulty,
					})
					HandleAppError(c, err)
					return
				}
				h.saveAndRedirect(c, qs, "/question")
				return
			}
		}
	}

	var subjects []string
	if qs.State.Category != "" {
		var err error
		if subjects, err = h.quizService.Catalog().Subjects(qs.State.Category); err != nil {
			HandleAppError(c, err)
			return
		}
	}

	if err := qs.Save(); err != nil {
		HandleAppError(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":             pageTitle,
		"categories":        h.quizService.Catalog().Categories(),
		"subjects":          subjects,
		"selected_category": qs.State.Category,
		"selected_subject":  qs.State.Subject,
		"difficulty":        qs.State.Difficulty,
		"difficulties":      models.DifficultyOptions(),
		"feedback":          feedback,
	})
}

// Question handles GET and POST on "/question": answer submission and the
// ask-again and reset actions
func (h *QuizHandler) Question(c *gin.Context) {
	qs := h.loadSession(c)
	if !qs.State.HasQuestion() {
		h.saveAndRedirect(c, qs, "/")
		return
	}

	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "question",
		attribute.String("http.method", c.Request.Method),
		observability.AttributeQuestionID(qs.State.QuestionID),
		observability.AttributeSession(contextutils.SessionHashFromContext(c.Request.Context())),
	)
	defer span.End()

	var message string
	var evaluated bool
	if c.Request.Method == http.MethodPost {
		action := c.PostForm("action")
		span.SetAttributes(attribute.String("quiz.action", action))

		switch action {
		case ActionSubmit:
			answer := c.PostForm("answer")
			if contextutils.IsBlank(answer) {
				message = MsgEnterAnswer
				break
			}
			if utf8.RuneCountInString(answer) > MaxAnswerLength {
				message = MsgAnswerTooLong
				break
			}
			if _, err := h.quizService.SubmitAnswer(ctx, qs.State, answer); err != nil {
				h.logger.Error(ctx, "Failed to evaluate answer", err, map[string]interface{}{
					"question_id": qs.State.QuestionID,
				})
				HandleAppError(c, err)
				return
			}
			evaluated = true
		case ActionAskAgain:
			qs.State.ResetQuestion()
			h.saveAndRedirect(c, qs, "/")
			return
		case ActionReset:
			qs.State.ResetAll()
			h.saveAndRedirect(c, qs, "/")
			return
		}
	}

	// Stored feedback survives refreshes and wins over the validation message
	feedback := qs.State.Feedback
	if feedback == "" {
		feedback = message
	}

	if err := qs.Save(); err != nil {
		if !evaluated {
			HandleAppError(c, err)
			return
		}
		// Feedback is still shown when the session cannot hold it
		h.logger.Warn(ctx, "Failed to save evaluated answer", map[string]interface{}{
			"question_id": qs.State.QuestionID,
			"error":       err.Error(),
		})
	}
	c.HTML(http.StatusOK, "question.html", gin.H{
		"title":      pageTitle,
		"question":   qs.State.Question,
		"keyword":    qs.State.Keyword,
		"difficulty": qs.State.Difficulty,
		"answer":     qs.State.Answer,
		"feedback":   feedback,
	})
}

func (h *QuizHandler) saveAndRedirect(c *gin.Context, qs *quizSession, location string) {
	if err := qs.Save(); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
}

// selectionFromForm returns the selector fields that are present in the form
func selectionFromForm(c *gin.Context) services.Selection {
	var sel services.Selection
	if v, ok := c.GetPostForm("category"); ok {
		sel.Category = &v
	}
	if v, ok := c.GetPostForm("subject"); ok {
		sel.Subject = &v
	}
	if v, ok := c.GetPostForm("difficulty"); ok {
		sel.Difficulty = &v
	}
	return sel
}
