package handlers

import (
	"crypto/sha256"
	"database/sql"
	"io"
	"net/http"

	"devopsquiz/internal/config"
	"devopsquiz/internal/models"
	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-contrib/sessions/postgres"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// sessionIDKey holds a random id so every store, including the cookie store,
// has something stable to hash for logs and the per-session AI limit
const sessionIDKey = "sid"

const (
	sessionHashKeyInfo  = "devops-quiz session authentication"
	sessionBlockKeyInfo = "devops-quiz session encryption"
)

// DeriveSessionKeys expands the configured secret into an HMAC key and an
// AES-256 key for the session store
func DeriveSessionKeys(secret string) (hashKey, blockKey []byte, err error) {
	if secret == "" {
		return nil, nil, contextutils.WrapError(contextutils.ErrMissingRequired, "session secret is empty")
	}

	hashKey = make([]byte, 64)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(sessionHashKeyInfo)), hashKey); err != nil {
		return nil, nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to derive session hash key: %w", err)
	}
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(sessionBlockKeyInfo)), blockKey); err != nil {
		return nil, nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to derive session block key: %w", err)
	}
	return hashKey, blockKey, nil
}

// NewSessionStore builds the store selected by cfg.Session.Store. db is only
// used by the postgres store.
func NewSessionStore(cfg *config.Config, db *sql.DB) (sessions.Store, error) {
	hashKey, blockKey, err := DeriveSessionKeys(cfg.Server.SessionSecret)
	if err != nil {
		return nil, err
	}

	var store sessions.Store
	switch cfg.Session.Store {
	case config.SessionStoreCookie:
		store = cookie.NewStore(hashKey, blockKey)
	case config.SessionStorePostgres:
		if db == nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseConnection, "postgres session store needs a database")
		}
		store, err = postgres.NewStore(db, hashKey, blockKey)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrDatabaseConnection, "failed to create postgres session store: %w", err)
		}
	case config.SessionStoreMemory, "":
		store = memstore.NewStore(hashKey, blockKey)
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown session store %q", cfg.Session.Store)
	}

	store.Options(sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(cfg.Session.MaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func stateFields(state *models.QuizState) map[string]*string {
	return map[string]*string{
		models.KeySelectedCategory: &state.Category,
		models.KeySelectedSubject:  &state.Subject,
		models.KeyDifficulty:       &state.Difficulty,
		models.KeyKeyword:          &state.Keyword,
		models.KeyQuestion:         &state.Question,
		models.KeyAnswer:           &state.Answer,
		models.KeyFeedback:         &state.Feedback,
		models.KeyQuestionID:       &state.QuestionID,
	}
}

// transientKeys returns the state keys that the given store does not persist.
// Cookie sessions are capped at about 4 KB, so the submitted answer is only
// kept for the response that evaluates it.
func transientKeys(store string) map[string]bool {
	if store == config.SessionStoreCookie {
		return map[string]bool{models.KeyAnswer: true}
	}
	return nil
}

// quizSession binds a gin session to the quiz state it carries
type quizSession struct {
	session   sessions.Session
	transient map[string]bool
	State     *models.QuizState
}

// loadQuizSession reads the quiz state of the current request and publishes
// the hashed session id on the gin context and the request context
func loadQuizSession(c *gin.Context, transient map[string]bool) *quizSession {
	session := sessions.Default(c)

	id, _ := session.Get(sessionIDKey).(string)
	if id == "" {
		id = uuid.NewString()
		session.Set(sessionIDKey, id)
	}
	hashed := contextutils.HashIdentifier(id)
	c.Set(observability.SessionHashKey, hashed)
	c.Request = c.Request.WithContext(contextutils.WithSessionHash(c.Request.Context(), hashed))

	state := &models.QuizState{}
	for key, field := range stateFields(state) {
		if v, ok := session.Get(key).(string); ok {
			*field = v
		}
	}
	return &quizSession{session: session, transient: transient, State: state}
}

// Save writes the quiz state back. Unset and transient fields are removed
// from the session.
func (qs *quizSession) Save() error {
	for key, field := range stateFields(qs.State) {
		if *field == "" || qs.transient[key] {
			qs.session.Delete(key)
			continue
		}
		qs.session.Set(key, *field)
	}
	if err := qs.session.Save(); err != nil {
		return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to save session: %w", err)
	}
	return nil
}
