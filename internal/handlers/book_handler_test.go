package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/llm"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/services"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/store"
)

type scriptedCaller struct {
	fn func(messages []llm.Message) (string, error)
}

func (s *scriptedCaller) Complete(_ context.Context, messages []llm.Message, _ int, _ float64) (string, error) {
	return s.fn(messages)
}

func newBookRouter(caller services.Caller, contentStore store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	gen := services.NewGenerationService(caller)
	h := NewBookHandler(gen, services.NewBookService(gen, contentStore), nil)
	r := gin.New()
	books := r.Group("/api/v1/books")
	books.POST("", h.CreateBook)
	books.POST("/overview", h.GenerateOverview)
	books.POST("/outline", h.GenerateOutline)
	books.POST("/jobs", h.CreateBookJob)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBookRejectsChapterCount(t *testing.T) {
	r := newBookRouter(&scriptedCaller{fn: func([]llm.Message) (string, error) {
		t.Error("no remote call expected for invalid input")
		return "", nil
	}}, store.NewMemoryStore())

	w := postJSON(r, "/api/v1/books", `{"keywords": "fungi", "chapters": 2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookMapsExhaustionToBadGateway(t *testing.T) {
	r := newBookRouter(&scriptedCaller{fn: func([]llm.Message) (string, error) {
		return "", llm.ErrExhausted
	}}, store.NewMemoryStore())

	w := postJSON(r, "/api/v1/books", `{"keywords": "fungi", "chapters": 3}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGenerateOutlineMapsMalformedReplyToBadGateway(t *testing.T) {
	r := newBookRouter(&scriptedCaller{fn: func([]llm.Message) (string, error) {
		return "no JSON in sight", nil
	}}, store.NewMemoryStore())

	w := postJSON(r, "/api/v1/books/outline", `{"overview": "A book.", "chapters": 3}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGenerateOverviewReturnsProse(t *testing.T) {
	r := newBookRouter(&scriptedCaller{fn: func([]llm.Message) (string, error) {
		return "A sweeping look at fungal networks.", nil
	}}, store.NewMemoryStore())

	w := postJSON(r, "/api/v1/books/overview", `{"keywords": "fungi, networks"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.GenerateOverviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "A sweeping look at fungal networks.", resp.Overview)
}

func TestCreateBookReturnsSlug(t *testing.T) {
	outline := `[
		{"title": "The Hidden Kingdom", "synopsis": "An introduction."},
		{"title": "Underground", "synopsis": "Networks below."},
		{"title": "Above the Soil", "synopsis": "What we see."}
	]`
	contentStore := store.NewMemoryStore()
	r := newBookRouter(&scriptedCaller{fn: func(messages []llm.Message) (string, error) {
		user := messages[len(messages)-1].Content
		switch {
		case strings.Contains(user, "back-cover style overview"):
			return "An overview.", nil
		case strings.Contains(user, "chapter outline"):
			return outline, nil
		default:
			return "Chapter prose.", nil
		}
	}}, contentStore)

	w := postJSON(r, "/api/v1/books", `{"keywords": "fungi", "chapters": 3}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.CreateBookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "the-hidden-kingdom", resp.Slug)
	assert.Equal(t, "The Hidden Kingdom", resp.Title)

	_, err := contentStore.Get(context.Background(), "book-full:the-hidden-kingdom")
	assert.NoError(t, err)
}

func TestCreateBookJobUnavailableWithoutQueue(t *testing.T) {
	r := newBookRouter(&scriptedCaller{fn: func([]llm.Message) (string, error) {
		return "", nil
	}}, store.NewMemoryStore())

	w := postJSON(r, "/api/v1/books/jobs", `{"keywords": "fungi", "chapters": 3}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
