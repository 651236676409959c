package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/llm"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/store"
)

// stageCaller dispatches on the stage prompt so one fake can serve a whole
// pipeline run. It is safe for the parallel chapter fan-out.
type stageCaller struct {
	mu       sync.Mutex
	overview string
	outline  string
	chapter  func(index int) (string, error)
	calls    []string
}

func (f *stageCaller) Complete(_ context.Context, messages []llm.Message, _ int, _ float64) (string, error) {
	user := messages[len(messages)-1].Content

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.Contains(user, "back-cover style overview"):
		f.calls = append(f.calls, "overview")
		return f.overview, nil
	case strings.Contains(user, "chapter outline"):
		f.calls = append(f.calls, "outline")
		return f.outline, nil
	case strings.Contains(user, "You are writing chapter"):
		var index, total int
		if _, err := fmt.Sscanf(user, "You are writing chapter %d of %d", &index, &total); err != nil {
			return "", fmt.Errorf("unexpected chapter prompt: %q", user)
		}
		f.calls = append(f.calls, fmt.Sprintf("chapter-%d", index))
		return f.chapter(index)
	}
	return "", fmt.Errorf("unexpected prompt: %q", user)
}

func threeChapterOutline() string {
	return `Here you go:

[
  {"title": "The Mycelial Economy", "synopsis": "Fungi as quiet infrastructure."},
  {"title": "Rot and Renewal", "synopsis": "Decay as a design principle."},
  {"title": "Growing Forward", "synopsis": "What a fungal future looks like."}
]`
}

func TestBuildBookHappyPath(t *testing.T) {
	caller := &stageCaller{
		overview: "A book about what fungi can teach us about sustainability.",
		outline:  threeChapterOutline(),
		chapter: func(index int) (string, error) {
			return fmt.Sprintf("Body of chapter %d.", index), nil
		},
	}
	contentStore := store.NewMemoryStore()
	svc := NewBookService(NewGenerationService(caller), contentStore)

	result, err := svc.BuildBook(context.Background(), &models.CreateBookRequest{
		Keywords: "fungi, sustainability",
		Chapters: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "the-mycelial-economy", result.Slug)
	assert.Equal(t, "The Mycelial Economy", result.Title)

	ctx := context.Background()

	overview, err := contentStore.Get(ctx, "book-overview:the-mycelial-economy")
	require.NoError(t, err)
	assert.Equal(t, caller.overview, overview)

	rawOutline, err := contentStore.Get(ctx, "book-outline:the-mycelial-economy")
	require.NoError(t, err)
	var outline []models.ChapterMeta
	require.NoError(t, json.Unmarshal([]byte(rawOutline), &outline))
	require.Len(t, outline, 3)
	assert.Equal(t, "Rot and Renewal", outline[1].Title)

	document, err := contentStore.Get(ctx, "book-full:the-mycelial-economy")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(document, "# The Mycelial Economy\n"))
	assert.Contains(t, document, "## Overview\n")
	// Chapter sections appear in outline order regardless of which
	// goroutine finished first.
	first := strings.Index(document, "## Chapter 1: The Mycelial Economy")
	second := strings.Index(document, "## Chapter 2: Rot and Renewal")
	third := strings.Index(document, "## Chapter 3: Growing Forward")
	require.True(t, first >= 0 && second >= 0 && third >= 0)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.Contains(t, document, "Body of chapter 2.")
}

func TestBuildBookSkipsOverviewStageWhenProvided(t *testing.T) {
	caller := &stageCaller{
		outline: threeChapterOutline(),
		chapter: func(index int) (string, error) {
			return fmt.Sprintf("Body of chapter %d.", index), nil
		},
	}
	svc := NewBookService(NewGenerationService(caller), store.NewMemoryStore())

	_, err := svc.BuildBook(context.Background(), &models.CreateBookRequest{
		Overview: "An overview the caller already has.",
		Chapters: 3,
	})
	require.NoError(t, err)
	assert.NotContains(t, caller.calls, "overview")
	assert.Contains(t, caller.calls, "outline")
}

func TestBuildBookChapterFailurePersistsNothing(t *testing.T) {
	caller := &stageCaller{
		overview: "An overview.",
		outline:  threeChapterOutline(),
		chapter: func(index int) (string, error) {
			if index == 2 {
				return "", fmt.Errorf("calling model: %w", llm.ErrExhausted)
			}
			return fmt.Sprintf("Body of chapter %d.", index), nil
		},
	}
	contentStore := store.NewMemoryStore()
	svc := NewBookService(NewGenerationService(caller), contentStore)

	_, err := svc.BuildBook(context.Background(), &models.CreateBookRequest{
		Keywords: "fungi",
		Chapters: 3,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrExhausted)

	keys, err := contentStore.Keys(context.Background(), "*")
	require.NoError(t, err)
	assert.Empty(t, keys)
	// The failed chapter does not cancel its siblings; all three ran.
	assert.Contains(t, caller.calls, "chapter-1")
	assert.Contains(t, caller.calls, "chapter-3")
}

func TestBuildBookRejectsChapterCount(t *testing.T) {
	svc := NewBookService(NewGenerationService(&stageCaller{}), store.NewMemoryStore())

	for _, n := range []int{0, 2, 16, -1} {
		_, err := svc.BuildBook(context.Background(), &models.CreateBookRequest{
			Keywords: "fungi",
			Chapters: n,
		})
		assert.ErrorIs(t, err, ErrInvalidChapterCount, "chapters=%d", n)
	}
}

func TestBuildBookRequiresInput(t *testing.T) {
	svc := NewBookService(NewGenerationService(&stageCaller{}), store.NewMemoryStore())

	_, err := svc.BuildBook(context.Background(), &models.CreateBookRequest{Chapters: 3})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestAssembleBookFormat(t *testing.T) {
	outline := []models.ChapterMeta{
		{Title: "First Steps", Synopsis: "Getting started."},
		{Title: "Deep Water", Synopsis: ""},
	}
	title, document := AssembleBook("The overview.", outline, []string{"One.", "Two."})

	assert.Equal(t, "First Steps", title)
	want := "# First Steps\n\n" +
		"## Overview\n\nThe overview.\n\n" +
		"## Chapter 1: First Steps\n\n*Getting started.*\n\nOne.\n\n" +
		"## Chapter 2: Deep Water\n\nTwo.\n"
	assert.Equal(t, want, document)
}

func TestAssembleBookFallsBackToUntitled(t *testing.T) {
	title, document := AssembleBook("Overview.", []models.ChapterMeta{{Title: "  "}}, []string{"Text."})
	assert.Equal(t, "Untitled Book", title)
	assert.True(t, strings.HasPrefix(document, "# Untitled Book\n"))
}

func TestAssemblePersistRejectsLengthMismatch(t *testing.T) {
	svc := NewBookService(NewGenerationService(&stageCaller{}), store.NewMemoryStore())

	_, err := svc.AssemblePersist(context.Background(), &models.AssembleBookRequest{
		Overview: "Overview.",
		Outline:  []models.ChapterMeta{{Title: "A"}, {Title: "B"}},
		Chapters: []string{"only one"},
	})
	assert.Error(t, err)
}

func TestAssemblePersistStoresRecords(t *testing.T) {
	contentStore := store.NewMemoryStore()
	svc := NewBookService(NewGenerationService(&stageCaller{}), contentStore)

	result, err := svc.AssemblePersist(context.Background(), &models.AssembleBookRequest{
		Overview: "Overview.",
		Outline:  []models.ChapterMeta{{Title: "Signal"}, {Title: "Noise"}, {Title: "Silence"}},
		Chapters: []string{"One.", "Two.", "Three."},
	})
	require.NoError(t, err)
	assert.Equal(t, "signal", result.Slug)

	keys, err := contentStore.Keys(context.Background(), "book-*")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestValidateChapterCount(t *testing.T) {
	assert.NoError(t, ValidateChapterCount(MinChapters))
	assert.NoError(t, ValidateChapterCount(MaxChapters))
	assert.ErrorIs(t, ValidateChapterCount(MinChapters-1), ErrInvalidChapterCount)
	assert.ErrorIs(t, ValidateChapterCount(MaxChapters+1), ErrInvalidChapterCount)
}
