package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/llm"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/utils"
)

// ErrMalformedOutline is returned when the outline reply contains no JSON
// array the extractor can recover, or an array of the wrong length. It is
// surfaced immediately; re-prompting is the caller's decision, not ours.
var ErrMalformedOutline = errors.New("outline reply is not a usable JSON array")

// Caller is the remote generation contract the stage generators run on.
// Satisfied by llm.Client; tests substitute a scripted fake.
type Caller interface {
	Complete(ctx context.Context, messages []llm.Message, maxTokens int, temperature float64) (string, error)
}

// Token and temperature budgets per stage.
const (
	overviewMaxTokens = 600
	overviewTemp      = 0.4

	outlineMaxTokens = 2000
	outlineTemp      = 0.3

	chapterMaxTokens = 8000
	chapterTemp      = 0.7

	documentMaxTokens = 8000
	documentTemp      = 0.6
)

// GenerationService layers the fixed stage prompts on the remote caller.
type GenerationService struct {
	caller Caller
}

func NewGenerationService(caller Caller) *GenerationService {
	return &GenerationService{caller: caller}
}

// GenerateOverview produces back-cover-style prose from comma-separated
// keywords.
func (s *GenerationService) GenerateOverview(ctx context.Context, keywords string) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: "You are an experienced book editor. You write vivid, concise back-cover copy."},
		{Role: "user", Content: fmt.Sprintf(
			"Write a back-cover style overview for a non-fiction book built around these keywords: %s. "+
				"Two or three paragraphs, no headings, no bullet points.", keywords)},
	}
	text, err := s.caller.Complete(ctx, messages, overviewMaxTokens, overviewTemp)
	if err != nil {
		return "", fmt.Errorf("overview stage: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// GenerateOutline asks for exactly chapters outline entries and recovers the
// JSON array embedded in the reply. The extracted array must have exactly
// the requested length; anything else is ErrMalformedOutline.
func (s *GenerationService) GenerateOutline(ctx context.Context, overview string, chapters int) ([]models.ChapterMeta, error) {
	messages := []llm.Message{
		{Role: "system", Content: "You are an experienced book editor. You answer with JSON when asked for JSON."},
		{Role: "user", Content: fmt.Sprintf(
			"Here is the overview of a book:\n\n%s\n\n"+
				"Produce a chapter outline with exactly %d chapters. "+
				"Reply with a JSON array of exactly %d objects, each of the form "+
				`{"title": "...", "synopsis": "..."}. No other fields.`,
			overview, chapters, chapters)},
	}
	text, err := s.caller.Complete(ctx, messages, outlineMaxTokens, outlineTemp)
	if err != nil {
		return nil, fmt.Errorf("outline stage: %w", err)
	}

	raw, _, ok := utils.FirstJSONValue(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON value in reply", ErrMalformedOutline)
	}
	var outline []models.ChapterMeta
	if err := json.Unmarshal([]byte(raw), &outline); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutline, err)
	}
	if len(outline) != chapters {
		return nil, fmt.Errorf("%w: got %d entries, want %d", ErrMalformedOutline, len(outline), chapters)
	}
	return outline, nil
}

// GenerateChapter produces the prose for a single outline entry. Chapters
// share no context beyond the overview, so they can run in parallel.
func (s *GenerationService) GenerateChapter(ctx context.Context, overview string, entry models.ChapterMeta, index, total int) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: "You are a skilled non-fiction author. You write engaging, well-structured long-form prose."},
		{Role: "user", Content: fmt.Sprintf(
			"You are writing chapter %d of %d of a book with this overview:\n\n%s\n\n"+
				"Chapter title: %s\nChapter synopsis: %s\n\n"+
				"Write the full chapter text. Do not repeat the title as a heading; start directly with the prose.",
			index, total, overview, entry.Title, entry.Synopsis)},
	}
	text, err := s.caller.Complete(ctx, messages, chapterMaxTokens, chapterTemp)
	if err != nil {
		return "", fmt.Errorf("chapter %d stage: %w", index, err)
	}
	return strings.TrimSpace(text), nil
}

// GenerateDocument produces a complete long-form document from one brief in
// a single call (the non-book "universal" flow).
func (s *GenerationService) GenerateDocument(ctx context.Context, overview string) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: "You are a skilled writer. You produce complete, well-structured documents in Markdown."},
		{Role: "user", Content: fmt.Sprintf(
			"Write a complete long-form document based on this brief:\n\n%s\n\n"+
				"Start with a single top-level Markdown heading that titles the document.", overview)},
	}
	text, err := s.caller.Complete(ctx, messages, documentMaxTokens, documentTemp)
	if err != nil {
		return "", fmt.Errorf("document stage: %w", err)
	}
	return strings.TrimSpace(text), nil
}
