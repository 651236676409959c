package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/store"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/utils"
)

// Chapter count bounds accepted by the pipeline.
const (
	MinChapters = 3
	MaxChapters = 15
)

// ErrInvalidChapterCount is returned before any remote call is made.
var ErrInvalidChapterCount = fmt.Errorf("chapter count must be between %d and %d", MinChapters, MaxChapters)

// ErrMissingInput is returned when neither keywords nor an overview is given.
var ErrMissingInput = errors.New("either keywords or overview is required")

const fallbackTitle = "Untitled Book"

// BookResult reports where a finished book was stored.
type BookResult struct {
	Slug  string
	Title string
}

// BookService drives the book pipeline: overview, outline, parallel chapter
// generation, assembly and persistence. Any stage failure aborts the run;
// nothing from a failed run is persisted.
type BookService struct {
	gen          *GenerationService
	contentStore store.Store
}

func NewBookService(gen *GenerationService, contentStore store.Store) *BookService {
	return &BookService{
		gen:          gen,
		contentStore: contentStore,
	}
}

// BuildBook runs the full pipeline for the request and persists the three
// book records under the derived slug.
func (s *BookService) BuildBook(ctx context.Context, req *models.CreateBookRequest) (*BookResult, error) {
	if err := ValidateChapterCount(req.Chapters); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Overview) == "" && strings.TrimSpace(req.Keywords) == "" {
		return nil, ErrMissingInput
	}

	// Stage: overview (skipped when the caller supplies one).
	overview := strings.TrimSpace(req.Overview)
	if overview == "" {
		generated, err := s.gen.GenerateOverview(ctx, req.Keywords)
		if err != nil {
			return nil, err
		}
		overview = generated
	}

	// Stage: outline.
	outline, err := s.gen.GenerateOutline(ctx, overview, req.Chapters)
	if err != nil {
		return nil, err
	}

	// Stage: chapters, fanned out in parallel. The plain errgroup (no
	// derived context) keeps join-all semantics: a failed chapter does not
	// cancel its in-flight siblings, the group settles and then reports.
	chapters := make([]string, len(outline))
	var g errgroup.Group
	for i, entry := range outline {
		i, entry := i, entry
		g.Go(func() error {
			text, err := s.gen.GenerateChapter(ctx, overview, entry, i+1, len(outline))
			if err != nil {
				return err
			}
			chapters[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Stage: assemble and persist.
	title, document := AssembleBook(overview, outline, chapters)
	slug := utils.SlugFromTitleOrKeywords(title, req.Keywords)
	if slug == "" {
		return nil, errors.New("could not derive a slug from the title or keywords")
	}

	if err := s.persist(ctx, slug, overview, outline, document); err != nil {
		return nil, err
	}

	logrus.Infof("Book pipeline completed: slug=%s chapters=%d", slug, len(outline))
	return &BookResult{Slug: slug, Title: title}, nil
}

// AssemblePersist stores a book assembled from already-generated stage
// outputs (the stepwise flow, where each stage was fetched separately).
func (s *BookService) AssemblePersist(ctx context.Context, req *models.AssembleBookRequest) (*BookResult, error) {
	if len(req.Outline) == 0 || len(req.Outline) != len(req.Chapters) {
		return nil, fmt.Errorf("outline and chapters must be non-empty and the same length")
	}

	title, document := AssembleBook(req.Overview, req.Outline, req.Chapters)
	slug := utils.SlugFromTitleOrKeywords(title, req.Keywords)
	if slug == "" {
		return nil, errors.New("could not derive a slug from the title or keywords")
	}
	if err := s.persist(ctx, slug, req.Overview, req.Outline, document); err != nil {
		return nil, err
	}
	return &BookResult{Slug: slug, Title: title}, nil
}

// persist writes the three book records. The writes are sequential and
// non-transactional; the store contract offers nothing stronger.
func (s *BookService) persist(ctx context.Context, slug, overview string, outline []models.ChapterMeta, document string) error {
	serialized, err := json.Marshal(outline)
	if err != nil {
		return fmt.Errorf("failed to serialize outline: %w", err)
	}
	if err := s.contentStore.Set(ctx, store.Key(store.PrefixBookOverview, slug), overview); err != nil {
		return fmt.Errorf("failed to store overview: %w", err)
	}
	if err := s.contentStore.Set(ctx, store.Key(store.PrefixBookOutline, slug), string(serialized)); err != nil {
		return fmt.Errorf("failed to store outline: %w", err)
	}
	if err := s.contentStore.Set(ctx, store.Key(store.PrefixBookFull, slug), document); err != nil {
		return fmt.Errorf("failed to store book: %w", err)
	}
	return nil
}

// AssembleBook concatenates the final document: a top-level heading from the
// first outline entry's title (or a generic placeholder), an overview
// section, then one section per chapter in outline order, each opened by a
// chapter heading with its synopsis as an epigraph.
func AssembleBook(overview string, outline []models.ChapterMeta, chapters []string) (title, document string) {
	title = fallbackTitle
	if len(outline) > 0 && strings.TrimSpace(outline[0].Title) != "" {
		title = strings.TrimSpace(outline[0].Title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "## Overview\n\n%s\n\n", strings.TrimSpace(overview))
	for i, entry := range outline {
		fmt.Fprintf(&b, "## Chapter %d: %s\n\n", i+1, entry.Title)
		if strings.TrimSpace(entry.Synopsis) != "" {
			fmt.Fprintf(&b, "*%s*\n\n", strings.TrimSpace(entry.Synopsis))
		}
		if i < len(chapters) {
			fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(chapters[i]))
		}
	}
	return title, strings.TrimSpace(b.String()) + "\n"
}

// ValidateChapterCount rejects counts outside [MinChapters, MaxChapters]
// before any remote call is made.
func ValidateChapterCount(n int) error {
	if n < MinChapters || n > MaxChapters {
		return ErrInvalidChapterCount
	}
	return nil
}
