package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/store"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/utils"
)

// DocumentService is the single-shot flow: one brief in, one complete
// document out, persisted under overview: and content: keys.
type DocumentService struct {
	gen          *GenerationService
	contentStore store.Store
}

func NewDocumentService(gen *GenerationService, contentStore store.Store) *DocumentService {
	return &DocumentService{
		gen:          gen,
		contentStore: contentStore,
	}
}

// CreateDocument generates the document and persists it together with the
// brief that produced it.
func (s *DocumentService) CreateDocument(ctx context.Context, overview string) (string, error) {
	document, err := s.gen.GenerateDocument(ctx, overview)
	if err != nil {
		return "", err
	}

	slug := utils.SlugFromTitleOrKeywords(documentTitle(document), overview)
	if slug == "" {
		return "", errors.New("could not derive a slug for the document")
	}

	if err := s.contentStore.Set(ctx, store.Key(store.PrefixOverview, slug), overview); err != nil {
		return "", err
	}
	if err := s.contentStore.Set(ctx, store.Key(store.PrefixContent, slug), document); err != nil {
		return "", err
	}

	logrus.Infof("Document generated: slug=%s", slug)
	return slug, nil
}

// documentTitle takes the first non-empty line of the generated document,
// stripped of Markdown heading markers and clamped so overlong first lines
// do not produce unwieldy slugs.
func documentTitle(document string) string {
	for _, line := range strings.Split(document, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > 80 {
			return string(runes[:80])
		}
		return line
	}
	return ""
}
