package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/llm"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/store"
)

func TestCreateDocumentPersistsBothRecords(t *testing.T) {
	contentStore := store.NewMemoryStore()
	svc := NewDocumentService(NewGenerationService(fixedReply(
		"# Field Notes on Lichen\n\nLichen are everywhere once you start looking.")), contentStore)

	slug, err := svc.CreateDocument(context.Background(), "a short guide to lichen")
	require.NoError(t, err)
	assert.Equal(t, "field-notes-on-lichen", slug)

	ctx := context.Background()
	overview, err := contentStore.Get(ctx, "overview:field-notes-on-lichen")
	require.NoError(t, err)
	assert.Equal(t, "a short guide to lichen", overview)

	document, err := contentStore.Get(ctx, "content:field-notes-on-lichen")
	require.NoError(t, err)
	assert.Contains(t, document, "once you start looking")
}

func TestCreateDocumentPropagatesGenerationFailure(t *testing.T) {
	contentStore := store.NewMemoryStore()
	svc := NewDocumentService(NewGenerationService(&fakeCaller{fn: func([]llm.Message) (string, error) {
		return "", llm.ErrExhausted
	}}), contentStore)

	_, err := svc.CreateDocument(context.Background(), "anything")
	assert.ErrorIs(t, err, llm.ErrExhausted)

	keys, err := contentStore.Keys(context.Background(), "*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestDocumentTitleHandling(t *testing.T) {
	assert.Equal(t, "A Title", documentTitle("\n\n## A Title\nBody"))
	assert.Equal(t, "", documentTitle("   \n\n"))
}
