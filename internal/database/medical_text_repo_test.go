package database

import (
	"context"
	"testing"
	"time"

	"github.com/kdimtricp/medannotate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTexts(t *testing.T, repo *MedicalTextRepository, confidences ...float64) []*models.MedicalText {
	t.Helper()

	var texts []*models.MedicalText
	for _, c := range confidences {
		text := models.NewMedicalText("sample text", "ner", c)
		require.NoError(t, repo.Create(context.Background(), text))
		texts = append(texts, text)
	}
	return texts
}

func candidateIDs(texts []models.MedicalText) []string {
	ids := make([]string, 0, len(texts))
	for _, text := range texts {
		ids = append(ids, text.ID)
	}
	return ids
}

func TestMedicalTextRepository_ListCandidates(t *testing.T) {
	repo := NewMedicalTextRepository(setupTestDB(t))
	seeded := seedTexts(t, repo, 0.3, 0.5, 0.7)

	texts, err := repo.ListCandidates(context.Background(), 0.6, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{seeded[0].ID, seeded[1].ID}, candidateIDs(texts))
}

func TestMedicalTextRepository_ListCandidates_Ordering(t *testing.T) {
	repo := NewMedicalTextRepository(setupTestDB(t))
	seeded := seedTexts(t, repo, 0.5, 0.1, 0.4)

	texts, err := repo.ListCandidates(context.Background(), 1.0, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{seeded[1].ID, seeded[2].ID, seeded[0].ID}, candidateIDs(texts))
}

func TestMedicalTextRepository_ListCandidates_Limit(t *testing.T) {
	repo := NewMedicalTextRepository(setupTestDB(t))
	seeded := seedTexts(t, repo, 0.2, 0.1, 0.3)

	texts, err := repo.ListCandidates(context.Background(), 0.6, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{seeded[1].ID, seeded[0].ID}, candidateIDs(texts))
}

func TestMedicalTextRepository_ListCandidates_SkipsUnscored(t *testing.T) {
	repo := NewMedicalTextRepository(setupTestDB(t))

	now := time.Now().UTC()
	unscored := &models.MedicalText{ID: "unscored", Text: "x", Task: "ner", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(context.Background(), unscored))

	texts, err := repo.ListCandidates(context.Background(), 1.0, 0)
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestMedicalTextRepository_ListCandidates_Empty(t *testing.T) {
	repo := NewMedicalTextRepository(setupTestDB(t))

	texts, err := repo.ListCandidates(context.Background(), 0.6, 10)
	require.NoError(t, err)
	assert.NotNil(t, texts)
	assert.Empty(t, texts)
}

func TestMedicalTextRepository_CreateBatch(t *testing.T) {
	repo := NewMedicalTextRepository(setupTestDB(t))
	ctx := context.Background()

	batch := []*models.MedicalText{
		models.NewAnnotatedText("first", "ner", "", "", 3, 0.4),
		models.NewAnnotatedText("second", "ner", "", "", 5, 0.9),
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	stored, err := repo.GetByID(ctx, batch[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "second", stored.Text)
	assert.Equal(t, 1.0, *stored.Confidence)
	assert.Equal(t, 5, *stored.AnnotateTime)
}

func TestMedicalTextRepository_CreateBatch_RollsBack(t *testing.T) {
	repo := NewMedicalTextRepository(setupTestDB(t))
	ctx := context.Background()

	dup := models.NewMedicalText("dup", "ner", 0.2)
	clone := *dup
	err := repo.CreateBatch(ctx, []*models.MedicalText{dup, &clone})
	require.Error(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestMedicalTextRepository_GetByID_NotFound(t *testing.T) {
	repo := NewMedicalTextRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMedicalTextRepository_UpdateAnnotation(t *testing.T) {
	repo := NewMedicalTextRepository(setupTestDB(t))
	ctx := context.Background()
	original := seedTexts(t, repo, 0.2)[0]

	text := "corrected text"
	updated, err := repo.UpdateAnnotation(ctx, original.ID, AnnotationUpdate{
		Text:         &text,
		AnnotateTime: models.Int(17),
		Confidence:   models.Float(0.8),
	})
	require.NoError(t, err)

	assert.Equal(t, "corrected text", updated.Text)
	assert.Equal(t, "ner", updated.Task)
	assert.Equal(t, 17, *updated.AnnotateTime)
	assert.InDelta(t, 0.8, *updated.Confidence, 1e-9)
	assert.False(t, updated.UpdatedAt.Before(original.UpdatedAt))

	texts, err := repo.ListCandidates(ctx, 0.6, 0)
	require.NoError(t, err)
	assert.Empty(t, texts, "item above the threshold after update must not be a candidate")
}

func TestMedicalTextRepository_UpdateAnnotation_Partial(t *testing.T) {
	repo := NewMedicalTextRepository(setupTestDB(t))
	ctx := context.Background()
	original := seedTexts(t, repo, 0.2)[0]

	updated, err := repo.UpdateAnnotation(ctx, original.ID, AnnotationUpdate{AnnotateTime: models.Int(4)})
	require.NoError(t, err)

	assert.Equal(t, original.Text, updated.Text)
	assert.InDelta(t, 0.2, *updated.Confidence, 1e-9)
	assert.Equal(t, 4, *updated.AnnotateTime)
}

func TestMedicalTextRepository_UpdateAnnotation_NotFound(t *testing.T) {
	repo := NewMedicalTextRepository(setupTestDB(t))

	_, err := repo.UpdateAnnotation(context.Background(), "missing", AnnotationUpdate{Confidence: models.Float(0.5)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMedicalTextRepository_Postgres(t *testing.T) {
	repo := NewMedicalTextRepository(setupPostgresDB(t))
	ctx := context.Background()
	seeded := seedTexts(t, repo, 0.3, 0.5, 0.7)

	texts, err := repo.ListCandidates(ctx, 0.6, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[0].ID, seeded[1].ID}, candidateIDs(texts))

	updated, err := repo.UpdateAnnotation(ctx, seeded[0].ID, AnnotationUpdate{Confidence: models.Float(0.9)})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, *updated.Confidence, 1e-9)
}
