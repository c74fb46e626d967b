package database

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/kdimtricp/medannotate/internal/models"
)

// SeedText is one candidate in a seed file. Confidence may be omitted for items the
// model has not scored yet.
type SeedText struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Task       string   `json:"task"`
	Confidence *float64 `json:"confidence"`
}

// Seed loads a JSON array of SeedText and stores it in one batch. It returns the
// number of rows written.
func (r *MedicalTextRepository) Seed(ctx context.Context, src io.Reader) (int, error) {
	var seeds []SeedText
	if err := json.NewDecoder(src).Decode(&seeds); err != nil {
		return 0, fmt.Errorf("failed to decode seed data: %w", err)
	}

	now := time.Now().UTC()
	texts := make([]*models.MedicalText, 0, len(seeds))
	for i, seed := range seeds {
		if seed.Text == "" || seed.Task == "" {
			return 0, fmt.Errorf("seed record %d: text and task are required", i)
		}
		if seed.Confidence != nil && (*seed.Confidence < 0 || *seed.Confidence > 1) {
			return 0, fmt.Errorf("seed record %d: confidence %v outside [0,1]", i, *seed.Confidence)
		}
		id := seed.ID
		if id == "" {
			id = uuid.New().String()
		}
		texts = append(texts, &models.MedicalText{
			ID:         id,
			Text:       seed.Text,
			Task:       seed.Task,
			Confidence: seed.Confidence,
			// Keep file order for equal confidences.
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
			UpdatedAt: now,
		})
	}

	if len(texts) == 0 {
		return 0, nil
	}
	if err := r.CreateBatch(ctx, texts); err != nil {
		return 0, err
	}
	return len(texts), nil
}
