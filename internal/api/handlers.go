package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kdimtricp/medannotate/internal/database"
	"github.com/kdimtricp/medannotate/internal/models"
	"go.uber.org/zap"
)

// TextRepository is the persistence the handlers need.
type TextRepository interface {
	ListCandidates(ctx context.Context, threshold float64, limit int) ([]models.MedicalText, error)
	CreateBatch(ctx context.Context, texts []*models.MedicalText) error
	GetByID(ctx context.Context, id string) (*models.MedicalText, error)
	UpdateAnnotation(ctx context.Context, id string, update database.AnnotationUpdate) (*models.MedicalText, error)
}

type App struct {
	Repo   TextRepository
	Cache  *CandidateCache
	Logger *zap.Logger
}

func (app *App) logger() *zap.Logger {
	if app.Logger == nil {
		return zap.NewNop()
	}
	return app.Logger
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}
