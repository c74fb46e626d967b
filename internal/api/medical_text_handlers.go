package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kdimtricp/medannotate/internal/database"
	"github.com/kdimtricp/medannotate/internal/models"
	"go.uber.org/zap"
)

const (
	defaultThreshold = 0.6
	maxBodySize      = 1 << 20
)

// ListCandidatesHandler serves GET /medical-text?confidenceThreshold=&numSamples=.
func (app *App) ListCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	threshold := defaultThreshold
	if raw := query.Get("confidenceThreshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			writeError(w, http.StatusBadRequest, "confidenceThreshold must be a number")
			return
		}
		threshold = v
	}

	limit := 0
	if raw := query.Get("numSamples"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "numSamples must be a non-negative integer")
			return
		}
		limit = v
	}

	if items, ok := app.Cache.Get(threshold, limit); ok {
		writeJSON(w, http.StatusOK, items)
		return
	}

	items, err := app.Repo.ListCandidates(r.Context(), threshold, limit)
	if err != nil {
		app.logger().Error("failed to list candidates", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch medical texts")
		return
	}
	app.Cache.Set(threshold, limit, items)

	writeJSON(w, http.StatusOK, items)
}

// CreateTextsHandler serves POST /medical-text with one record or an array of them.
func (app *App) CreateTextsHandler(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large")
		return
	}

	payloads, err := decodeOneOrMany(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	texts := make([]*models.MedicalText, 0, len(payloads))
	for i, payload := range payloads {
		text, err := parseCreatePayload(payload)
		if err != nil {
			if len(payloads) > 1 {
				err = fmt.Errorf("record %d: %w", i, err)
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		texts = append(texts, text)
	}

	if err := app.Repo.CreateBatch(r.Context(), texts); err != nil {
		app.logger().Error("failed to create medical texts", zap.Int("count", len(texts)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create medical texts")
		return
	}
	app.Cache.Flush()

	app.logger().Info("medical texts created", zap.Int("count", len(texts)))
	writeJSON(w, http.StatusCreated, texts)
}

func (app *App) GetTextHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	text, err := app.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "medical text not found")
			return
		}
		app.logger().Error("failed to get medical text", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch medical text")
		return
	}

	writeJSON(w, http.StatusOK, text)
}

// UpdateTextHandler serves PUT /medical-text/{id}. Omitted fields are left unchanged.
func (app *App) UpdateTextHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateTextRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Confidence != nil && (*req.Confidence < 0 || *req.Confidence > 1) {
		writeError(w, http.StatusBadRequest, "confidence must be between 0 and 1")
		return
	}
	if req.AnnotateTime != nil && *req.AnnotateTime < 0 {
		writeError(w, http.StatusBadRequest, "annotateTime must not be negative")
		return
	}

	updated, err := app.Repo.UpdateAnnotation(r.Context(), id, database.AnnotationUpdate{
		Text:         req.Text,
		AnnotateTime: req.AnnotateTime,
		Confidence:   req.Confidence,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "medical text not found")
			return
		}
		app.logger().Error("failed to update medical text", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update medical text")
		return
	}
	app.Cache.Flush()

	app.logger().Info("medical text updated", zap.String("id", id))
	writeJSON(w, http.StatusOK, updated)
}

// decodeOneOrMany accepts a JSON object or a non-empty array of objects.
func decodeOneOrMany(raw []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("request body is empty")
	}

	if trimmed[0] == '[' {
		var many []map[string]any
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return nil, errors.New("request body must be an object or an array of objects")
		}
		if len(many) == 0 {
			return nil, errors.New("no records to create")
		}
		return many, nil
	}

	var one map[string]any
	if err := json.Unmarshal(trimmed, &one); err != nil || one == nil {
		return nil, errors.New("request body must be an object or an array of objects")
	}
	return []map[string]any{one}, nil
}

// parseCreatePayload checks field types the way clients expect: text and task must be
// strings and performance a number in [0,1].
func parseCreatePayload(payload map[string]any) (*models.MedicalText, error) {
	text, ok := payload["text"].(string)
	if !ok {
		return nil, errors.New("text must be a string")
	}
	task, ok := payload["task"].(string)
	if !ok {
		return nil, errors.New("task must be a string")
	}
	performance, ok := payload["performance"].(float64)
	if !ok {
		return nil, errors.New("performance must be a number")
	}
	if math.IsNaN(performance) || performance < 0 || performance > 1 {
		return nil, errors.New("performance must be between 0 and 1")
	}

	annotator, err := optionalString(payload, "annotator")
	if err != nil {
		return nil, err
	}
	reason, err := optionalString(payload, "annotateReason")
	if err != nil {
		return nil, err
	}

	annotateTime := 0
	if v, present := payload["annotateTime"]; present && v != nil {
		n, ok := v.(float64)
		if !ok || n < 0 || n != math.Trunc(n) {
			return nil, errors.New("annotateTime must be a non-negative integer")
		}
		annotateTime = int(n)
	}

	return models.NewAnnotatedText(text, task, annotator, reason, annotateTime, performance), nil
}

func optionalString(payload map[string]any, key string) (string, error) {
	v, present := payload[key]
	if !present || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s, nil
}
