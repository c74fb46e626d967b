package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kdimtricp/medannotate/internal/annotation"
	"github.com/kdimtricp/medannotate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", 2*time.Second, nil)
}

func TestFetchCandidatesSendsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/medical-text", r.URL.Path)
		assert.Equal(t, "0.45", r.URL.Query().Get("confidenceThreshold"))
		assert.Equal(t, "3", r.URL.Query().Get("numSamples"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.MedicalText{
			{ID: "a", Text: "t", Task: "k", Confidence: models.Float(0.2)},
		})
	})

	items, err := client.FetchCandidates(context.Background(), 0.45, 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, 0.2, *items[0].Confidence)
}

func TestFetchCandidatesNullBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	})

	items, err := client.FetchCandidates(context.Background(), 0.6, 10)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCreateAnnotationPostsArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "fixed", body[0]["text"])
		assert.Equal(t, "ner", body[0]["task"])
		assert.Equal(t, "dr-lee", body[0]["annotator"])
		assert.Equal(t, float64(7), body[0]["annotateTime"])
		assert.Equal(t, 0.4, body[0]["performance"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]models.MedicalText{*models.NewAnnotatedText("fixed", "ner", "dr-lee", "", 7, 0.4)})
	})

	created, err := client.CreateAnnotation(context.Background(), models.CreateTextRequest{
		Text:         "fixed",
		Task:         "ner",
		Annotator:    "dr-lee",
		AnnotateTime: 7,
		Performance:  0.4,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, *created.Confidence)
	assert.Equal(t, 7, *created.AnnotateTime)
}

func TestUpdateTextSendsOnlySetFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/medical-text/item-1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"confidence": 0.3}, body)

		json.NewEncoder(w).Encode(models.MedicalText{ID: "item-1", Confidence: models.Float(0.3)})
	})

	updated, err := client.UpdateText(context.Background(), "item-1", models.UpdateTextRequest{Confidence: models.Float(0.3)})
	require.NoError(t, err)
	assert.Equal(t, "item-1", updated.ID)
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		validation bool
		message    string
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"text must be a string"}`, validation: true, message: "text must be a string"},
		{name: "not found", status: http.StatusNotFound, body: `{"error":"not found"}`},
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "unavailable", status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.GetText(context.Background(), "x")
			require.Error(t, err)

			if tt.validation {
				var validation *annotation.ValidationError
				require.ErrorAs(t, err, &validation)
				assert.Equal(t, tt.message, validation.Message)
				return
			}
			var transient *annotation.TransientStoreError
			require.ErrorAs(t, err, &transient)
			assert.Equal(t, tt.status, transient.StatusCode)
			assert.Equal(t, "get", transient.Op)
		})
	}
}

func TestClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := NewClient(baseURL, time.Second, nil)
	_, err := client.FetchCandidates(context.Background(), 0.6, 10)

	var transient *annotation.TransientStoreError
	require.ErrorAs(t, err, &transient)
	assert.Zero(t, transient.StatusCode)
}

func TestClientHonoursContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchCandidates(ctx, 0.6, 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
