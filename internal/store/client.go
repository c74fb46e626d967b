package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kdimtricp/medannotate/internal/annotation"
	"github.com/kdimtricp/medannotate/internal/models"
	"go.uber.org/zap"
)

// Client talks to the candidate store REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("store"),
	}
}

// FetchCandidates returns at most limit items with confidence <= threshold, least
// confident first.
func (c *Client) FetchCandidates(ctx context.Context, threshold float64, limit int) ([]models.MedicalText, error) {
	params := url.Values{}
	params.Set("confidenceThreshold", strconv.FormatFloat(threshold, 'f', -1, 64))
	params.Set("numSamples", strconv.Itoa(limit))

	var items []models.MedicalText
	if err := c.do(ctx, "fetch", http.MethodGet, "/medical-text?"+params.Encode(), nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.MedicalText{}
	}
	return items, nil
}

// CreateAnnotation stores one annotation record and returns it as created.
func (c *Client) CreateAnnotation(ctx context.Context, req models.CreateTextRequest) (*models.MedicalText, error) {
	created, err := c.CreateAnnotations(ctx, []models.CreateTextRequest{req})
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, &annotation.TransientStoreError{Op: "create", Err: fmt.Errorf("store returned no records")}
	}
	return &created[0], nil
}

func (c *Client) CreateAnnotations(ctx context.Context, reqs []models.CreateTextRequest) ([]models.MedicalText, error) {
	var created []models.MedicalText
	if err := c.do(ctx, "create", http.MethodPost, "/medical-text", reqs, &created); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) UpdateText(ctx context.Context, id string, req models.UpdateTextRequest) (*models.MedicalText, error) {
	var updated models.MedicalText
	if err := c.do(ctx, "update", http.MethodPut, "/medical-text/"+url.PathEscape(id), req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) GetText(ctx context.Context, id string) (*models.MedicalText, error) {
	var item models.MedicalText
	if err := c.do(ctx, "get", http.MethodGet, "/medical-text/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &annotation.TransientStoreError{Op: op, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	c.logger.Debug("store request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := errorMessage(resp.Body)
		if resp.StatusCode == http.StatusBadRequest {
			return &annotation.ValidationError{Message: message}
		}
		return &annotation.TransientStoreError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("store returned status %d: %s", resp.StatusCode, message),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &annotation.TransientStoreError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// errorMessage reads the {"error": "..."} body, falling back to the raw text.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no error details"
	}
	var body models.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
