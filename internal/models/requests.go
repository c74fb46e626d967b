package models

// CreateTextRequest is the body of POST /medical-text for one annotated record.
type CreateTextRequest struct {
	Text           string  `json:"text"`
	Task           string  `json:"task"`
	Annotator      string  `json:"annotator"`
	AnnotateReason string  `json:"annotateReason"`
	AnnotateTime   int     `json:"annotateTime"`
	Performance    float64 `json:"performance"`
}

// UpdateTextRequest is the body of PUT /medical-text/{id}. Omitted fields are kept.
type UpdateTextRequest struct {
	Text         *string  `json:"text,omitempty"`
	AnnotateTime *int     `json:"annotateTime,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
