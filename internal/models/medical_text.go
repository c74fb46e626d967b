package models

import (
	"time"

	"github.com/google/uuid"
)

// MedicalText is a text snippet scored by the model and, once annotated, corrected by a
// human. Confidence is nil for rows the model never scored; Performance and
// AnnotateTime stay nil until the first annotation.
type MedicalText struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	Task           string    `gorm:"type:varchar(255);not null" json:"task"`
	Confidence     *float64  `gorm:"index" json:"confidence"`
	Performance    *float64  `json:"performance"`
	AnnotateTime   *int      `json:"annotateTime"`
	Annotator      string    `gorm:"type:varchar(255)" json:"annotator"`
	AnnotateReason string    `gorm:"type:text" json:"annotateReason"`
	CreatedAt      time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"not null" json:"updatedAt"`
}

func (MedicalText) TableName() string {
	return "medical_texts"
}

// NewMedicalText builds an unannotated candidate.
func NewMedicalText(text, task string, confidence float64) *MedicalText {
	now := time.Now().UTC()
	return &MedicalText{
		ID:         uuid.New().String(),
		Text:       text,
		Task:       task,
		Confidence: Float(confidence),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewAnnotatedText builds the record written for a completed annotation. New
// annotation records start fully confident.
func NewAnnotatedText(text, task, annotator, reason string, annotateTime int, performance float64) *MedicalText {
	now := time.Now().UTC()
	return &MedicalText{
		ID:             uuid.New().String(),
		Text:           text,
		Task:           task,
		Confidence:     Float(1.0),
		Performance:    Float(performance),
		AnnotateTime:   Int(annotateTime),
		Annotator:      annotator,
		AnnotateReason: reason,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Annotated reports whether the item went through at least one annotation.
func (m *MedicalText) Annotated() bool {
	return m.Performance != nil && m.AnnotateTime != nil
}

// ConfidenceAtMost reports whether the item is a candidate for the given threshold.
// Unscored items never are.
func (m *MedicalText) ConfidenceAtMost(threshold float64) bool {
	return m.Confidence != nil && *m.Confidence <= threshold
}

func Float(v float64) *float64 {
	return &v
}

func Int(v int) *int {
	return &v
}
