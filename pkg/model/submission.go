package model

import "time"

// Submission wraps a completed response map with the form identity so hosts
// can hand it to whatever backend stores final answers.
type Submission struct {
	ID             string    `json:"id"`
	SubjectID      string    `json:"subjectId,omitempty"`
	FormID         string    `json:"formId"`
	SubmissionDate time.Time `json:"submissionDate"`
	Type           string    `json:"type,omitempty"`
	Tag            string    `json:"tag,omitempty"`
	FormComplete   bool      `json:"formComplete"`
	Responses      Responses `json:"responses"`
}

// NewSubmission builds a completed submission envelope.
func NewSubmission(id, subjectID string, cfg FormConfig, responses Responses, at time.Time) Submission {
	return Submission{
		ID:             id,
		SubjectID:      subjectID,
		FormID:         cfg.Slug,
		SubmissionDate: at.UTC(),
		Type:           cfg.Type,
		Tag:            cfg.Tag,
		FormComplete:   true,
		Responses:      responses.Clone(),
	}
}
