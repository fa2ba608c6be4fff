package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// ProgressRecord is the persisted completion flag of one user/page/step.
// (UserEmail, PageType, StepID) is unique.
type ProgressRecord struct {
	UserEmail string    `bson:"user_email" json:"userEmail"`
	PageType  string    `bson:"page_type" json:"pageType"`
	StepID    string    `bson:"step_id" json:"stepId"`
	Completed bool      `bson:"completed" json:"completed"`
	TenantID  string    `bson:"tenant_id,omitempty" json:"tenantId,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// StepState is one entry of a loaded checklist
type StepState struct {
	StepID    string `json:"stepId"`
	Completed bool   `json:"completed"`
}

// ProgressListResponse is returned by the progress read endpoint
type ProgressListResponse struct {
	UserEmail string      `json:"userEmail"`
	PageType  string      `json:"pageType"`
	Steps     []StepState `json:"steps"`
}

// StepID identifies a checklist step. Pages number their steps, so the JSON
// form may be a string or an integer; both are stored as a string.
type StepID string

// UnmarshalJSON accepts "2", 2 and null
func (s *StepID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = StepID(text)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("stepId must be a string or an integer: %w", err)
	}
	n, err := number.Int64()
	if err != nil {
		return fmt.Errorf("stepId must be a string or an integer: %w", err)
	}
	*s = StepID(strconv.FormatInt(n, 10))
	return nil
}

// ProgressWriteRequest is the JSON body of progress writes. Completed is
// optional on toggle and required on explicit set.
type ProgressWriteRequest struct {
	UserEmail string `json:"userEmail"`
	PageType  string `json:"pageType"`
	StepID    StepID `json:"stepId"`
	Completed *bool  `json:"completed,omitempty"`
}

// ProgressWriteResponse is returned after a successful write
type ProgressWriteResponse struct {
	UserEmail string    `json:"userEmail"`
	PageType  string    `json:"pageType"`
	StepID    string    `json:"stepId"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateProgressKey checks the (email, page, step) triple
func ValidateProgressKey(email, pageType, stepID string) error {
	if err := ValidateProgressScope(email, pageType); err != nil {
		return err
	}
	if strings.TrimSpace(stepID) == "" {
		return ErrInvalidStepID
	}
	return nil
}

// ValidateProgressScope checks the (email, page) pair used by reads
func ValidateProgressScope(email, pageType string) error {
	if email == "" || strings.ContainsAny(email, " <>") {
		return ErrInvalidEmail
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(pageType) == "" || len(pageType) > 100 {
		return ErrInvalidPageType
	}
	return nil
}
