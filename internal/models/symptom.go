package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SymptomType enumerates the symptom categories a user can report.
type SymptomType string

const (
	SymptomNausea       SymptomType = "nausea"
	SymptomFatigue      SymptomType = "fatigue"
	SymptomHeadache     SymptomType = "headache"
	SymptomBackPain     SymptomType = "back-pain"
	SymptomSwelling     SymptomType = "swelling"
	SymptomCramping     SymptomType = "cramping"
	SymptomContractions SymptomType = "contractions"
	SymptomBleeding     SymptomType = "bleeding"
	SymptomDizziness    SymptomType = "dizziness"
	SymptomOther        SymptomType = "other"
)

// SymptomTypes lists every valid symptom type.
var SymptomTypes = []SymptomType{
	SymptomNausea, SymptomFatigue, SymptomHeadache, SymptomBackPain,
	SymptomSwelling, SymptomCramping, SymptomContractions, SymptomBleeding,
	SymptomDizziness, SymptomOther,
}

// Severity is the user-reported intensity of a symptom.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Severities lists every valid severity.
var Severities = []Severity{SeverityMild, SeverityModerate, SeveritySevere}

// Duration is how long a symptom has lasted.
type Duration struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"` // hours|days|weeks
}

// SymptomReport is an immutable symptom record authored by a user.
// Clinical fields are never mutated after creation; only the resolution
// flag and action-taken notes change later.
type SymptomReport struct {
	ID           [16]byte        `json:"id"`
	UserID       int64           `json:"user_id"`
	PregnancyID  string          `json:"pregnancy_id,omitempty"`
	Type         SymptomType     `json:"type"`
	Severity     Severity        `json:"severity"`
	Description  string          `json:"description,omitempty"`
	Duration     Duration        `json:"duration"`
	Triggers     []string        `json:"triggers,omitempty"`
	BodyLocation string          `json:"body_location,omitempty"`
	Location     *Location       `json:"location,omitempty"`
	Assessment   *RiskAssessment `json:"assessment,omitempty"`
	Resolved     bool            `json:"resolved"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
	ActionTaken  string          `json:"action_taken,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SymptomReportCreate is the input payload for logging a symptom.
type SymptomReportCreate struct {
	UserID       int64     `json:"user_id" binding:"required"`
	PregnancyID  string    `json:"pregnancy_id,omitempty"`
	Type         string    `json:"type" binding:"required"`
	Severity     string    `json:"severity" binding:"required"`
	Description  string    `json:"description,omitempty"`
	Duration     Duration  `json:"duration,omitempty"`
	Triggers     []string  `json:"triggers,omitempty"`
	BodyLocation string    `json:"body_location,omitempty"`
	Location     *Location `json:"location,omitempty"`
}

// Validate rejects malformed reports before they reach classification.
func (r SymptomReportCreate) Validate() error {
	if !validSymptomType(SymptomType(r.Type)) {
		return fmt.Errorf("unknown symptom type %q", r.Type)
	}
	if !validSeverity(Severity(r.Severity)) {
		return fmt.Errorf("unknown severity %q", r.Severity)
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validSymptomType(t SymptomType) bool {
	for _, v := range SymptomTypes {
		if v == t {
			return true
		}
	}
	return false
}

func validSeverity(s Severity) bool {
	for _, v := range Severities {
		if v == s {
			return true
		}
	}
	return false
}

func (r SymptomReport) MarshalJSON() ([]byte, error) {
	type Alias SymptomReport
	return json.Marshal(&struct {
		ID string `json:"id"`
		*Alias
	}{
		ID:    uuid.UUID(r.ID).String(),
		Alias: (*Alias)(&r),
	})
}
