package model

import (
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Urgency is the triage severity attached to every response.
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyModerate  Urgency = "moderate"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// Urgencies lists the levels from least to most severe.
var Urgencies = []Urgency{UrgencyLow, UrgencyModerate, UrgencyHigh, UrgencyEmergency}

// ParseUrgency folds case and surrounding space; ok is false for anything
// outside the enum.
func ParseUrgency(s string) (Urgency, bool) {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	return u, u.Valid()
}

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyModerate, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

// Label returns the badge text shown next to a response.
func (u Urgency) Label() string {
	switch u {
	case UrgencyEmergency:
		return "🚨 Emergency - Seek Immediate Care"
	case UrgencyHigh:
		return "⚠️ High Urgency - See Doctor Soon"
	case UrgencyModerate:
		return "⏰ Moderate - Monitor Symptoms"
	case UrgencyLow:
		return "✅ Low - Home Care Sufficient"
	}
	return string(u)
}

// Confidence grades a suggested condition.
type Confidence string

const (
	ConfidenceHigh     Confidence = "High"
	ConfidenceModerate Confidence = "Moderate"
	ConfidenceLow      Confidence = "Low"
)

// ParseConfidence maps model output onto the enum. "medium" is accepted as
// Moderate; anything unrecognised grades as Low.
func ParseConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ConfidenceHigh
	case "moderate", "medium":
		return ConfidenceModerate
	default:
		return ConfidenceLow
	}
}

type Condition struct {
	Name        string     `json:"name"`
	Confidence  Confidence `json:"confidence"`
	Description string     `json:"description"`
}

type Medication struct {
	Name    string `json:"name"`
	Dosage  string `json:"dosage"`
	Purpose string `json:"purpose"`
}

type Recommendations struct {
	SelfCare    []string     `json:"self_care"`
	Medications []Medication `json:"medications"`
	Lifestyle   []string     `json:"lifestyle"`
}

// TriageResponse is the canonical payload returned to the caller and
// persisted with the chat record. EmergencyMessage and Actions are only set
// on the emergency fast path.
type TriageResponse struct {
	Analysis         string          `json:"analysis"`
	Conditions       []Condition     `json:"conditions"`
	Recommendations  Recommendations `json:"recommendations"`
	Urgency          Urgency         `json:"urgency"`
	WhenToSeeDoctor  []string        `json:"when_to_see_doctor"`
	IsEmergency      bool            `json:"is_emergency"`
	Disclaimer       string          `json:"disclaimer"`
	EmergencyMessage string          `json:"emergency_message,omitempty"`
	Actions          []string        `json:"actions,omitempty"`
}

type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRecord is one persisted exchange: the user message and the assistant
// reply, plus triage metadata. Records are written once and never updated.
type ChatRecord struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	Messages        []ChatMessage  `json:"messages"`
	Symptoms        []string       `json:"symptoms"`
	IsEmergency     bool           `json:"isEmergency"`
	UrgencyLevel    Urgency        `json:"urgencyLevel"`
	Recommendations TriageResponse `json:"recommendations"`
	CreatedAt       time.Time      `json:"createdAt"`
}

type UrgencyLevel struct {
	Value Urgency `json:"value"`
	Label string  `json:"label"`
}
