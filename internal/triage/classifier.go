package triage

import (
	"strings"

	"health-assistant/internal/model"
)

const (
	EmergencyMessage    = "⚠️ SEEK EMERGENCY MEDICAL ATTENTION IMMEDIATELY"
	EmergencyAnalysis   = "Your symptoms indicate a potential medical emergency."
	EmergencyDisclaimer = "This is an emergency situation. Seek immediate medical help."
)

var emergencyActions = []string{
	"Call 911 or your local emergency number NOW",
	"Do not drive yourself to the hospital",
	"Stay on the line with emergency services",
	"If alone, unlock your door for emergency responders",
}

// IsEmergency reports whether message contains any emergency keyword.
func IsEmergency(message string) bool {
	_, ok := MatchEmergency(message)
	return ok
}

// MatchEmergency returns the first emergency keyword found in message, in
// lexicon order.
func MatchEmergency(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, keyword := range emergencyKeywords {
		if strings.Contains(lower, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// EmergencyResponse is the fixed payload for any emergency-classified message,
// whichever keyword matched.
func EmergencyResponse() model.TriageResponse {
	return model.TriageResponse{
		Analysis:   EmergencyAnalysis,
		Conditions: []model.Condition{},
		Recommendations: model.Recommendations{
			SelfCare:    []string{},
			Medications: []model.Medication{},
			Lifestyle:   []string{},
		},
		Urgency:          model.UrgencyEmergency,
		WhenToSeeDoctor:  []string{},
		IsEmergency:      true,
		Disclaimer:       EmergencyDisclaimer,
		EmergencyMessage: EmergencyMessage,
		Actions:          append([]string(nil), emergencyActions...),
	}
}
