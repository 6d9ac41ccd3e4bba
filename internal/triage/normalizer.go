package triage

import (
	"encoding/json"
	"strings"

	"health-assistant/internal/model"
)

const (
	DefaultDisclaimer = "This information is for educational purposes only. Please consult a healthcare provider for proper diagnosis and treatment."

	fallbackSelfCare        = "Rest and stay hydrated"
	fallbackWhenToSeeDoctor = "If symptoms worsen or persist"
)

// Normalize coerces raw model output into a TriageResponse. It first parses
// the greedy span between the first '{' and the last '}', then the whole
// text, and otherwise falls back to a low-urgency response carrying the raw
// text as analysis. The result always has a valid urgency and a non-empty
// disclaimer.
func Normalize(raw string) model.TriageResponse {
	resp, ok := parseEmbedded(raw)
	if !ok {
		resp, ok = parseObject(raw)
	}
	if !ok {
		resp = fallback(raw)
	}

	if strings.TrimSpace(resp.Disclaimer) == "" {
		resp.Disclaimer = DefaultDisclaimer
	}
	return resp
}

func parseEmbedded(raw string) (model.TriageResponse, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return model.TriageResponse{}, false
	}
	return parseObject(raw[start : end+1])
}

// parseObject accepts only a JSON object. Fields of the wrong type are
// dropped to their empty value rather than failing the whole response.
func parseObject(text string) (model.TriageResponse, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return model.TriageResponse{}, false
	}

	resp := model.TriageResponse{
		Analysis:        decodeString(fields["analysis"]),
		Conditions:      decodeConditions(fields["conditions"]),
		Recommendations: decodeRecommendations(fields["recommendations"]),
		Urgency:         decodeUrgency(fields["urgency"]),
		WhenToSeeDoctor: decodeStrings(fields["when_to_see_doctor"]),
		IsEmergency:     decodeBool(fields["is_emergency"]),
		Disclaimer:      decodeString(fields["disclaimer"]),
	}
	return resp, true
}

func fallback(raw string) model.TriageResponse {
	return model.TriageResponse{
		Analysis:   raw,
		Conditions: []model.Condition{},
		Recommendations: model.Recommendations{
			SelfCare:    []string{fallbackSelfCare},
			Medications: []model.Medication{},
			Lifestyle:   []string{},
		},
		Urgency:         model.UrgencyLow,
		WhenToSeeDoctor: []string{fallbackWhenToSeeDoctor},
		IsEmergency:     false,
	}
}

func decodeString(data json.RawMessage) string {
	var s string
	if len(data) == 0 || json.Unmarshal(data, &s) != nil {
		return ""
	}
	return s
}

func decodeBool(data json.RawMessage) bool {
	var b bool
	if len(data) == 0 || json.Unmarshal(data, &b) != nil {
		return false
	}
	return b
}

func decodeUrgency(data json.RawMessage) model.Urgency {
	if u, ok := model.ParseUrgency(decodeString(data)); ok {
		return u
	}
	return model.UrgencyLow
}

// decodeStrings keeps the string elements of a JSON array and skips the rest.
func decodeStrings(data json.RawMessage) []string {
	out := []string{}
	var items []json.RawMessage
	if len(data) == 0 || json.Unmarshal(data, &items) != nil {
		return out
	}
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

func decodeConditions(data json.RawMessage) []model.Condition {
	out := []model.Condition{}
	for _, obj := range decodeObjects(data) {
		out = append(out, model.Condition{
			Name:        decodeString(obj["name"]),
			Confidence:  model.ParseConfidence(decodeString(obj["confidence"])),
			Description: decodeString(obj["description"]),
		})
	}
	return out
}

func decodeRecommendations(data json.RawMessage) model.Recommendations {
	var obj map[string]json.RawMessage
	if len(data) > 0 {
		_ = json.Unmarshal(data, &obj)
	}

	medications := []model.Medication{}
	for _, m := range decodeObjects(obj["medications"]) {
		medications = append(medications, model.Medication{
			Name:    decodeString(m["name"]),
			Dosage:  decodeString(m["dosage"]),
			Purpose: decodeString(m["purpose"]),
		})
	}

	return model.Recommendations{
		SelfCare:    decodeStrings(obj["self_care"]),
		Medications: medications,
		Lifestyle:   decodeStrings(obj["lifestyle"]),
	}
}

func decodeObjects(data json.RawMessage) []map[string]json.RawMessage {
	var items []json.RawMessage
	if len(data) == 0 || json.Unmarshal(data, &items) != nil {
		return nil
	}
	objects := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if json.Unmarshal(item, &obj) == nil && obj != nil {
			objects = append(objects, obj)
		}
	}
	return objects
}
