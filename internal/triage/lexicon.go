// Package triage holds the pure text rules of the health assistant: emergency
// detection, symptom extraction and normalization of model output.
//
// Matching is lower-cased substring containment with no stemming and no word
// boundaries, so "stroke of luck" is classified as an emergency. That
// precision limit is kept on purpose for compatibility with existing clients.
package triage

// emergencyKeywords trigger the fast path without consulting the model.
var emergencyKeywords = []string{
	"chest pain",
	"difficulty breathing",
	"can't breathe",
	"severe bleeding",
	"unconscious",
	"stroke",
	"heart attack",
	"suicide",
	"kill myself",
	"severe allergic",
	"anaphylaxis",
}

// commonSymptoms is ordered; ExtractSymptoms reports matches in this order.
var commonSymptoms = []string{
	"headache",
	"fever",
	"cough",
	"sore throat",
	"fatigue",
	"nausea",
	"vomiting",
	"diarrhea",
	"pain",
	"ache",
	"dizzy",
	"runny nose",
	"congestion",
	"shortness of breath",
	"chest pain",
}

// quickSymptoms are the one-tap prompts offered by the chat widget.
var quickSymptoms = []string{
	"Headache",
	"Fever",
	"Cough",
	"Sore Throat",
	"Fatigue",
	"Nausea",
	"Body Aches",
	"Runny Nose",
}

func EmergencyKeywords() []string {
	return append([]string(nil), emergencyKeywords...)
}

func CommonSymptoms() []string {
	return append([]string(nil), commonSymptoms...)
}

func QuickSymptoms() []string {
	return append([]string(nil), quickSymptoms...)
}
