package triage

import "strings"

type span struct{ start, end int }

// ExtractSymptoms returns the common symptoms mentioned in message, in
// lexicon order rather than order of appearance. A term whose every
// occurrence sits inside a longer matched term is not reported, so
// "headache" does not also yield "ache" and "chest pain" does not yield
// "pain".
func ExtractSymptoms(message string) []string {
	lower := strings.ToLower(message)

	occurrences := make(map[string][]span, len(commonSymptoms))
	for _, symptom := range commonSymptoms {
		if spans := findAll(lower, symptom); len(spans) > 0 {
			occurrences[symptom] = spans
		}
	}

	symptoms := make([]string, 0, len(occurrences))
	for _, symptom := range commonSymptoms {
		spans, ok := occurrences[symptom]
		if !ok {
			continue
		}
		for _, s := range spans {
			if !subsumed(symptom, s, occurrences) {
				symptoms = append(symptoms, symptom)
				break
			}
		}
	}
	return symptoms
}

func findAll(text, term string) []span {
	var spans []span
	for offset := 0; offset <= len(text)-len(term); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			break
		}
		start := offset + i
		spans = append(spans, span{start: start, end: start + len(term)})
		offset = start + 1
	}
	return spans
}

func subsumed(term string, s span, occurrences map[string][]span) bool {
	for other, spans := range occurrences {
		if len(other) <= len(term) {
			continue
		}
		for _, o := range spans {
			if o.start <= s.start && s.end <= o.end {
				return true
			}
		}
	}
	return false
}
