// Package catalog provides read-only access to the exercise library.
package catalog

import (
	"strings"
)

// Exercise describes a single entry in the exercise library.
//
// Target, SecondaryMuscles, and Equipment are comma-separated token lists as
// found in the source data, e.g. "triceps, shoulders". Use the accessor
// methods instead of splitting the raw strings at call sites.
type Exercise struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	Target              string `json:"target"`
	SecondaryMuscles    string `json:"secondary_muscles"`
	Category            string `json:"category"`
	Equipment           string `json:"equipment"`
	Difficulty          string `json:"difficulty"`
	DescriptionMarkdown string `json:"description_markdown"`
}

// splitTokens splits a comma-separated token list, trimming whitespace and
// lowercasing each token. Empty tokens are dropped.
func splitTokens(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.ToLower(strings.TrimSpace(part))
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Targets returns the normalized target muscle names.
func (e Exercise) Targets() []string {
	return splitTokens(e.Target)
}

// Secondary returns the normalized secondary muscle names.
func (e Exercise) Secondary() []string {
	return splitTokens(e.SecondaryMuscles)
}

// Muscles returns every muscle the exercise works, targets first.
func (e Exercise) Muscles() []string {
	return append(e.Targets(), e.Secondary()...)
}

// WorksMuscle reports whether the exercise targets muscle as a primary or
// secondary muscle. The comparison is case-insensitive and trimmed.
func (e Exercise) WorksMuscle(muscle string) bool {
	muscle = strings.ToLower(strings.TrimSpace(muscle))
	for _, m := range e.Muscles() {
		if m == muscle {
			return true
		}
	}
	return false
}

// EquipmentTokens returns the normalized equipment the exercise requires.
func (e Exercise) EquipmentTokens() []string {
	return splitTokens(e.Equipment)
}

// HasAllEquipment reports whether every equipment token the exercise needs is
// present in the available set.
func (e Exercise) HasAllEquipment(available map[string]bool) bool {
	for _, token := range e.EquipmentTokens() {
		if !available[token] {
			return false
		}
	}
	return true
}

// IsCardio reports whether the exercise is cardio, either by category or by
// targeting the cardiovascular system.
func (e Exercise) IsCardio() bool {
	if strings.EqualFold(strings.TrimSpace(e.Category), "cardio") {
		return true
	}
	for _, target := range e.Targets() {
		if strings.Contains(target, "cardio") {
			return true
		}
	}
	return false
}

// IsBodyweight reports whether the exercise needs no equipment beyond body
// weight.
func (e Exercise) IsBodyweight() bool {
	tokens := e.EquipmentTokens()
	if len(tokens) == 0 {
		return true
	}
	for _, token := range tokens {
		switch token {
		case "body weight", "bodyweight", "none":
		default:
			return false
		}
	}
	return true
}
