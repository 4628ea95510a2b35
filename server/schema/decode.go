package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// rawResult mirrors the JSON shape the model is asked to return. Pointer
// fields let missing keys be told apart from zero values, and json.Number
// keeps confidence coercible without losing precision.
type rawResult struct {
	ShouldCreateTicket      *bool         `json:"should_create_ticket"`
	Categories              []rawCategory `json:"categories"`
	Confidence              *json.Number  `json:"confidence"`
	Reasoning               string        `json:"reasoning"`
	SuggestedPriority       string        `json:"suggested_priority"`
	EstimatedCompletionTime *string       `json:"estimated_completion_time"`
}

type rawCategory struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Urgency  string `json:"urgency"`
}

// Decode validates raw model JSON and produces a ClassificationResult.
// It fails with a *SchemaError naming the first missing or invalid field.
// Two classes of model slips are repaired instead of failed, each noted in
// the returned diagnostics:
//   - confidence slightly out of [0,1] is clamped
//   - should_create_ticket disagreeing with categories is recomputed from
//     whether categories is non-empty, since the ticket list is the
//     stronger evidence
func Decode(raw []byte) (*ClassificationResult, []string, error) {
	var r rawResult
	if err := json.Unmarshal(raw, &r); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "(root)"
			}
			return nil, nil, &SchemaError{Field: field, Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)}
		}
		return nil, nil, &SchemaError{Field: "(root)", Reason: err.Error()}
	}

	var notes []string

	if r.ShouldCreateTicket == nil {
		return nil, nil, &SchemaError{Field: "should_create_ticket", Reason: "missing"}
	}

	if r.Categories == nil {
		// Models occasionally omit the array entirely for "no ticket"
		// answers. Treat absence as empty rather than rejecting the whole
		// response.
		notes = append(notes, "categories missing, treated as empty")
	}

	categories := make([]TicketCategory, 0, len(r.Categories))
	for i, rc := range r.Categories {
		cat := ServiceCategory(strings.TrimSpace(rc.Category))
		if !cat.Valid() {
			return nil, nil, &SchemaError{
				Field:  fmt.Sprintf("categories[%d].category", i),
				Reason: fmt.Sprintf("unknown category %q", rc.Category),
			}
		}
		msg := strings.TrimSpace(rc.Message)
		if msg == "" {
			return nil, nil, &SchemaError{
				Field:  fmt.Sprintf("categories[%d].message", i),
				Reason: "must be non-empty",
			}
		}
		urgency := UrgencyLevel(strings.ToLower(strings.TrimSpace(rc.Urgency)))
		if !urgency.Valid() {
			return nil, nil, &SchemaError{
				Field:  fmt.Sprintf("categories[%d].urgency", i),
				Reason: fmt.Sprintf("unknown urgency %q", rc.Urgency),
			}
		}
		categories = append(categories, TicketCategory{Category: cat, Message: msg, Urgency: urgency})
	}

	confidence := 0.0
	if r.Confidence == nil {
		notes = append(notes, "confidence missing, defaulted to 0")
	} else {
		f, err := r.Confidence.Float64()
		if err != nil {
			return nil, nil, &SchemaError{Field: "confidence", Reason: "not a number"}
		}
		confidence = f
		if confidence < 0 {
			notes = append(notes, fmt.Sprintf("confidence %v clamped to 0", f))
			confidence = 0
		} else if confidence > 1 {
			notes = append(notes, fmt.Sprintf("confidence %v clamped to 1", f))
			confidence = 1
		}
	}

	priority := UrgencyLevel(strings.ToLower(strings.TrimSpace(r.SuggestedPriority)))
	if priority == "" {
		// The original contract tolerates a missing priority.
		priority = UrgencyLow
		notes = append(notes, "suggested_priority missing, defaulted to low")
	} else if !priority.Valid() {
		return nil, nil, &SchemaError{
			Field:  "suggested_priority",
			Reason: fmt.Sprintf("unknown urgency %q", r.SuggestedPriority),
		}
	}

	result := &ClassificationResult{
		ShouldCreateTicket:      *r.ShouldCreateTicket,
		Categories:              categories,
		Confidence:              confidence,
		Reasoning:               r.Reasoning,
		SuggestedPriority:       priority,
		EstimatedCompletionTime: r.EstimatedCompletionTime,
		Status:                  StatusOK,
	}

	// Cross-field invariant: the ticket flag must agree with the ticket
	// list. Prefer the list; a formatting slip on a boolean should not
	// fail an otherwise usable response.
	if hasTickets := len(categories) > 0; result.ShouldCreateTicket != hasTickets {
		notes = append(notes, fmt.Sprintf(
			"should_create_ticket=%v disagrees with %d categories, recomputed",
			result.ShouldCreateTicket, len(categories)))
		result.ShouldCreateTicket = hasTickets
	}

	return result, notes, nil
}
