// Package schema defines the fixed shape of a classification result and
// decodes raw model output into it. The model is an untrusted collaborator:
// nothing it returns is assumed to match the contract until it has passed
// through Decode.
package schema

import (
	"fmt"
)

// ServiceCategory is one of the six closed service domains a ticket can
// belong to. Category strings outside this set are invalid.
type ServiceCategory string

const (
	CategoryFoodBeverage ServiceCategory = "service_fb"
	CategoryHousekeeping ServiceCategory = "housekeeping"
	CategoryMaintenance  ServiceCategory = "maintenance"
	CategoryPorter       ServiceCategory = "porter"
	CategoryConcierge    ServiceCategory = "concierge"
	CategoryReception    ServiceCategory = "reception"
)

// Categories lists every valid service category in stable order.
var Categories = []ServiceCategory{
	CategoryFoodBeverage,
	CategoryHousekeeping,
	CategoryMaintenance,
	CategoryPorter,
	CategoryConcierge,
	CategoryReception,
}

// Valid reports whether c is a member of the closed category set.
func (c ServiceCategory) Valid() bool {
	switch c {
	case CategoryFoodBeverage, CategoryHousekeeping, CategoryMaintenance,
		CategoryPorter, CategoryConcierge, CategoryReception:
		return true
	}
	return false
}

// UrgencyLevel ranks the severity of a single ticket. Levels are ordered,
// which lets callers aggregate a result-wide priority.
type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
	UrgencyUrgent UrgencyLevel = "urgent"
)

// Valid reports whether u is a known urgency level.
func (u UrgencyLevel) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent:
		return true
	}
	return false
}

// Rank returns the severity order of u, low being 0. Unknown levels rank
// below low so they never win an aggregation.
func (u UrgencyLevel) Rank() int {
	switch u {
	case UrgencyLow:
		return 0
	case UrgencyMedium:
		return 1
	case UrgencyHigh:
		return 2
	case UrgencyUrgent:
		return 3
	}
	return -1
}

// ResultStatus distinguishes a genuine model verdict from a fallback
// produced because the model was unreachable or returned garbage.
type ResultStatus string

const (
	StatusOK              ResultStatus = "ok"
	StatusUpstreamFailure ResultStatus = "upstream_failure"
	StatusParseFailure    ResultStatus = "parse_failure"
)

// ClassificationRequest is an inbound guest message with optional context.
// It lives for exactly one HTTP request and is never persisted.
type ClassificationRequest struct {
	GuestMessage string `json:"guest_message" validate:"required"`
	GuestID      string `json:"guest_id,omitempty"`
	RoomNumber   string `json:"room_number,omitempty"`
}

// TicketCategory is a single staff-actionable ticket within a result.
type TicketCategory struct {
	Category ServiceCategory `json:"category"`
	Message  string          `json:"message"`
	Urgency  UrgencyLevel    `json:"urgency"`
}

// ClassificationResult is the validated outcome of one classification.
// Invariant: ShouldCreateTicket == (len(Categories) > 0). Decode enforces
// it, repairing model output that violates it.
type ClassificationResult struct {
	ShouldCreateTicket      bool             `json:"should_create_ticket"`
	Categories              []TicketCategory `json:"categories"`
	Confidence              float64          `json:"confidence"`
	Reasoning               string           `json:"reasoning"`
	SuggestedPriority       UrgencyLevel     `json:"suggested_priority"`
	EstimatedCompletionTime *string          `json:"estimated_completion_time,omitempty"`
	Status                  ResultStatus     `json:"status"`
}

// SchemaError reports the first missing or invalid field found while
// decoding model output.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: field %q: %s", e.Field, e.Reason)
}
