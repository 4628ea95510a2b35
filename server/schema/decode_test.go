package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellhop-ai/bellhop/server/schema"
)

func TestDecodeTicketResult(t *testing.T) {
	raw := []byte(`{
		"should_create_ticket": true,
		"categories": [
			{"category": "service_fb", "message": "Deliver two coffees to room 301", "urgency": "medium"},
			{"category": "housekeeping", "message": "Bring extra towels to room 301", "urgency": "low"}
		],
		"confidence": 0.95,
		"reasoning": "Guest explicitly requested coffee and towels",
		"suggested_priority": "medium",
		"estimated_completion_time": "15-30 minutes"
	}`)

	result, notes, err := schema.Decode(raw)
	require.NoError(t, err)
	assert.Empty(t, notes)

	assert.True(t, result.ShouldCreateTicket)
	require.Len(t, result.Categories, 2)
	assert.Equal(t, schema.CategoryFoodBeverage, result.Categories[0].Category)
	assert.Equal(t, schema.UrgencyMedium, result.Categories[0].Urgency)
	assert.Equal(t, schema.CategoryHousekeeping, result.Categories[1].Category)
	assert.Equal(t, 0.95, result.Confidence)
	assert.Equal(t, schema.UrgencyMedium, result.SuggestedPriority)
	require.NotNil(t, result.EstimatedCompletionTime)
	assert.Equal(t, "15-30 minutes", *result.EstimatedCompletionTime)
	assert.Equal(t, schema.StatusOK, result.Status)
}

func TestDecodeNoTicketResult(t *testing.T) {
	raw := []byte(`{
		"should_create_ticket": false,
		"categories": [],
		"confidence": 0.99,
		"reasoning": "Greeting only, no service request",
		"suggested_priority": "low",
		"estimated_completion_time": null
	}`)

	result, notes, err := schema.Decode(raw)
	require.NoError(t, err)
	assert.Empty(t, notes)

	assert.False(t, result.ShouldCreateTicket)
	assert.Empty(t, result.Categories)
	assert.Nil(t, result.EstimatedCompletionTime)
	assert.Equal(t, schema.StatusOK, result.Status)
}

func TestDecodeInvariantRepair(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantTicket bool
	}{
		{
			name: "flag false with tickets",
			raw: `{
				"should_create_ticket": false,
				"categories": [{"category": "maintenance", "message": "Fix the AC in room 412", "urgency": "high"}],
				"confidence": 0.9,
				"reasoning": "AC is broken",
				"suggested_priority": "high"
			}`,
			wantTicket: true,
		},
		{
			name: "flag true without tickets",
			raw: `{
				"should_create_ticket": true,
				"categories": [],
				"confidence": 0.8,
				"reasoning": "Nothing actionable",
				"suggested_priority": "low"
			}`,
			wantTicket: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, notes, err := schema.Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.wantTicket, result.ShouldCreateTicket)
			assert.NotEmpty(t, notes, "repair must be reported")
		})
	}
}

func TestDecodeConfidenceClamping(t *testing.T) {
	tests := []struct {
		name       string
		confidence string
		want       float64
		wantNote   bool
	}{
		{"above one", "1.5", 1, true},
		{"below zero", "-0.2", 0, true},
		{"in range", "0.7", 0.7, false},
		{"exactly one", "1", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []byte(`{
				"should_create_ticket": false,
				"categories": [],
				"confidence": ` + tt.confidence + `,
				"reasoning": "r",
				"suggested_priority": "low"
			}`)
			result, notes, err := schema.Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Confidence)
			if tt.wantNote {
				assert.NotEmpty(t, notes)
			} else {
				assert.Empty(t, notes)
			}
		})
	}
}

func TestDecodeSchemaErrors(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{
			name:      "missing should_create_ticket",
			raw:       `{"categories": [], "confidence": 0.5, "reasoning": "r", "suggested_priority": "low"}`,
			wantField: "should_create_ticket",
		},
		{
			name: "unknown category",
			raw: `{
				"should_create_ticket": true,
				"categories": [{"category": "spa", "message": "Book a massage", "urgency": "low"}],
				"confidence": 0.5, "reasoning": "r", "suggested_priority": "low"
			}`,
			wantField: "categories[0].category",
		},
		{
			name: "empty ticket message",
			raw: `{
				"should_create_ticket": true,
				"categories": [{"category": "porter", "message": "  ", "urgency": "low"}],
				"confidence": 0.5, "reasoning": "r", "suggested_priority": "low"
			}`,
			wantField: "categories[0].message",
		},
		{
			name: "unknown urgency",
			raw: `{
				"should_create_ticket": true,
				"categories": [{"category": "porter", "message": "Carry bags", "urgency": "critical"}],
				"confidence": 0.5, "reasoning": "r", "suggested_priority": "low"
			}`,
			wantField: "categories[0].urgency",
		},
		{
			name: "unknown priority",
			raw: `{
				"should_create_ticket": false,
				"categories": [],
				"confidence": 0.5, "reasoning": "r", "suggested_priority": "asap"
			}`,
			wantField: "suggested_priority",
		},
		{
			name:      "wrong type for categories",
			raw:       `{"should_create_ticket": true, "categories": "none", "confidence": 0.5, "reasoning": "r", "suggested_priority": "low"}`,
			wantField: "categories",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := schema.Decode([]byte(tt.raw))
			require.Error(t, err)
			var schemaErr *schema.SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.wantField, schemaErr.Field)
		})
	}
}

func TestDecodeLenientDefaults(t *testing.T) {
	raw := []byte(`{
		"should_create_ticket": false,
		"reasoning": "Just saying hi"
	}`)

	result, notes, err := schema.Decode(raw)
	require.NoError(t, err)

	assert.False(t, result.ShouldCreateTicket)
	assert.Empty(t, result.Categories)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, schema.UrgencyLow, result.SuggestedPriority)
	// missing categories, confidence, and priority each get a note
	assert.Len(t, notes, 3)
}

func TestDecodeCaseInsensitiveUrgency(t *testing.T) {
	raw := []byte(`{
		"should_create_ticket": true,
		"categories": [{"category": "maintenance", "message": "Fix the TV", "urgency": "HIGH"}],
		"confidence": 0.9,
		"reasoning": "r",
		"suggested_priority": "Medium"
	}`)

	result, _, err := schema.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, schema.UrgencyHigh, result.Categories[0].Urgency)
	assert.Equal(t, schema.UrgencyMedium, result.SuggestedPriority)
}

func TestUrgencyRank(t *testing.T) {
	assert.Less(t, schema.UrgencyLow.Rank(), schema.UrgencyMedium.Rank())
	assert.Less(t, schema.UrgencyMedium.Rank(), schema.UrgencyHigh.Rank())
	assert.Less(t, schema.UrgencyHigh.Rank(), schema.UrgencyUrgent.Rank())
	assert.Equal(t, -1, schema.UrgencyLevel("bogus").Rank())
}

func TestServiceCategoryValid(t *testing.T) {
	for _, c := range schema.Categories {
		assert.True(t, c.Valid(), string(c))
	}
	assert.False(t, schema.ServiceCategory("spa").Valid())
	assert.False(t, schema.ServiceCategory("").Valid())
}
