package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bellhop-ai/bellhop/config"
	"github.com/bellhop-ai/bellhop/server"
	"github.com/bellhop-ai/bellhop/server/classifier"
	"github.com/bellhop-ai/bellhop/server/handlers"
	"github.com/bellhop-ai/bellhop/server/metrics"
	"github.com/bellhop-ai/bellhop/server/mocks"
	"github.com/bellhop-ai/bellhop/server/prompt"
	"github.com/bellhop-ai/bellhop/server/schema"
	"github.com/bellhop-ai/bellhop/server/validation"
)

const ticketResponse = `{
	"should_create_ticket": true,
	"categories": [{"category": "service_fb", "message": "Deliver coffee to room 301", "urgency": "medium"}],
	"confidence": 0.9,
	"reasoning": "Guest asked for coffee",
	"suggested_priority": "medium"
}`

func testRouter(t *testing.T, client *mocks.MockClient) http.Handler {
	t.Helper()

	builder := prompt.NewBuilder([]prompt.Category{
		{Key: schema.CategoryFoodBeverage, Name: "Food & Beverage", Description: "Food and drinks", Department: "F&B", TypicalCompletionTime: "15-30 minutes"},
	})
	logger := zaptest.NewLogger(t)
	svc := classifier.NewService(client, builder, logger, classifier.Options{})
	v, err := validation.NewValidator("mock-model", 0)
	require.NoError(t, err)

	return server.NewRouter(server.RouterConfig{
		Service:      svc,
		Validator:    v,
		Health:       client,
		Metrics:      metrics.NewMetrics(),
		Logger:       logger,
		MaxBatchSize: 10,
	})
}

func TestRouterRoutes(t *testing.T) {
	client := mocks.NewMockClient(func(ctx context.Context, system, user string) (string, error) {
		return ticketResponse, nil
	})
	router := testRouter(t, client)
	srv := httptest.NewServer(router)
	defer srv.Close()

	t.Run("classify", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/v1/classify", "application/json",
			strings.NewReader(`{"guest_message": "coffee please"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result schema.ClassificationResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.True(t, result.ShouldCreateTicket)
	})

	t.Run("batch", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/v1/batch-classify", "application/json",
			strings.NewReader(`{"messages": [{"guest_message": "coffee"}]}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var batch handlers.BatchResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))
		assert.Equal(t, 1, batch.TotalProcessed)
	})

	t.Run("categories", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/categories")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var health handlers.HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		assert.Equal(t, "ok", health.Status)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("request id header", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/classify")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestRouterRateLimit(t *testing.T) {
	client := mocks.NewMockClient(nil)
	builder := prompt.NewBuilder([]prompt.Category{
		{Key: schema.CategoryReception, Name: "Reception", Description: "Front desk"},
	})
	logger := zaptest.NewLogger(t)
	svc := classifier.NewService(client, builder, logger, classifier.Options{})
	v, err := validation.NewValidator("mock-model", 0)
	require.NoError(t, err)

	router := server.NewRouter(server.RouterConfig{
		Service:      svc,
		Validator:    v,
		Health:       client,
		Logger:       logger,
		MaxBatchSize: 10,
		RateLimit: &config.RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			Burst:             2,
		},
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	var lastStatus int
	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		lastStatus = resp.StatusCode
		resp.Body.Close()
	}
	assert.Equal(t, http.StatusTooManyRequests, lastStatus)
}
