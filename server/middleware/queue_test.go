package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellhop-ai/bellhop/server/middleware"
)

func TestAdmissionQueueAllowsWithinCapacity(t *testing.T) {
	q := middleware.NewAdmissionQueue(middleware.QueueConfig{InitialSize: 10})
	handler := q.Handler(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, q.QueueLength())
}

func TestAdmissionQueueRejectsWhenFull(t *testing.T) {
	q := middleware.NewAdmissionQueue(middleware.QueueConfig{InitialSize: 1})

	release := make(chan struct{})
	started := make(chan struct{})
	handler := q.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusOK)
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	}()
	<-started

	// capacity is taken, the second request is turned away
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	close(release)
	wg.Wait()
}

func TestAdmissionQueueSetMaxSize(t *testing.T) {
	q := middleware.NewAdmissionQueue(middleware.QueueConfig{InitialSize: 5})
	assert.Equal(t, int64(5), q.MaxSize())

	q.SetMaxSize(20)
	assert.Equal(t, int64(20), q.MaxSize())
}

func TestAdmissionQueueStatePersistence(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "queue", "state.json")

	q := middleware.NewAdmissionQueue(middleware.QueueConfig{
		InitialSize:  100,
		StatePath:    statePath,
		SaveInterval: 10 * time.Millisecond,
	})
	q.SetMaxSize(250)

	require.NoError(t, q.Shutdown(context.Background()))
	_, err := os.Stat(statePath)
	require.NoError(t, err)

	// a new queue restores the saved size over its initial one
	restored := middleware.NewAdmissionQueue(middleware.QueueConfig{
		InitialSize: 100,
		StatePath:   statePath,
	})
	assert.Equal(t, int64(250), restored.MaxSize())
}

func TestAdmissionQueueShutdownIdempotent(t *testing.T) {
	q := middleware.NewAdmissionQueue(middleware.QueueConfig{InitialSize: 1})
	require.NoError(t, q.Shutdown(context.Background()))
	require.NoError(t, q.Shutdown(context.Background()))
}
