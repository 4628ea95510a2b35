package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue/v2"

	"github.com/bellhop-ai/bellhop/server/metrics"
)

type queueContextKey string

const queuePositionKey queueContextKey = "queue_position"

// AdmissionQueue bounds the number of in-flight classification requests.
// Requests beyond the configured maximum are rejected with 503 instead of
// piling up behind a slow model provider. Each admitted request holds a
// FIFO slot until it finishes; slots are released via defer so panics
// cannot leak them.
type AdmissionQueue struct {
	queue         *queue.Queue[chan struct{}]
	maxSize       atomic.Int64
	mu            sync.RWMutex
	processing    int32
	metrics       *metrics.Metrics
	statePath     string
	persistTicker *time.Ticker
	done          chan struct{}
	closeOnce     sync.Once
}

// QueueState is the persisted queue configuration, restored on restart.
type QueueState struct {
	MaxSize     int64     `json:"max_size"`
	QueueLength int       `json:"queue_length"`
	LastSaved   time.Time `json:"last_saved"`
}

// QueueConfig controls queue capacity and optional state persistence.
// An empty StatePath disables persistence.
type QueueConfig struct {
	InitialSize  int64
	Metrics      *metrics.Metrics
	StatePath    string
	SaveInterval time.Duration
}

// NewAdmissionQueue creates the queue and, when a state path is set,
// restores the previously saved maximum size and starts periodic saves.
func NewAdmissionQueue(cfg QueueConfig) *AdmissionQueue {
	q := &AdmissionQueue{
		queue:     queue.New[chan struct{}](),
		metrics:   cfg.Metrics,
		statePath: cfg.StatePath,
		done:      make(chan struct{}),
	}

	q.maxSize.Store(cfg.InitialSize)

	if cfg.StatePath != "" {
		if err := q.loadState(); err != nil {
			if q.metrics != nil {
				q.metrics.ErrorsTotal.WithLabelValues("queue_load_state").Inc()
			}
		}
		if cfg.SaveInterval > 0 {
			q.persistTicker = time.NewTicker(cfg.SaveInterval)
			go q.persistStateRoutine()
		}
	}

	return q
}

func (q *AdmissionQueue) loadState() error {
	if q.statePath == "" {
		return nil
	}

	data, err := os.ReadFile(q.statePath)
	if err != nil {
		return err
	}

	var state QueueState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	q.maxSize.Store(state.MaxSize)
	return nil
}

// saveState writes to a temporary file and renames it into place, so a
// crash mid-save cannot corrupt the state file.
func (q *AdmissionQueue) saveState() error {
	if q.statePath == "" {
		return nil
	}

	q.mu.RLock()
	state := QueueState{
		MaxSize:     q.maxSize.Load(),
		QueueLength: q.queue.Length(),
		LastSaved:   time.Now(),
	}
	q.mu.RUnlock()

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(q.statePath), 0755); err != nil {
		return err
	}

	tmpFile := q.statePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpFile, q.statePath)
}

func (q *AdmissionQueue) persistStateRoutine() {
	for {
		select {
		case <-q.persistTicker.C:
			if err := q.saveState(); err != nil && q.metrics != nil {
				q.metrics.ErrorsTotal.WithLabelValues("queue_persistence").Inc()
			}
		case <-q.done:
			q.persistTicker.Stop()
			_ = q.saveState()
			return
		}
	}
}

// Shutdown stops persistence and waits for in-flight requests to drain,
// bounded by the context and a 5 second deadline.
func (q *AdmissionQueue) Shutdown(ctx context.Context) error {
	q.closeOnce.Do(func() { close(q.done) })

	if q.persistTicker != nil {
		q.persistTicker.Stop()
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		q.mu.RLock()
		drained := q.queue.Length() == 0 && atomic.LoadInt32(&q.processing) == 0
		q.mu.RUnlock()
		if drained {
			if err := q.saveState(); err != nil && q.metrics != nil {
				q.metrics.ErrorsTotal.WithLabelValues("queue_persistence").Inc()
			}
			return nil
		}
		select {
		case <-ctx.Done():
			if q.metrics != nil {
				q.metrics.ErrorsTotal.WithLabelValues("queue_shutdown_timeout").Inc()
			}
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	if q.metrics != nil {
		q.metrics.ErrorsTotal.WithLabelValues("queue_shutdown_timeout").Inc()
	}
	return nil
}

// SetMaxSize changes the admission limit at runtime, for config reloads.
func (q *AdmissionQueue) SetMaxSize(size int64) {
	q.maxSize.Store(size)
	if q.statePath != "" {
		go func() {
			if err := q.saveState(); err != nil && q.metrics != nil {
				q.metrics.ErrorsTotal.WithLabelValues("queue_persistence").Inc()
			}
		}()
	}
}

func (q *AdmissionQueue) QueueLength() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.queue.Length()
}

func (q *AdmissionQueue) MaxSize() int64 {
	return q.maxSize.Load()
}

func (q *AdmissionQueue) Processing() int32 {
	return atomic.LoadInt32(&q.processing)
}

// Handler admits the request into the queue or rejects it when full.
func (q *AdmissionQueue) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		q.mu.Lock()
		currentSize := q.queue.Length()
		maxSize := q.maxSize.Load()

		if q.metrics != nil {
			q.metrics.ActiveRequests.WithLabelValues("queued").Set(float64(currentSize))
		}

		if int64(currentSize) >= maxSize {
			q.mu.Unlock()
			if q.metrics != nil {
				q.metrics.ErrorsTotal.WithLabelValues("queue_full").Inc()
			}
			http.Error(w, "Queue is full", http.StatusServiceUnavailable)
			return
		}

		done := make(chan struct{})
		q.queue.Add(done)
		q.mu.Unlock()

		atomic.AddInt32(&q.processing, 1)
		if q.metrics != nil {
			q.metrics.ActiveRequests.WithLabelValues("processing").Inc()
		}

		defer func() {
			atomic.AddInt32(&q.processing, -1)
			if q.metrics != nil {
				q.metrics.ActiveRequests.WithLabelValues("processing").Dec()
			}
			close(done)
			q.mu.Lock()
			q.queue.Remove()
			if q.metrics != nil {
				q.metrics.ActiveRequests.WithLabelValues("queued").Set(float64(q.queue.Length()))
			}
			q.mu.Unlock()

			if q.metrics != nil {
				q.metrics.RequestDuration.WithLabelValues("queue_wait").Observe(time.Since(start).Seconds())
			}
		}()

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), queuePositionKey, currentSize)))
	})
}
