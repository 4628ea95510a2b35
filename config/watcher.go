package config

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher is the behavior expected from any configuration watcher.
type Watcher interface {
	Current() *Config
	Subscribe() <-chan *Config
	Close() error
}

var _ Watcher = (*FileWatcher)(nil)

// FileWatcher hot-reloads configuration from a YAML file. A rewritten
// category table or changed model settings take effect without a restart;
// invalid updates are rejected and the previous configuration stays live.
type FileWatcher struct {
	path    string
	current atomic.Value
	fs      *fsnotify.Watcher
	logger  *zap.Logger

	mu          sync.Mutex
	subscribers []chan *Config
}

// NewFileWatcher loads the initial configuration and starts watching the
// file for writes.
func NewFileWatcher(path string, logger *zap.Logger) (*FileWatcher, error) {
	initial, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load initial config: %w", err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(path); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &FileWatcher{path: path, fs: fs, logger: logger}
	w.current.Store(initial)

	go w.loop()
	return w, nil
}

// Current returns the most recent valid configuration.
func (w *FileWatcher) Current() *Config {
	return w.current.Load().(*Config)
}

// Subscribe returns a channel that receives each new valid configuration.
// Slow subscribers miss intermediate updates rather than blocking reloads.
func (w *FileWatcher) Subscribe() <-chan *Config {
	ch := make(chan *Config, 1)
	w.mu.Lock()
	w.subscribers = append(w.subscribers, ch)
	w.mu.Unlock()
	return ch
}

func (w *FileWatcher) loop() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			// Editors often replace the file, which shows up as Create.
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", zap.Error(err))
		}
	}
}

func (w *FileWatcher) reload() {
	cfg, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("config reload rejected", zap.Error(err))
		return
	}

	w.current.Store(cfg)
	w.logger.Info("configuration reloaded", zap.String("path", w.path))

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subscribers {
		select {
		case ch <- cfg:
		default:
		}
	}
}

// Close stops watching. Subscriber channels are left open; readers should
// stop on their own context.
func (w *FileWatcher) Close() error {
	return w.fs.Close()
}
