package config

import (
	"sync"

	"signalcore/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ChangeListener receives the freshly-loaded config after a reload.
type ChangeListener func(*Config)

// Watcher reloads the config file on change and fans the new snapshot
// out to subscribers. Only runtime-safe tunables should be consumed
// from reloads; structural settings (store paths) need a restart.
type Watcher struct {
	mu        sync.RWMutex
	current   *Config
	listeners []ChangeListener
}

// Watch loads path once and then watches it for changes. A reload that
// fails to parse or validate is logged and dropped; the previous
// snapshot stays active.
func Watch(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{current: cfg}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			logger.Errorf("config reload failed (%s): %v", evt.Name, err)
			return
		}
		w.mu.Lock()
		w.current = next
		listeners := append([]ChangeListener(nil), w.listeners...)
		w.mu.Unlock()
		logger.Infof("config reloaded from %s", evt.Name)
		for _, fn := range listeners {
			fn(next)
		}
	})
	v.WatchConfig()
	return w, nil
}

// Current returns the active config snapshot.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Subscribe registers a listener for future reloads.
func (w *Watcher) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}
