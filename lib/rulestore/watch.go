// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rulestore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bureau-foundation/liteflow/lib/clock"
)

// DefaultDebounce is how long Watch waits after the last event on the
// rule file before calling back.
const DefaultDebounce = 250 * time.Millisecond

// WatchConfig configures Watch.
type WatchConfig struct {
	// Path is the rule file to watch.
	Path string

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Clock schedules the debounce timer. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Watch calls onChange with the absolute rule file path each time the
// rule file is written, created, renamed over, or removed, coalescing
// bursts of events within the debounce window into one call. It
// watches the parent directory because editors commonly replace files
// by rename. Watch blocks until ctx is cancelled and returns nil then.
func Watch(ctx context.Context, config WatchConfig, onChange func(path string)) error {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	target, err := filepath.Abs(config.Path)
	if err != nil {
		return fmt.Errorf("resolving rule file path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}
	config.Logger.Info("watching rule file", "path", target, "debounce", config.Debounce)

	debouncer := newDebouncer(config.Clock, config.Debounce, func() { onChange(target) })
	defer debouncer.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
				!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
				continue
			}
			config.Logger.Debug("rule file event", "op", event.Op.String())
			debouncer.trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			config.Logger.Warn("rule file watcher error", "error", err)
		}
	}
}

// debouncer runs fn once per quiet period: each trigger pushes the
// pending call back by delay.
type debouncer struct {
	clock clock.Clock
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	timer *clock.Timer
}

func newDebouncer(clk clock.Clock, delay time.Duration, fn func()) *debouncer {
	return &debouncer{clock: clk, delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		d.timer = d.clock.AfterFunc(d.delay, d.fn)
		return
	}
	d.timer.Reset(d.delay)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
