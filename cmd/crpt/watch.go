package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/adamwoolhether/crpt/web/server"
)

type watchFlags struct {
	dir         string
	settle      time.Duration
	signature   string
	metricsAddr string
}

func newWatchCmd(root *rootFlags) *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Submit JSON documents as they appear in a directory",
		Long: `Watch a directory and submit each *.json file created in it.

A file is submitted once no write to it has been seen for --settle, so
files copied in slowly are read whole. Submissions share one throttle.

Examples:
  crpt watch --dir ./outbox
  crpt watch --dir ./outbox --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.load(cmd)
			if err != nil {
				return err
			}

			sig, err := a.signature(flags.signature)
			if err != nil {
				return err
			}

			api, err := a.api()
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if flags.metricsAddr != "" {
				srv := server.New(promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{Registry: a.reg}),
					server.WithHost(flags.metricsAddr),
					server.WithLogger(a.log),
				)
				done := make(chan struct{})
				go func() {
					defer close(done)
					if err := srv.Run(ctx); err != nil {
						a.log.Error("metrics server", "error", err)
					}
				}()
				defer func() { <-done }()
			}

			var outMu sync.Mutex
			submit := func(ctx context.Context, path string) {
				body, err := submitFile(ctx, api, sig, path)
				if err != nil {
					a.log.Error("submit failed", "path", path, "error", err)
					return
				}

				outMu.Lock()
				defer outMu.Unlock()
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, body)
			}

			return watchDir(ctx, a.log, flags.dir, flags.settle, submit, nil)
		},
	}

	cmd.Flags().StringVarP(&flags.dir, "dir", "d", ".", "directory to watch")
	cmd.Flags().DurationVar(&flags.settle, "settle", 100*time.Millisecond, "quiet time after the last write before a file is submitted")
	cmd.Flags().StringVar(&flags.signature, "signature", "", "detached signature, overrides api.signature")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// watchDir calls submit for each *.json file created in dir, settle after
// its last write. It returns once ctx ends and every started submit has
// finished. ready, if set, is called once dir is being watched.
func watchDir(ctx context.Context, log *slog.Logger, dir string, settle time.Duration, submit func(context.Context, string), ready func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	log.Info("watching", "dir", dir, "settle", settle)
	if ready != nil {
		ready()
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	files := newSettler(settle, func(path string) {
		wg.Go(func() { submit(ctx, path) })
	})

	for {
		select {
		case <-ctx.Done():
			files.stop()
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if filepath.Ext(ev.Name) != ".json" {
				continue
			}

			switch {
			case ev.Has(fsnotify.Create):
				if files.created(ev.Name) {
					log.Debug("file created", "path", ev.Name)
				}
			case ev.Has(fsnotify.Write):
				files.written(ev.Name)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			log.Warn("watcher error", "error", err)
		}
	}
}

// settler calls fire for a created path once settle passes without a
// write to it. A path fires at most once per creation, and never after
// stop.
type settler struct {
	settle time.Duration
	fire   func(path string)

	mu      sync.Mutex
	pending map[string]*settling
	stopped bool
}

type settling struct {
	timer *time.Timer
}

// newSettler returns a settler. fire runs with the settler locked and
// must not block.
func newSettler(settle time.Duration, fire func(path string)) *settler {
	return &settler{
		settle:  settle,
		fire:    fire,
		pending: make(map[string]*settling),
	}
}

// created starts the settle timer for path. It reports false if path is
// already pending or the settler is stopped.
func (s *settler) created(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[path]; ok || s.stopped {
		return false
	}

	e := &settling{}
	e.timer = time.AfterFunc(s.settle, func() { s.expire(path, e) })
	s.pending[path] = e

	return true
}

// written restarts the settle timer of a pending path.
func (s *settler) written(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[path]
	if !ok {
		return
	}

	// Stop fails once the timer has fired; its expire is already on the
	// way, and re-arming would fire the path a second time.
	if e.timer.Stop() {
		e.timer.Reset(s.settle)
	}
}

func (s *settler) expire(path string, e *settling) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.pending[path] != e {
		return
	}

	delete(s.pending, path)
	s.fire(path)
}

// stop drops every pending path.
func (s *settler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for path, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, path)
	}
}
