// Package watch turns a spool directory into a pipeline trigger: every new
// delimited export dropped into the directory is settled, processed, and
// archived under processed/ or failed/.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/netopsio/srpulse/internal/application/pipeline"
	"github.com/netopsio/srpulse/internal/domain"
)

// PipelineRunner runs the analytics pipeline for one spooled export. The
// result is non-nil whenever the error is nil.
type PipelineRunner interface {
	Execute(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

const (
	processedDir = "processed"
	failedDir    = "failed"

	// pollInterval paces the size-stability probe after the settle delay.
	pollInterval = 250 * time.Millisecond
	// maxSettlePolls bounds how long a still-growing file is waited on.
	maxSettlePolls = 240
)

// Options configure one watcher.
type Options struct {
	// Dir is the spool directory to watch. Must exist.
	Dir string
	// SettleDelay is how long a new file sits before the first size probe.
	SettleDelay time.Duration
	// FixedDate pins every run to one analysis day. Zero means yesterday at
	// processing time.
	FixedDate time.Time
	// RunBaseline rebuilds baseline artifacts on every run.
	RunBaseline bool
}

// Watcher reacts to create events in one spool directory.
type Watcher struct {
	runner PipelineRunner
	opts   Options
	fw     *fsnotify.Watcher
}

// New validates the spool directory, prepares the archive subdirectories, and
// registers the filesystem watch.
func New(runner PipelineRunner, opts Options) (*Watcher, error) {
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("spool directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("spool path %s is not a directory", opts.Dir)
	}
	for _, sub := range []string{processedDir, failedDir} {
		if err := os.MkdirAll(filepath.Join(opts.Dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("prepare %s: %w", sub, err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filesystem watcher: %w", err)
	}
	if err := fw.Add(opts.Dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", opts.Dir, err)
	}

	return &Watcher{runner: runner, opts: opts, fw: fw}, nil
}

// Close releases the filesystem watch.
func (w *Watcher) Close() error { return w.fw.Close() }

// Run blocks handling create events until ctx is done or the watch closes.
// Files are processed one at a time in arrival order.
func (w *Watcher) Run(ctx context.Context) error {
	log.Info().Str("dir", w.opts.Dir).Msg("Watching spool directory")
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !eligible(event.Name) {
				continue
			}
			w.process(ctx, event.Name)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watch error")
		}
	}
}

// eligible keeps regular .csv/.txt files; directories and other extensions
// are left alone.
func eligible(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
	default:
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// process settles the file, runs the pipeline, and archives the file by
// outcome. Warnings still archive to processed/; only errors fail a file.
func (w *Watcher) process(ctx context.Context, path string) {
	day := w.opts.FixedDate
	if day.IsZero() {
		day = domain.Yesterday(time.Now())
	}

	log.Info().Str("file", path).Str("date", day.Format(domain.DateLayout)).Msg("Spool file detected")

	if err := w.waitSettled(ctx, path); err != nil {
		log.Error().Err(err).Str("file", path).Msg("File never settled")
		w.archive(path, failedDir)
		return
	}

	result, err := w.runner.Execute(ctx, pipeline.Options{
		FilePath:     path,
		TargetDate:   day,
		RunIngestion: true,
		RunBaseline:  w.opts.RunBaseline,
	})
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Pipeline run failed")
		w.archive(path, failedDir)
		return
	}
	if result.Status == domain.StatusError {
		log.Error().Str("file", path).Msg("Pipeline run finished with errors")
		w.archive(path, failedDir)
		return
	}

	log.Info().Str("file", path).Str("status", string(result.Status)).Msg("Pipeline run complete")
	w.archive(path, processedDir)
}

// waitSettled waits SettleDelay, then probes the size until two consecutive
// reads agree. Exporters copy large files in; acting early truncates the read.
func (w *Watcher) waitSettled(ctx context.Context, path string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(w.opts.SettleDelay):
	}

	last := int64(-1)
	for i := 0; i < maxSettlePolls; i++ {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat during settle: %w", err)
		}
		if info.Size() == last {
			return nil
		}
		last = info.Size()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return fmt.Errorf("file %s still growing after %d probes", path, maxSettlePolls)
}

// archive renames the file into the named subdirectory of the spool dir.
func (w *Watcher) archive(path, sub string) {
	dest := filepath.Join(w.opts.Dir, sub, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		log.Error().Err(err).Str("file", path).Str("dest", dest).Msg("Archive failed")
		return
	}
	log.Info().Str("dest", dest).Msg("File archived")
}
