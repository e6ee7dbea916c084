// Package options provides functional-options configuration for constructing
// a cabinet Engine: the root directory layout, whether the search index is
// enabled, the serializer to use for record payloads, and optional
// diagnostics/integrity-watch hooks.
package options

import (
	"strings"

	"go.uber.org/zap"

	"github.com/cabinetdb/cabinet/pkg/store"
)

// Options collects the construction parameters for an Engine. The zero value
// is not directly usable; call NewDefaultOptions and apply OptionFuncs on
// top, as the pack's storage engines do.
type Options struct {
	// RootDir is the directory under which records/, attachments/, and
	// index/ are created.
	RootDir string

	// IndexEnabled controls whether saves are reflected into a search
	// index. When false, Find and FindTyped always return empty.
	IndexEnabled bool

	// Logger receives structured log output from every component. Defaults
	// to a no-op logger if never set.
	Logger *zap.SugaredLogger

	// DiagnosticsCapacity sizes the buffered channel returned by
	// Engine.Diagnostics. Set it with WithDiagnosticsCapacity.
	DiagnosticsCapacity int

	// IntegrityWatch enables the optional fsnotify-based watcher that flags
	// out-of-band writes to the root directory while the engine is open.
	IntegrityWatch bool

	// Serializer codes application values to and from bytes before
	// encryption. Defaults to compact JSON (store.DefaultSerializer) if never
	// set.
	Serializer store.Serializer
}

// OptionFunc mutates an Options value. Functions are applied in order, so
// later options win over earlier ones.
type OptionFunc func(*Options)

// NewDefaultOptions returns the baseline configuration: indexing enabled, no
// logger, a diagnostics capacity of 16, no integrity watch.
func NewDefaultOptions() Options {
	return Options{
		IndexEnabled:        true,
		DiagnosticsCapacity: 16,
	}
}

// WithRootDir sets the directory under which the engine stores all of its
// data. Blank (after trimming) is ignored, leaving the previous value.
func WithRootDir(dir string) OptionFunc {
	return func(o *Options) {
		dir = strings.TrimSpace(dir)
		if dir != "" {
			o.RootDir = dir
		}
	}
}

// WithIndexEnabled toggles whether saves update the search index.
func WithIndexEnabled(enabled bool) OptionFunc {
	return func(o *Options) {
		o.IndexEnabled = enabled
	}
}

// WithLogger sets the structured logger used by every component.
func WithLogger(logger *zap.SugaredLogger) OptionFunc {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithDiagnosticsCapacity sets the buffer size of the optional diagnostics
// channel. Values below 1 are ignored.
func WithDiagnosticsCapacity(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.DiagnosticsCapacity = n
		}
	}
}

// WithIntegrityWatch enables the fsnotify-based watcher described in
// SPEC_FULL.md §11.
func WithIntegrityWatch(enabled bool) OptionFunc {
	return func(o *Options) {
		o.IntegrityWatch = enabled
	}
}

// WithSerializer overrides the codec used to marshal record values before
// encryption. A nil serializer is ignored, leaving the previous value (or
// the store package's default JSON codec).
func WithSerializer(s store.Serializer) OptionFunc {
	return func(o *Options) {
		if s != nil {
			o.Serializer = s
		}
	}
}
