package transform

import (
	"io"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/pyview/hiergraph/pkg/errors"
)

const (
	// DefaultChunkSize is the number of records processed between progress
	// reports and cooperative yields.
	DefaultChunkSize = 500

	// MaxChunkSize bounds ChunkSize.
	MaxChunkSize = 1 << 20
)

// Options configures a transformation run.
type Options struct {
	// ChunkSize is the number of records per chunk. Zero means DefaultChunkSize.
	ChunkSize int

	// OnProgress, if set, is called after every chunk.
	OnProgress ProgressFunc

	// Yield is called after every chunk to hand control back to the host.
	// Nil means runtime.Gosched.
	Yield func()

	// RunID labels the run in logs and hooks. Empty means a random UUID.
	RunID string

	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ChunkSize < 0 || o.ChunkSize > MaxChunkSize {
		return errors.New(errors.ErrCodeInvalidInput, "chunk size %d out of range (must be 1-%d)", o.ChunkSize, MaxChunkSize)
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Yield == nil {
		o.Yield = runtime.Gosched
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}
