package excel

import (
	"log/slog"

	"rmvc/adapters/coercer"
)

// ReaderConfig holds the options of a relation table source
type ReaderConfig struct {
	Sheet          string                 `json:"sheet,omitempty"` // xlsx only; empty means the first sheet
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
	Logger         *slog.Logger           `json:"-"`
}

// DefaultReaderConfig returns sensible defaults for table ingestion
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}

func (c ReaderConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
