package ports

import (
	"context"
	"io"

	"rmvc/domain/dataset"
	"rmvc/domain/rmvc"
)

// TableReader loads a relation table from some source (file, upload).
type TableReader interface {
	ReadTable(ctx context.Context) (*dataset.Table, error)
}

// TableReaderFunc adapts a function to TableReader.
type TableReaderFunc func(ctx context.Context) (*dataset.Table, error)

func (f TableReaderFunc) ReadTable(ctx context.Context) (*dataset.Table, error) { return f(ctx) }

// ResultExporter writes an analysis result in one output format.
type ResultExporter interface {
	Export(w io.Writer, res *rmvc.Result) error
	ContentType() string
}
