package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

// CSVSink writes every table as a CSV file below a base directory.
type CSVSink struct {
	dir string
}

func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{dir: dir}
}

func (s *CSVSink) Write(ctx context.Context, table domain.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := filepath.Join(s.dir, filepath.FromSlash(RelativePath(table)))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", fullPath, err)
	}
	defer file.Close()

	if err := WriteCSV(file, table); err != nil {
		return fmt.Errorf("failed to write %s: %w", describe(table), err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("path", fullPath).
		Int("rows", len(table.Rows)).
		Msg("table written")
	return nil
}

// WriteCSV encodes header and rows of table.
func WriteCSV(w io.Writer, table domain.Table) error {
	writer := csv.NewWriter(w)
	if len(table.Header) > 0 {
		if err := writer.Write(table.Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
