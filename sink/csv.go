package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/tbxark/loanagent/types"
)

// CSVSink appends one row per record to a CSV file. The header row naming every
// record field is written when the file is created or empty.
type CSVSink struct {
	mu   sync.Mutex
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Path() string { return s.path }

func (s *CSVSink) Append(ctx context.Context, rec *types.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := encodeRow(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create csv dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat csv: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(rec.Fields()); err != nil {
			_ = f.Close()
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	if err := w.Write(row); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}

// encodeRow flattens rec in field order. Sequences become JSON arrays so a cell
// keeps its items apart whatever they contain.
func encodeRow(rec *types.Record) ([]string, error) {
	fields := rec.Fields()
	row := make([]string, len(fields))
	for i, name := range fields {
		v := rec.Get(name)
		switch v.Kind() {
		case types.ValueScalar:
			row[i] = v.Text()
		case types.ValueSequence:
			cell, err := sonic.MarshalString(v.Items())
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", name, err)
			}
			row[i] = cell
		}
	}
	return row, nil
}
