// Package csvfile keeps the ledger in a flat comma separated file with the
// header Date,Amount,Description,Category and one row per expense.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"expensetracker/internal/core"
	"expensetracker/internal/ledger"
)

type Store struct {
	path string
}

// Ensure interface conformance
var _ ledger.Store = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// EnsureExists creates the file with only the header row when it is absent.
func (s *Store) EnsureExists(ctx context.Context) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat ledger file: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create ledger file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ledger.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush header: %w", err)
	}

	slog.InfoContext(ctx, "Initialized ledger file", "path", s.path)
	return nil
}

// Load reads the whole file. A missing file is an empty ledger.
func (s *Store) Load(ctx context.Context) (core.Ledger, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Ledger{}, nil
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var (
		out  core.Ledger
		line int
	)
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return core.Ledger{}, fmt.Errorf("read ledger row %d: %w", line+1, err)
		}
		line++
		if line == 1 && ledger.IsHeader(fields) {
			continue
		}

		e, err := ledger.DecodeRow(fields)
		if errors.Is(err, ledger.ErrUnparsableAmount) {
			slog.WarnContext(ctx, "Coerced unparsable amount to zero", "path", s.path, "row", line, "error", err)
		} else if err != nil {
			slog.DebugContext(ctx, "Coerced ledger row", "path", s.path, "row", line, "error", err)
		}
		out.Entries = append(out.Entries, e)
	}

	return out, nil
}

// Append writes one row at the end of the file without touching existing
// rows. The file is initialized first when missing.
func (s *Store) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if err := s.EnsureExists(ctx); err != nil {
		return "", err
	}

	rows, err := s.countRows()
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	if err := ensureTrailingNewline(f); err != nil {
		return "", err
	}

	w := csv.NewWriter(f)
	if err := w.Write(ledger.EncodeRow(e)); err != nil {
		return "", fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush row: %w", err)
	}

	ref := fmt.Sprintf("csv:%d", rows+1)
	slog.InfoContext(ctx, "Expense appended to ledger file",
		"ref", ref,
		"amount_cents", e.Amount.Cents,
		"category", e.Category,
		"date", e.Date.String())
	return ref, nil
}

// countRows returns the number of data rows currently in the file.
func (s *Store) countRows() (int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return 0, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	n, line := 0, 0
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("count ledger rows: %w", err)
		}
		line++
		if line == 1 && ledger.IsHeader(fields) {
			continue
		}
		n++
	}
	return n, nil
}

// ensureTrailingNewline keeps a hand-edited file without a final newline
// from merging its last row with the appended one.
func ensureTrailingNewline(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat ledger file: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("read ledger tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := f.Write([]byte("\n")); err != nil {
		return fmt.Errorf("terminate last row: %w", err)
	}
	return nil
}
