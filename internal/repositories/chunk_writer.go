package repositories

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"paygen/internal/models"
)

// ChunkWriter writes one output chunk (a merchants file plus a transactions
// file covering the same date range) under the output directory. File names
// encode the covered range; writing the same range again overwrites the
// previous files, which is what makes chunk retries safe.
type ChunkWriter struct {
	dir string
}

func NewChunkWriter(dir string) (*ChunkWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &ChunkWriter{dir: dir}, nil
}

func (w *ChunkWriter) TransactionsPath(start, end models.Date) string {
	return filepath.Join(w.dir, fmt.Sprintf("transactions_%s_%s.csv", start, end))
}

func (w *ChunkWriter) MerchantsPath(start, end models.Date) string {
	return filepath.Join(w.dir, fmt.Sprintf("merchants_%s_%s.csv", start, end))
}

// OpenTransactions starts the transactions file for a chunk. Rows are
// streamed through the returned writer so a month's volume never has to sit
// in memory.
func (w *ChunkWriter) OpenTransactions(start, end models.Date) (*TransactionWriter, error) {
	path := w.TransactionsPath(start, end)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(models.TransactionColumns); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header of %s: %w", path, err)
	}
	return &TransactionWriter{path: path, file: f, csv: cw}, nil
}

// WriteMerchants writes the merchants file for a chunk: every merchant
// version whose effective date falls inside the range. An empty chunk still
// gets a header-only file so downstream globs always resolve.
func (w *ChunkWriter) WriteMerchants(start, end models.Date, versions []*models.Merchant) (string, error) {
	path := w.MerchantsPath(start, end)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(models.MerchantColumns); err != nil {
		return "", fmt.Errorf("write header of %s: %w", path, err)
	}
	for _, m := range versions {
		if err := cw.Write(m.Row()); err != nil {
			return "", fmt.Errorf("write merchant row to %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	return path, nil
}

// TransactionWriter streams transaction rows into one chunk file.
type TransactionWriter struct {
	path string
	file *os.File
	csv  *csv.Writer
	rows int64
}

func (tw *TransactionWriter) Path() string { return tw.path }

func (tw *TransactionWriter) Rows() int64 { return tw.rows }

func (tw *TransactionWriter) Write(t *models.Transaction) error {
	if err := tw.csv.Write(t.Row()); err != nil {
		return fmt.Errorf("write transaction row to %s: %w", tw.path, err)
	}
	tw.rows++
	return nil
}

// Close flushes buffered rows and closes the file. The chunk is only durable
// once Close returns nil; the orchestrator persists state after that.
func (tw *TransactionWriter) Close() error {
	tw.csv.Flush()
	if err := tw.csv.Error(); err != nil {
		tw.file.Close()
		return fmt.Errorf("flush %s: %w", tw.path, err)
	}
	if err := tw.file.Sync(); err != nil {
		tw.file.Close()
		return fmt.Errorf("sync %s: %w", tw.path, err)
	}
	return tw.file.Close()
}
