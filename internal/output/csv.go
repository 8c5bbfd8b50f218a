// Package output writes decoded workflow tables to CSV files, SQLite and
// human-readable reports.
package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/dgallion1/sbaggregate/internal/decode"
)

// LockFile guards an output directory against concurrent runs.
const LockFile = ".sbaggregate.lock"

// ErrLocked is returned when another run holds the output directory.
var ErrLocked = errors.New("output directory is locked by another run")

// FileName returns the CSV file name of one table of a result.
func FileName(res *decode.Result, table string) string {
	return res.Slug() + "-" + table + ".csv"
}

// WriteCSV writes every non-empty table of every result into dir and
// returns the paths written.
func WriteCSV(dir string, results []*decode.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	defer lock.Unlock()

	var written []string
	for _, res := range results {
		for _, table := range decode.TableNamesInOrder {
			if res.Len(table) == 0 {
				continue
			}
			path := filepath.Join(dir, FileName(res, table))
			if err := writeFile(path, res, table); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func writeFile(path string, res *decode.Result, table string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteTableCSV(f, res, table); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteTableCSV writes one table, header first.
func WriteTableCSV(w io.Writer, res *decode.Result, table string) error {
	cols := decode.Columns(table)
	if cols == nil {
		return fmt.Errorf("unknown table %q", table)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	if err := cw.WriteAll(res.Rows(table)); err != nil {
		return err
	}
	return cw.Error()
}
