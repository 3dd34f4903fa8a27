package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kkaya/gmedash/internal/normalize"
)

// header is the stable CSV column order for normalized rows.
var header = []string{"date", "interval", "period", "zone", "product", "price", "volume"}

// WriteCSV writes normalized rows to w with a stable header.
func WriteCSV(w io.Writer, rows []normalize.Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Date,
			strconv.Itoa(row.Interval),
			row.Period,
			row.Zone,
			row.Product,
			strconv.FormatFloat(row.Price, 'f', -1, 64),
			strconv.FormatFloat(row.Volume, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes rows to a file, creating parent directories as
// needed. Used by the fetch CLI and the daily collection job.
func SaveCSV(path string, rows []normalize.Row) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, rows); err != nil {
		return err
	}

	return f.Close()
}
