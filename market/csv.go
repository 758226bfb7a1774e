package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadCSV reads daily bars from a CSV with rows of
// ticker,date,close (date as 2006-01-02). A single header row starting
// with "ticker" is allowed and skipped. Rows may appear in any order.
func LoadCSV(path string) (*History, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price csv: %w", err)
	}
	defer f.Close()

	h := NewHistory()
	if err := readCSV(f, h); err != nil {
		return nil, fmt.Errorf("read price csv %s: %w", path, err)
	}
	return h, nil
}

func readCSV(f io.Reader, h *History) error {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	sawFirst := false
	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "ticker") {
				continue
			}
		}

		ticker, bar, ok, err := parseBarRow(row)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		h.Add(ticker, bar)
	}
}

func parseBarRow(row []string) (string, Bar, bool, error) {
	// Need at least: ticker,date,close
	if len(row) < 3 {
		return "", Bar{}, false, nil
	}

	ticker := strings.TrimSpace(row[0])
	if ticker == "" {
		return "", Bar{}, false, nil
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(row[1]))
	if err != nil {
		return "", Bar{}, false, fmt.Errorf("bad date %q: %w", row[1], err)
	}

	close, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return "", Bar{}, false, fmt.Errorf("bad close %q: %w", row[2], err)
	}

	return ticker, Bar{Date: date, Close: close}, true, nil
}
