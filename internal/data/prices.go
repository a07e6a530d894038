package data

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrNoCloseColumn is returned when a CSV header has several columns but none
// named close.
var ErrNoCloseColumn = errors.New("no close column")

// FileReader decodes closing prices from one file format.
type FileReader interface {
	Read(r io.Reader) ([]float64, error)
}

// CSVReader reads a close column from CSV. A header row is optional; without
// one, single-column files are read as-is and multi-column files must carry
// a header naming the close column.
type CSVReader struct{}

// JSONReader reads a JSON array of numbers.
type JSONReader struct{}

// ReaderFor picks a reader from the file extension.
func ReaderFor(path string) (FileReader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return CSVReader{}, nil
	case ".json":
		return JSONReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported price file extension %q", filepath.Ext(path))
	}
}

// LoadPrices reads a price file chosen by extension.
func LoadPrices(path string) ([]float64, error) {
	reader, err := ReaderFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()

	prices, err := reader.Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read prices from %s: %w", path, err)
	}
	return prices, nil
}

func (CSVReader) Read(r io.Reader) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	col := -1
	var out []float64
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(rec) {
			continue
		}

		if col < 0 {
			idx, header, err := closeColumn(rec)
			if err != nil {
				return nil, err
			}
			col = idx
			if header {
				continue
			}
		}

		if col >= len(rec) {
			return nil, fmt.Errorf("line %d: missing close column", line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// closeColumn inspects the first record. It reports the close column index
// and whether the record is a header.
func closeColumn(rec []string) (int, bool, error) {
	for i, field := range rec {
		if strings.EqualFold(strings.TrimSpace(field), "close") {
			return i, true, nil
		}
	}
	if len(rec) == 1 {
		_, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		return 0, err != nil, nil
	}
	return -1, false, ErrNoCloseColumn
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func (JSONReader) Read(r io.Reader) ([]float64, error) {
	var out []float64
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// PriceFiles lists the readable price files of dir in name order.
func PriceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list price directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := ReaderFor(e.Name()); err == nil {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// SymbolOf derives a symbol name from a price file path.
func SymbolOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
