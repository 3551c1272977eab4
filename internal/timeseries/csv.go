// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// LoadCSV loads a CSV file whose header names the signals and whose rows are
// time points.
func LoadCSV(path string) (*SignalSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	set, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// ReadCSV reads a signal set from r.
func ReadCSV(r io.Reader) (*SignalSet, error) {
	// 1. Make CSV reader
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	// 2. Read header row
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: empty header", ErrShape)
	}
	N := len(header)
	for j := range header {
		header[j] = strings.TrimSpace(header[j])
	}

	var (
		data []float64 // flat data for mat.Dense
		row  int       // row counter
	)

	// 3. Read each data row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv reports ragged rows as ErrFieldCount
			return nil, fmt.Errorf("%w: read row %d: %v", ErrShape, row+2, err)
		}

		if len(record) == 1 && record[0] == "" {
			continue
		}

		for j, s := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf(
					"parse float at row %d col %d (%q): %w",
					row+2, j+1, s, err,
				)
			}
			data = append(data, v)
		}
		row++
	}

	if row == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrShape)
	}

	// 4. Build mat.Dense
	return &SignalSet{
		Y:     mat.NewDense(row, N, data),
		Names: header,
	}, nil
}
