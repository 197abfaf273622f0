package metrics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/papapumpkin/riskgraph/internal/graph"
)

// Stdout is the output destination that writes to standard output.
const Stdout = "-"

// Header is the fixed column order of a metrics table.
var Header = []string{"node", "type", "degree", "pagerank"}

// ErrBadHeader is returned by ReadCSV when the header row is not Header.
var ErrBadHeader = errors.New("unexpected metrics header")

// WriteCSV writes metrics as CSV. The header row is always written, even
// when ms is empty. PageRank values use the shortest representation that
// parses back to the same float64.
func WriteCSV(w io.Writer, ms []Metric) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("metrics: write header: %w", err)
	}
	row := make([]string, len(Header))
	for _, m := range ms {
		row[0] = m.Node
		row[1] = string(m.Type)
		row[2] = strconv.Itoa(m.Degree)
		row[3] = strconv.FormatFloat(m.PageRank, 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("metrics: write row %q: %w", m.Node, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("metrics: flush: %w", err)
	}
	return nil
}

// WriteCSVFile writes metrics to path, or to stdout when path is Stdout.
// Files are written to a temporary sibling and renamed into place so a
// failed run never leaves a truncated table behind.
func WriteCSVFile(path string, ms []Metric) error {
	if path == Stdout {
		return WriteCSV(os.Stdout, ms)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("metrics: create %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("metrics: create %s: %w", tmp, err)
	}
	if err := WriteCSV(f, ms); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("metrics: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("metrics: rename %s: %w", path, err)
	}
	return nil
}

// ReadCSV parses a metrics table written by WriteCSV.
func ReadCSV(r io.Reader) ([]Metric, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("metrics: read header: %w", err)
	}
	for i, col := range Header {
		if strings.TrimSpace(header[i]) != col {
			return nil, fmt.Errorf("%w: %v", ErrBadHeader, header)
		}
	}

	var out []Metric
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("metrics: read line %d: %w", line, err)
		}
		degree, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("metrics: line %d degree: %w", line, err)
		}
		rank, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("metrics: line %d pagerank: %w", line, err)
		}
		out = append(out, Metric{
			Node:     row[0],
			Type:     graph.NodeType(row[1]),
			Degree:   degree,
			PageRank: rank,
		})
	}
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) ([]Metric, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metrics: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}
