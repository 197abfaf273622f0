package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column candidates, matched case-insensitively against the header row.
// The first candidate present wins.
var (
	senderColumns       = []string{"sender", "from", "from_addr", "from_email", "sender_email"}
	senderDomainColumns = []string{"sender_domain"}
	urlColumns          = []string{"url"}
	domainColumns       = []string{"domain"}
)

// ReadOptions controls how a table is ingested.
type ReadOptions struct {
	// MaxRows caps the number of data rows read. Zero or negative means
	// unlimited.
	MaxRows int

	// DeriveDomains fills empty domain and sender_domain fields from the
	// URL and sender address. See Derive.
	DeriveDomains bool
}

// columns maps each record field to its position in a row, or -1 when the
// table has no such column.
type columns struct {
	sender, senderDomain, url, domain int
}

// Read parses a CSV table with a header row into records. Missing columns
// and short rows leave the corresponding fields empty; extra columns are
// ignored. An input with no header row yields no records.
func Read(r io.Reader, opts ReadOptions) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record: read header: %w", err)
	}
	cols := resolveColumns(header)

	var records []Record
	for rows := 0; opts.MaxRows <= 0 || rows < opts.MaxRows; rows++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record: read row %d: %w", rows+1, err)
		}
		rec := Record{
			Sender:       field(row, cols.sender),
			SenderDomain: field(row, cols.senderDomain),
			URL:          field(row, cols.url),
			Domain:       field(row, cols.domain),
		}
		if opts.DeriveDomains {
			rec = Derive(rec)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string, opts ReadOptions) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("record: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, opts)
}

func resolveColumns(header []string) columns {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if i == 0 {
			key = strings.TrimPrefix(key, "\ufeff")
		}
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	find := func(candidates []string) int {
		for _, c := range candidates {
			if i, ok := pos[c]; ok {
				return i
			}
		}
		return -1
	}
	return columns{
		sender:       find(senderColumns),
		senderDomain: find(senderDomainColumns),
		url:          find(urlColumns),
		domain:       find(domainColumns),
	}
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
