package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// ParseCSV extracts video ids from CSV data containing a "url" column
// (header match is case-insensitive). Quoting follows RFC 4180, including
// doubled-quote escapes. Rows that fail to parse or whose url cell does not
// canonicalize count as rejected. Data without a url column yields an empty
// result.
func ParseCSV(data []byte) Result {
	c := newCollector()

	r := csv.NewReader(strings.NewReader(stripBOM(string(data))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return c.result()
	}

	urlCol := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "url") {
			urlCol = i
			break
		}
	}
	if urlCol < 0 {
		return c.result()
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Malformed row: discard it and keep going.
			c.rejected++
			continue
		}
		if urlCol >= len(record) {
			c.rejected++
			continue
		}
		c.add(strings.TrimSpace(record[urlCol]))
	}

	return c.result()
}
