package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hfarag/ledgerscan/internal/extract"
)

// Header aliases accepted per field, lowercased. The first matching alias
// wins, so exports from different spreadsheet tools map without manual
// configuration.
var columnAliases = map[string][]string{
	"date":    {"date", "transaction date", "التاريخ"},
	"product": {"product", "item", "product name", "المنتج", "الصنف"},
	"qty":     {"qty", "quantity", "الكمية"},
	"price":   {"price", "unit price", "السعر"},
	"revenue": {"revenue", "total", "amount", "الإيراد", "المجموع"},
	"region":  {"region", "area", "المنطقة"},
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006", "02/01/2006", "01/02/2006"}

// LoadCSV reads a reference ledger from CSV. The first row is a header; the
// remaining rows become entries. Numeric and date cells are passed through
// digit normalization first so Arabic-script exports load the same as Latin
// ones. Rows without a product are skipped with a warning rather than
// failing the whole file.
func LoadCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := mapColumns(header)
	if _, ok := columns["product"]; !ok {
		return nil, fmt.Errorf("no product column found in header %v", header)
	}

	var entries []Entry
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", row+1, err)
		}
		row++

		product := strings.TrimSpace(cell(record, columns, "product"))
		if product == "" {
			slog.Warn("Skipping ledger row without product", "row", row)
			continue
		}

		entry := Entry{
			Product: product,
			Qty:     parseNumberCell(cell(record, columns, "qty")),
			Price:   parseNumberCell(cell(record, columns, "price")),
			Revenue: parseNumberCell(cell(record, columns, "revenue")),
			Region:  strings.TrimSpace(cell(record, columns, "region")),
		}
		if d, ok := parseDateCell(cell(record, columns, "date")); ok {
			entry.Date = &d
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// mapColumns resolves header names to field indices via the alias table.
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		for field, aliases := range columnAliases {
			if _, taken := columns[field]; taken {
				continue
			}
			for _, alias := range aliases {
				if name == alias {
					columns[field] = i
					break
				}
			}
		}
	}
	return columns
}

func cell(record []string, columns map[string]int, field string) string {
	idx, ok := columns[field]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// parseNumberCell parses a numeric cell, tolerating Arabic digits and
// grouping commas. Unparseable cells become zero.
func parseNumberCell(s string) float64 {
	s = extract.Normalize(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseDateCell tries the known layouts against a normalized cell.
func parseDateCell(s string) (time.Time, bool) {
	s = extract.Normalize(strings.TrimSpace(s))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.UTC(), true
		}
	}
	return time.Time{}, false
}
