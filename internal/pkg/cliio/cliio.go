// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cliio provides output formatting for CLI commands (table, CSV, JSON).
package cliio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
)

// Format represents the output format for CLI commands.
type Format string

const (
	// FormatTable is the default table output format.
	FormatTable Format = "table"
	// FormatCSV is the CSV output format.
	FormatCSV Format = "csv"
	// FormatJSON is the JSON output format.
	FormatJSON Format = "json"
)

// AllFormats returns all formats in the order shown in help text.
func AllFormats() []Format {
	return []Format{FormatTable, FormatCSV, FormatJSON}
}

// ParseFormat parses a string into a Format, returning an error for unknown formats.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	for _, known := range AllFormats() {
		if format == known {
			return format, nil
		}
	}
	return "", fmt.Errorf("unknown format %q, must be one of: table, csv, json", s)
}

// Table is tabular output.
type Table struct {
	// Headers are the column headers.
	Headers []string
	// Rows are the data rows. Each row has one cell per header.
	Rows [][]string
	// Footer is an optional line written below the rows in the table format only.
	Footer string
}

// Write writes the table in the table or CSV format, or the value as JSON.
func Write(writer io.Writer, format Format, table Table, value any) error {
	switch format {
	case FormatTable:
		return WriteTable(writer, table)
	case FormatCSV:
		return WriteCSV(writer, table)
	case FormatJSON:
		return WriteJSON(writer, value)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteTable writes the table with aligned columns.
//
// If the table has a footer, it is written after a blank line.
func WriteTable(writer io.Writer, table Table) error {
	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(table.Headers, "\t")); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if table.Footer != "" {
		// The footer is written outside the tabwriter so it does not widen the first column.
		if _, err := fmt.Fprintf(writer, "\n%s\n", table.Footer); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes the headers and rows as CSV records. The footer is not written.
func WriteCSV(writer io.Writer, table Table) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(table.Headers); err != nil {
		return err
	}
	if err := csvWriter.WriteAll(table.Rows); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteJSON writes objects as JSON with newlines between each object.
func WriteJSON[O any](writer io.Writer, objects ...O) error {
	for _, object := range objects {
		data, err := json.Marshal(object)
		if err != nil {
			return err
		}
		if _, err := writer.Write(data); err != nil {
			return err
		}
		if _, err := writer.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return nil
}
