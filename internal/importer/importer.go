// Package importer turns CSV statement exports into bulk-create params.
// Column headers are matched case-insensitively in English and Spanish,
// and the file's charset is detected before parsing.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	enc "github.com/jvilaplana/cartera/internal/encoding"
	"github.com/jvilaplana/cartera/internal/transaction"
)

// header aliases, lowercase. The first alias hit wins.
var columns = map[string][]string{
	"date":        {"date", "fecha"},
	"amount":      {"amount", "importe", "cantidad"},
	"type":        {"type", "tipo"},
	"description": {"description", "descripción", "descripcion", "concepto"},
	"category":    {"category", "categoría", "categoria"},
	"notes":       {"notes", "notas"},
}

var dateLayouts = []string{time.DateOnly, "02/01/2006", "02-01-2006"}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads a CSV export. The delimiter is sniffed (comma or semicolon),
// the header row is located by its required columns, and rows that carry
// no parseable date (footers, blanks) are skipped. The wallet the rows
// belong to is supplied by the caller, not the file.
func (p *Parser) Parse(r io.Reader, walletID string) ([]transaction.CreateParams, error) {
	utf8r, err := enc.UTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detecting encoding: %w", err)
	}

	raw, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.Comma = sniffDelimiter(string(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	cols, headerIdx := findHeader(rows)
	if cols == nil {
		return nil, fmt.Errorf("no header row found: need date, amount and description columns")
	}

	idx := func(name string) int {
		if i, ok := cols[name]; ok {
			return i
		}

		return -1
	}

	var params []transaction.CreateParams

	for i, row := range rows[headerIdx+1:] {
		rowNum := headerIdx + i + 2

		date, ok := parseDate(cell(row, idx("date")))
		if !ok {
			continue
		}

		desc := cell(row, idx("description"))
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		amount, err := parseAmount(cell(row, idx("amount")))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		params = append(params, transaction.CreateParams{
			Date:           date,
			Amount:         amount,
			Type:           rowType(cell(row, idx("type")), amount),
			Description:    desc,
			CategoryName:   cell(row, idx("category")),
			Notes:          cell(row, idx("notes")),
			SourceWalletID: walletID,
		})
	}

	return params, nil
}

// findHeader scans for the first row containing the required columns and
// returns a name-to-index map for all recognized ones.
func findHeader(rows [][]string) (map[string]int, int) {
	for rowIdx, row := range rows {
		cols := make(map[string]int)

		for i, cellValue := range row {
			name := strings.ToLower(strings.TrimSpace(cellValue))

			for canonical, aliases := range columns {
				if _, taken := cols[canonical]; taken {
					continue
				}

				for _, alias := range aliases {
					if name == alias {
						cols[canonical] = i
						break
					}
				}
			}
		}

		_, hasDate := cols["date"]
		_, hasAmount := cols["amount"]
		_, hasDesc := cols["description"]

		if hasDate && hasAmount && hasDesc {
			return cols, rowIdx
		}
	}

	return nil, 0
}

func sniffDelimiter(content string) rune {
	line, _, _ := strings.Cut(content, "\n")
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}

	return ','
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// rowType uses the explicit type column when present and falls back to the
// amount's sign.
func rowType(s string, amount float64) transaction.Type {
	switch strings.ToLower(s) {
	case "income", "ingreso":
		return transaction.TypeIncome
	case "expense", "gasto":
		return transaction.TypeExpense
	case "investment", "inversión", "inversion":
		return transaction.TypeInvestment
	case "transfer", "transferencia":
		return transaction.TypeTransfer
	}

	if amount >= 0 {
		return transaction.TypeIncome
	}

	return transaction.TypeExpense
}
