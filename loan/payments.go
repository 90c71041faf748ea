package loan

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shylock/servicing-engine/engine"
)

// =============================================================================
// CSV PAYMENT IMPORT - tolerant ingestion of real-world bank exports
// =============================================================================

// ErrMissingAmountColumn is returned when the CSV has no recognizable amount
// column. A missing column is a structural problem; a bad row is not.
var ErrMissingAmountColumn = errors.New("csv: missing amount column")

// ErrMissingDateColumn is returned when neither a "date" nor "payment date"
// column is present.
var ErrMissingDateColumn = errors.New("csv: missing payment date column")

// SkippedRow records one input row the importer dropped and why. Bad rows
// never abort the import; spreadsheets exported by humans always contain a
// few.
type SkippedRow struct {
	Line   int
	Reason string
}

// dateLayouts are tried in order when parsing payment dates.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ImportPaymentsCSV reads a payments CSV and returns valid payment events.
// Header matching is forgiving: names are lowercased with spaces collapsed
// to underscores, and "date" is accepted as an alias for "payment_date".
// Amount cells may carry currency noise ("$1,234.56", non-breaking spaces,
// "(500)" for negatives). Rows with unparseable dates or amounts, and rows
// with non-positive amounts, are skipped and reported.
func ImportPaymentsCSV(r io.Reader) ([]engine.Payment, []SkippedRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // ragged rows are a row problem, not a file problem

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("csv: reading header: %w", err)
	}

	dateIdx, amountIdx := -1, -1
	for i, col := range header {
		switch normalizeHeader(col) {
		case "payment_date":
			dateIdx = i
		case "date":
			if dateIdx == -1 {
				dateIdx = i
			}
		case "amount", "payment_amount":
			amountIdx = i
		}
	}
	if amountIdx == -1 {
		return nil, nil, ErrMissingAmountColumn
	}
	if dateIdx == -1 {
		return nil, nil, ErrMissingDateColumn
	}

	var payments []engine.Payment
	var skipped []SkippedRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			skipped = append(skipped, SkippedRow{Line: line, Reason: "malformed row"})
			continue
		}
		if dateIdx >= len(record) || amountIdx >= len(record) {
			skipped = append(skipped, SkippedRow{Line: line, Reason: "too few columns"})
			continue
		}

		when, err := parsePaymentDate(record[dateIdx])
		if err != nil {
			skipped = append(skipped, SkippedRow{Line: line, Reason: fmt.Sprintf("bad date %q", record[dateIdx])})
			continue
		}
		amount, err := parseAmount(record[amountIdx])
		if err != nil {
			skipped = append(skipped, SkippedRow{Line: line, Reason: fmt.Sprintf("bad amount %q", record[amountIdx])})
			continue
		}
		if !amount.IsPositive() {
			skipped = append(skipped, SkippedRow{Line: line, Reason: "non-positive amount"})
			continue
		}
		payments = append(payments, engine.Payment{Date: when, Amount: amount})
	}
	return payments, skipped, nil
}

func normalizeHeader(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

func parsePaymentDate(s string) (engine.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return engine.DateOf(t), nil
		}
	}
	return engine.Date{}, fmt.Errorf("unrecognized date %q", s)
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	// Accounting convention: (500.00) means -500.00.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	if s == "" {
		return decimal.Decimal{}, errors.New("empty amount")
	}
	return decimal.NewFromString(s)
}
