package loan_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shylock/servicing-engine/loan"
)

// =============================================================================
// CSV IMPORT TESTS
// =============================================================================

func TestImportPaymentsCSV_CleanFile(t *testing.T) {
	csv := strings.Join([]string{
		"Payment Date,Amount",
		"2025-01-15,500.00",
		"2025-02-15,500.00",
	}, "\n")

	payments, skipped, err := loan.ImportPaymentsCSV(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, payments, 2)
	assert.Empty(t, skipped)
	assert.True(t, payments[0].Date.Equal(date(2025, 1, 15)))
	assert.True(t, d("500.00").Equal(payments[0].Amount))
}

func TestImportPaymentsCSV_DateAliasAndCurrencyNoise(t *testing.T) {
	// GIVEN: A bank export with "Date" instead of "Payment Date", dollar
	//        signs, thousands separators, and a non-breaking space
	// THEN: Every value is cleaned and parsed

	csv := strings.Join([]string{
		"Date,Amount",
		"01/15/2025,\"$1,234.56\"",
		"2025-02-15,$ 500.00",
	}, "\n")

	payments, skipped, err := loan.ImportPaymentsCSV(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, payments, 2)
	assert.Empty(t, skipped)
	assert.True(t, payments[0].Date.Equal(date(2025, 1, 15)))
	assert.True(t, d("1234.56").Equal(payments[0].Amount))
}

func TestImportPaymentsCSV_SkipsBadRows(t *testing.T) {
	// Negative (parenthesized), zero, unparseable date, unparseable amount:
	// all skipped with a reason, none fatal.

	csv := strings.Join([]string{
		"Payment Date,Amount",
		"2025-01-15,(500.00)",
		"2025-02-15,0",
		"someday,100.00",
		"2025-03-15,one hundred",
		"2025-04-15,250.00",
	}, "\n")

	payments, skipped, err := loan.ImportPaymentsCSV(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, payments, 1)
	assert.True(t, d("250.00").Equal(payments[0].Amount))
	require.Len(t, skipped, 4)
	assert.Equal(t, 2, skipped[0].Line, "line numbers point at the input file")
}

func TestImportPaymentsCSV_MissingAmountColumn(t *testing.T) {
	_, _, err := loan.ImportPaymentsCSV(strings.NewReader("Payment Date,Memo\n2025-01-15,rent"))

	assert.ErrorIs(t, err, loan.ErrMissingAmountColumn)
}

func TestImportPaymentsCSV_MissingDateColumn(t *testing.T) {
	_, _, err := loan.ImportPaymentsCSV(strings.NewReader("Amount\n500"))

	assert.ErrorIs(t, err, loan.ErrMissingDateColumn)
}

func TestImportPaymentsCSV_EmptyFile(t *testing.T) {
	payments, skipped, err := loan.ImportPaymentsCSV(strings.NewReader(""))

	require.NoError(t, err)
	assert.Empty(t, payments)
	assert.Empty(t, skipped)
}

func TestImportPaymentsCSV_ExtraColumnsIgnored(t *testing.T) {
	csv := strings.Join([]string{
		"Memo,Payment Date,Check #,Amount",
		"rent,2025-01-15,1042,500.00",
	}, "\n")

	payments, _, err := loan.ImportPaymentsCSV(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, payments, 1)
	assert.True(t, d("500.00").Equal(payments[0].Amount))
}
