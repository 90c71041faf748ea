package engine

import "sort"

// =============================================================================
// DUE-DATE SCHEDULE - Interface for how due dates map to payments
// =============================================================================

// DueDateSchedule resolves the due date a payment is checked against for
// lateness. The cadence is deliberately kept outside the fold: the builder is
// a pure function of (terms, payments, schedule), and callers decide how due
// dates are generated.
type DueDateSchedule interface {
	// DueDateFor returns the due date governing a payment made on the
	// given date.
	DueDateFor(paymentDate Date) Date
}

// =============================================================================
// MONTHLY ANNIVERSARY - due on the origination day of each month
// =============================================================================

// MonthlyAnniversarySchedule puts a due date on the origination day of every
// month, clamped to month end (originated Jan 31 -> due Feb 28). A payment's
// due date is the most recent anniversary on or before the payment date.
type MonthlyAnniversarySchedule struct {
	Origination Date
}

func (s MonthlyAnniversarySchedule) DueDateFor(paymentDate Date) Date {
	orig := s.Origination
	if paymentDate.Before(orig) {
		return orig
	}
	months := (paymentDate.Year()-orig.Year())*12 + int(paymentDate.Month()) - int(orig.Month())
	if paymentDate.Day() < orig.Day() {
		// The anniversary day may have been clamped; only step back when the
		// clamped anniversary actually falls after the payment date.
		if orig.AddMonths(months).After(paymentDate) {
			months--
		}
	}
	return orig.AddMonths(months)
}

// =============================================================================
// EXPLICIT SCHEDULE - caller-supplied due date sequence
// =============================================================================

// ExplicitSchedule carries an externally supplied, ascending sequence of due
// dates (e.g. from a real amortization schedule). A payment's due date is the
// latest listed date on or before the payment; payments before the first due
// date fall back to it.
type ExplicitSchedule struct {
	Dates []Date
}

// NewExplicitSchedule copies and sorts the supplied dates.
func NewExplicitSchedule(dates []Date) ExplicitSchedule {
	sorted := make([]Date, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return ExplicitSchedule{Dates: sorted}
}

func (s ExplicitSchedule) DueDateFor(paymentDate Date) Date {
	if len(s.Dates) == 0 {
		return paymentDate
	}
	// First index strictly after the payment date; the answer precedes it.
	idx := sort.Search(len(s.Dates), func(i int) bool {
		return s.Dates[i].After(paymentDate)
	})
	if idx == 0 {
		return s.Dates[0]
	}
	return s.Dates[idx-1]
}
