package services

import (
	"time"

	"finanzas/internal/core"
)

const maxHorizon = 120

// ClosingDayIn returns the billing-cycle closing day for month. A closing
// day past the end of the month falls on its last day (31 becomes 30 in
// April and 28 or 29 in February).
func ClosingDayIn(month core.YearMonth, closingDay int) int {
	if last := month.LastDay(); closingDay > last {
		return last
	}
	return closingDay
}

// IsClosed reports whether the billing cycle of today's month has closed.
func IsClosed(today time.Time, closingDay int) bool {
	return today.Day() >= ClosingDayIn(core.MonthOf(today), closingDay)
}

// BillingStart returns the first month still open for payment: the month of
// asOf before its closing day, the following month from the closing day on.
func BillingStart(asOf time.Time, closingDay int) core.YearMonth {
	month := core.MonthOf(asOf)
	if IsClosed(asOf, closingDay) {
		return month.AddMonths(1)
	}
	return month
}

func validateClosingDay(closingDay int) error {
	if closingDay < 1 || closingDay > 31 {
		return core.Invalid("closing_day", core.ErrInvalidClosingDay)
	}
	return nil
}

func validateHorizon(horizon int) error {
	if horizon < 0 || horizon > maxHorizon {
		return core.Invalid("horizon", core.ErrInvalidHorizon)
	}
	return nil
}
