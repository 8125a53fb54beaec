package core

// MonthTotal is the projected obligation of one calendar month.
type MonthTotal struct {
	Month   YearMonth `json:"month"`
	PersonA Money     `json:"person_a"`
	PersonB Money     `json:"person_b"`
	Total   Money     `json:"total"`
}

// Add charges amount to payer, splitting by ratio when both pay.
func (t *MonthTotal) Add(amount Money, payer Payer, ratio SplitRatio) {
	switch payer {
	case PayerA:
		t.PersonA = t.PersonA.Add(amount)
	case PayerB:
		t.PersonB = t.PersonB.Add(amount)
	default:
		a, b := Split(amount, ratio)
		t.PersonA = t.PersonA.Add(a)
		t.PersonB = t.PersonB.Add(b)
	}
	t.Total = t.PersonA.Add(t.PersonB)
}

// ProjectionSummary aggregates a projection horizon.
type ProjectionSummary struct {
	Months   int   `json:"months"`
	TotalA   Money `json:"total_a"`
	TotalB   Money `json:"total_b"`
	Total    Money `json:"total"`
	AverageA Money `json:"average_a"`
	AverageB Money `json:"average_b"`
	Average  Money `json:"average"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// MethodBalance groups obligations by payment method or debit account.
type MethodBalance struct {
	Method       string `json:"method"`
	Installments int    `json:"installments"`
	Fixed        int    `json:"fixed"`
	DueThisMonth Money  `json:"due_this_month"`
	// Outstanding is the installment debt still to be paid (remaining x amount).
	Outstanding Money `json:"outstanding"`
}
