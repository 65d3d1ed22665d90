package money

import "github.com/shopspring/decimal"

// Price is a configured amount with an optional discounted amount.
type Price struct {
	Amount         decimal.Decimal  `json:"amount"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
}

// Effective returns the discounted amount when present, otherwise the regular amount.
func (p Price) Effective() decimal.Decimal {
	if p.DiscountAmount != nil {
		return *p.DiscountAmount
	}
	return p.Amount
}

// Line is a single priced entry produced by one of the pricing components.
type Line struct {
	Label    string
	Amount   decimal.Decimal
	Quantity int
}

// Sum adds the amounts of the provided lines.
func Sum(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

// Times multiplies amount by a unit count.
func Times(amount decimal.Decimal, n int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(n)))
}
