package receipt

import (
	"regexp"
	"strings"

	"expensetracker/internal/core"

	"github.com/shopspring/decimal"
)

// amountPattern matches an optional rupee sign, an optional space, digits
// possibly grouped with commas, a point and exactly two decimals.
var amountPattern = regexp.MustCompile(`₹?\s?[\d,]+\.\d{2}`)

// Inference is the outcome of scanning text for amounts.
type Inference struct {
	Amount     core.Money
	Candidates []core.Money
	// Found is false when nothing in the text looked like an amount and
	// Amount fell back to zero.
	Found bool
}

// InferAmount picks the largest currency-formatted value in text. Receipts
// list line items and a total, and the total is normally the largest.
func InferAmount(text string) Inference {
	var (
		inf  Inference
		best decimal.Decimal
	)
	for _, m := range amountPattern.FindAllString(text, -1) {
		v, ok := normalizeCandidate(m)
		if !ok {
			continue
		}
		cents := v.Shift(2).Round(0)
		if !cents.BigInt().IsInt64() {
			continue
		}
		inf.Candidates = append(inf.Candidates, core.Money{Cents: cents.IntPart()})
		if !inf.Found || v.GreaterThan(best) {
			best = v
			inf.Amount = core.Money{Cents: cents.IntPart()}
			inf.Found = true
		}
	}
	return inf
}

func normalizeCandidate(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	digits := strings.ReplaceAll(s, ".", "")
	if digits == "" {
		return decimal.Decimal{}, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return decimal.Decimal{}, false
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return v, true
}
