package budgets

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/planfocus/internal/record"
)

// printer formats amounts with thousand separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// Summary aggregates a budget list.
type Summary struct {
	Count         int     `json:"count"`
	ApprovedCount int     `json:"approvedCount"`
	PendingCount  int     `json:"pendingCount"`
	Total         float64 `json:"total"`
	Approved      float64 `json:"approved"`
	Pending       float64 `json:"pending"`
}

// Summarize totals amounts and counts by approval state.
func Summarize(budgets []record.Budget) Summary {
	var s Summary
	for _, b := range budgets {
		s.Count++
		s.Total += b.Amount
		if b.Approved {
			s.ApprovedCount++
			s.Approved += b.Amount
			continue
		}
		s.PendingCount++
		s.Pending += b.Amount
	}
	return s
}

// ApprovalRate returns the share of budgets approved, in percent.
func (s Summary) ApprovalRate() float64 {
	if s.Count == 0 {
		return 0
	}
	const percent = 100
	return float64(s.ApprovedCount) / float64(s.Count) * percent
}

// FormatAmount renders an amount with two decimals and thousand separators,
// e.g. 1234.5 becomes "1,234.50".
func FormatAmount(amount float64) string {
	return printer.Sprintf("%.2f", amount)
}
