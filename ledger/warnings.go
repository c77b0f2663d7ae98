package ledger

import (
	"fmt"
	"math"
)

// warningTolerance matches how far off a recorded total may be before it is
// worth pointing out.
const warningTolerance = 0.5

// SplitWarnings lists soft problems with how an expense was recorded.
// They never block anything: ComputeBalances normalizes percents and
// rescales custom amounts regardless.
func SplitWarnings(x Expense) []string {
	var warnings []string
	switch s := x.Split.(type) {
	case PercentSplit:
		total := sumPortions(s.Portions).InexactFloat64()
		if total == 0 {
			warnings = append(warnings, "percentages sum to zero; every share will be zero")
		} else if math.Abs(total-100) >= warningTolerance {
			warnings = append(warnings, fmt.Sprintf("percentages total %.1f%%, shares are normalized to 100%%", total))
		}
	case CustomSplit:
		total := sumPortions(s.Portions).InexactFloat64()
		if total == 0 {
			warnings = append(warnings, "custom amounts sum to zero; nothing will be owed for this expense")
		} else if math.Abs(total-x.Amount) >= warningTolerance {
			warnings = append(warnings, fmt.Sprintf("custom amounts total %.2f, rescaled to %.2f", total, x.Amount))
		}
	}
	return warnings
}
