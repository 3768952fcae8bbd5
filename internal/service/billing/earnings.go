package billing

import (
	"math"
	"time"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
)

// Summarize aggregates the earnings dashboard figures from raw transactions.
// Only paid transactions count towards totals; pending ones are summed
// separately. Months are calendar months in now's location.
func Summarize(txs []model.Transaction, now time.Time) model.EarningsSummary {
	thisYear, thisMonth, _ := now.Date()
	lastMonthStart := time.Date(thisYear, thisMonth-1, 1, 0, 0, 0, 0, now.Location())
	lastYear, lastMonth, _ := lastMonthStart.Date()

	var sum model.EarningsSummary
	for _, tx := range txs {
		switch tx.Status {
		case model.TransactionStatusPaid:
			sum.TotalEarnings += tx.Amount
			sum.CompletedCount++

			y, m, _ := tx.Date.In(now.Location()).Date()
			switch {
			case y == thisYear && m == thisMonth:
				sum.ThisMonth += tx.Amount
			case y == lastYear && m == lastMonth:
				sum.LastMonth += tx.Amount
			}
		case model.TransactionStatusPending:
			sum.PendingAmount += tx.Amount
		}
	}

	sum.Growth = Growth(sum.ThisMonth, sum.LastMonth)
	if sum.CompletedCount > 0 {
		sum.AverageTransaction = round2(sum.TotalEarnings / float64(sum.CompletedCount))
	}
	return sum
}

// Growth is the month-over-month change in percent, 0 when last is 0.
func Growth(this, last float64) float64 {
	if last == 0 {
		return 0
	}
	return round2((this - last) * 100 / last)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FilterTransactions narrows the listed transactions by period and status.
func FilterTransactions(txs []model.Transaction, q model.EarningsQuery, now time.Time) []model.Transaction {
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if q.Status != "" && tx.Status != q.Status {
			continue
		}
		if !inPeriod(tx.Date.Time, q.Period, now) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func inPeriod(date time.Time, p model.EarningsPeriod, now time.Time) bool {
	date = date.In(now.Location())
	switch p {
	case model.PeriodWeek:
		return !date.Before(now.AddDate(0, 0, -7)) && !date.After(now)
	case model.PeriodMonth:
		return date.Year() == now.Year() && date.Month() == now.Month()
	case model.PeriodYear:
		return date.Year() == now.Year()
	}
	return true
}
