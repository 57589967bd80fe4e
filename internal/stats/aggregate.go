package stats

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"orderview/internal/model"
)

// Stats summarizes a record collection.
type Stats struct {
	Count        int            `json:"count"`
	TotalPaid    float64        `json:"totalPaid"`
	StatusCounts map[string]int `json:"statusCounts"`
}

// StatusCount is one row of a status ranking.
type StatusCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Aggregate counts the records, sums their paid prices and tallies status names.
// The sum is accumulated in decimal so that, e.g., 0.1+0.2 totals 0.3. Paid
// prices that are NaN or infinite add nothing.
func Aggregate(records []model.OrderRecord) Stats {
	total := decimal.Zero
	counts := make(map[string]int)
	for _, r := range records {
		if p := r.Pricing.PaidPrice; !math.IsNaN(p) && !math.IsInf(p, 0) {
			total = total.Add(decimal.NewFromFloat(p))
		}
		counts[r.Status.Name]++
	}
	return Stats{
		Count:        len(records),
		TotalPaid:    total.InexactFloat64(),
		StatusCounts: counts,
	}
}

// StatusRanking returns the status counts ordered by count, highest first, ties by name.
func (s Stats) StatusRanking() []StatusCount {
	out := make([]StatusCount, 0, len(s.StatusCounts))
	for name, n := range s.StatusCounts {
		out = append(out, StatusCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
