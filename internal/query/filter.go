package query

import (
	"slices"
	"strconv"
	"strings"

	"orderview/internal/model"
)

// Criteria selects records. An empty field does not constrain the result.
type Criteria struct {
	Status    string `json:"status"`
	Search    string `json:"search"`
	PageGroup string `json:"pageGroup"`
}

// IsZero reports whether no criterion is active.
func (c Criteria) IsZero() bool {
	return c.Status == "" && strings.TrimSpace(c.Search) == "" && c.PageGroup == ""
}

// Filter returns the records matching every active criterion, in input order.
// The input slice is not modified.
func Filter(records []model.OrderRecord, c Criteria) []model.OrderRecord {
	needle := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]model.OrderRecord, 0, len(records))
	for _, r := range records {
		if c.Status != "" && r.Status.Name != c.Status {
			continue
		}
		if c.PageGroup != "" && r.PageGroup != c.PageGroup {
			continue
		}
		if needle != "" && !matches(r, needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(r model.OrderRecord, needle string) bool {
	return strings.Contains(strings.ToLower(r.OrderID), needle) ||
		strings.Contains(strings.ToLower(r.Buyer.Name), needle) ||
		strings.Contains(strings.ToLower(r.Seller.Name), needle)
}

// Statuses lists the distinct non-empty status names in first-seen order.
func Statuses(records []model.OrderRecord) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		name := r.Status.Name
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// PageGroups lists the distinct non-empty page groups in ascending order.
// Numeric groups compare numerically and sort before non-numeric ones.
func PageGroups(records []model.OrderRecord) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		g := r.PageGroup
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	slices.SortFunc(out, compareGroups)
	return out
}

func compareGroups(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if fa < fb {
			return -1
		}
		if fa > fb {
			return 1
		}
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
