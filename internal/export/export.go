// Package export turns captured order-list pages into the export file the
// viewer loads, skipping orders that were already exported.
package export

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"orderview/internal/metrics"
	"orderview/internal/model"
)

type Options struct {
	// AfterID, when set, keeps only orders whose numeric ID is greater.
	AfterID string
	Index   *Index
	Sink    Sink
	Metrics *metrics.Registry
	Log     zerolog.Logger
}

// Result counts what happened to the rows of one run.
type Result struct {
	Exported   int
	Duplicates int
	Filtered   int
	Skipped    int
	// LastOrderID is the greatest numeric order ID exported, or the previous
	// AfterID when nothing newer was found.
	LastOrderID string
	// Pending are the orders appended to the sink but not yet recorded in the index.
	Pending []Mark
}

// Run normalizes every row of pages, drops rows without an order ID, orders at
// or below AfterID and orders already exported (in the index or earlier in this
// run), and appends the rest to the sink in page order. It neither closes the
// sink nor writes the index; appended orders are returned in Result.Pending.
func Run(pages []Page, opts Options) (Result, error) {
	if opts.Index == nil || opts.Sink == nil {
		return Result{}, errors.New("export needs an index and a sink")
	}
	res := Result{LastOrderID: opts.AfterID}
	seen := make(map[string]struct{})
	for _, page := range pages {
		records, warnings := model.NormalizeAll(page.Rows, model.APISchema)
		for _, w := range warnings {
			opts.Log.Warn().Int("page", page.Number).Int("row", w.Index).Err(w.Err).Msg("skipped order row")
		}
		res.Skipped += len(warnings)

		for _, rec := range records {
			if rec.OrderID == "" {
				res.Skipped++
				continue
			}
			if opts.AfterID != "" && !GreaterID(rec.OrderID, opts.AfterID) {
				res.Filtered++
				continue
			}
			dup, err := opts.Index.Has(rec.OrderID)
			if err != nil {
				return res, err
			}
			if _, ok := seen[rec.OrderID]; ok || dup {
				res.Duplicates++
				if opts.Metrics != nil {
					opts.Metrics.ExportDuplicates.Inc()
				}
				continue
			}
			if err := opts.Sink.Append(NewEntry(rec, page.Number)); err != nil {
				return res, errors.Wrapf(err, "append order %s", rec.OrderID)
			}
			seen[rec.OrderID] = struct{}{}
			res.Pending = append(res.Pending, Mark{OrderID: rec.OrderID, Page: page.Number})
			res.Exported++
			if opts.Metrics != nil {
				opts.Metrics.ExportedEntries.Inc()
			}
			if isDigits(rec.OrderID) && (res.LastOrderID == "" || GreaterID(rec.OrderID, res.LastOrderID)) {
				res.LastOrderID = rec.OrderID
			}
		}
	}
	return res, nil
}

// Export runs pages through opts.Sink, closes it, and only then records the
// exported orders in the index. If any step fails the index is left as it was,
// so a retry exports the same orders again.
func Export(pages []Page, opts Options) (Result, error) {
	res, err := Run(pages, opts)
	if err != nil {
		_ = opts.Sink.Close()
		return res, err
	}
	if err := opts.Sink.Close(); err != nil {
		return res, errors.Wrap(err, "close sink")
	}
	if err := opts.Index.Commit(res.Pending); err != nil {
		return res, err
	}
	res.Pending = nil
	return res, nil
}

// GreaterID reports whether order ID a is numerically greater than b. IDs are
// compared as arbitrarily long decimal strings; a non-numeric ID is never greater.
func GreaterID(a, b string) bool {
	if !isDigits(a) || !isDigits(b) {
		return false
	}
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
