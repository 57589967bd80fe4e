package export

import (
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

var indexPrefix = []byte("order/")

// Index remembers which order IDs have already been exported.
type Index struct {
	db *pebble.DB
}

// OpenIndex opens the index stored in dir, or a throwaway in-memory index
// when dir is empty.
func OpenIndex(dir string) (*Index, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
	} else {
		dir = filepath.Clean(dir)
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrap(err, "pebble open")
	}
	return &Index{db: db}, nil
}

func (x *Index) Close() error { return x.db.Close() }

func indexKey(orderID string) []byte {
	return append(append([]byte(nil), indexPrefix...), orderID...)
}

// Mark is an order ID to record in the index, with the page it was exported from.
type Mark struct {
	OrderID string
	Page    int
}

// Commit records marks in one synced batch: either all of them land or none do.
func (x *Index) Commit(marks []Mark) error {
	if len(marks) == 0 {
		return nil
	}
	b := x.db.NewBatch()
	defer b.Close()
	for _, m := range marks {
		if err := b.Set(indexKey(m.OrderID), []byte(strconv.Itoa(m.Page)), nil); err != nil {
			return errors.Wrapf(err, "index %s", m.OrderID)
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "commit index batch")
	}
	return nil
}

func (x *Index) Has(orderID string) (bool, error) {
	_, closer, err := x.db.Get(indexKey(orderID))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "lookup %s", orderID)
	}
	_ = closer.Close()
	return true, nil
}

// Page returns the page an order was first exported from.
func (x *Index) Page(orderID string) (int, bool) {
	v, closer, err := x.db.Get(indexKey(orderID))
	if err != nil {
		return 0, false
	}
	defer closer.Close()
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Len counts the recorded order IDs.
func (x *Index) Len() (int, error) {
	upper := append([]byte(nil), indexPrefix...)
	upper[len(upper)-1]++
	it, err := x.db.NewIter(&pebble.IterOptions{LowerBound: indexPrefix, UpperBound: upper})
	if err != nil {
		return 0, errors.Wrap(err, "index iterator")
	}
	defer it.Close()
	n := 0
	for it.First(); it.Valid(); it.Next() {
		n++
	}
	return n, nil
}
