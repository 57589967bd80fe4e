package store

import (
	"sync"

	"github.com/google/uuid"

	"orderview/internal/loader"
	"orderview/internal/model"
	"orderview/internal/paging"
	"orderview/internal/query"
	"orderview/internal/stats"
)

// View is an immutable snapshot of what the presenter should show.
type View struct {
	Generation string              `json:"generation"`
	Source     string              `json:"source"`
	Mode       string              `json:"mode"`
	Criteria   query.Criteria      `json:"criteria"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
	HasPrev    bool                `json:"hasPrev"`
	HasNext    bool                `json:"hasNext"`
	Records    []model.OrderRecord `json:"records"`
	Stats      stats.Stats         `json:"stats"`
}

// Options are the choices offered by the filter controls.
type Options struct {
	Statuses   []string `json:"statuses"`
	PageGroups []string `json:"pageGroups"`
}

// Store owns the loaded dataset and its filtered view. Every method runs to
// completion under the store lock, so events are applied one at a time.
type Store struct {
	mu         sync.RWMutex
	generation string
	source     string
	all        []model.OrderRecord
	filtered   []model.OrderRecord
	criteria   query.Criteria
	stats      stats.Stats
	pager      *paging.Paginator
	options    Options
}

// New returns an empty store paging pageSize records at a time in FixedSize mode.
func New(pageSize int) *Store {
	s := &Store{pager: paging.New(paging.FixedSize, pageSize)}
	s.resetLocked()
	return s
}

// Load replaces the whole dataset and returns the new generation ID. Criteria
// are cleared and the view starts on page 1.
func (s *Store) Load(ds loader.Dataset) string {
	// everything derived from ds is built before the current dataset is touched
	gen := uuid.NewString()
	filtered := query.Filter(ds.Records, query.Criteria{})
	st := stats.Aggregate(filtered)
	opts := Options{Statuses: query.Statuses(ds.Records), PageGroups: query.PageGroups(ds.Records)}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation = gen
	s.source = ds.Source
	s.all = ds.Records
	s.options = opts
	s.criteria = query.Criteria{}
	s.filtered = filtered
	s.stats = st
	s.pager.SetMode(ds.Mode())
	s.pager.Reset(len(filtered))
	return s.generation
}

// Clear drops the dataset.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Apply recomputes the filtered view and stats for c and returns to page 1.
func (s *Store) Apply(c query.Criteria) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = c
	s.refilterLocked()
	return s.viewLocked()
}

// GoTo moves to page; false means the request was out of range and nothing changed.
func (s *Store) GoTo(page int) (bool, View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.pager.GoTo(page)
	return ok, s.viewLocked()
}

func (s *Store) Next() (bool, View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.pager.Next()
	return ok, s.viewLocked()
}

func (s *Store) Prev() (bool, View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.pager.Prev()
	return ok, s.viewLocked()
}

func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

func (s *Store) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}

// Len returns the size of the full, unfiltered dataset.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.all)
}

func (s *Store) resetLocked() {
	s.generation = ""
	s.source = ""
	s.all = nil
	s.options = Options{Statuses: []string{}, PageGroups: []string{}}
	s.pager.SetMode(paging.FixedSize)
	s.criteria = query.Criteria{}
	s.refilterLocked()
}

func (s *Store) refilterLocked() {
	filtered := query.Filter(s.all, s.criteria)
	st := stats.Aggregate(filtered)
	s.filtered = filtered
	s.stats = st
	s.pager.Reset(len(filtered))
}

func (s *Store) viewLocked() View {
	page := paging.Slice(s.pager, s.filtered)
	records := make([]model.OrderRecord, len(page))
	copy(records, page)
	counts := make(map[string]int, len(s.stats.StatusCounts))
	for k, v := range s.stats.StatusCounts {
		counts[k] = v
	}
	st := s.stats
	st.StatusCounts = counts
	return View{
		Generation: s.generation,
		Source:     s.source,
		Mode:       s.pager.Mode().String(),
		Criteria:   s.criteria,
		Page:       s.pager.Page(),
		TotalPages: s.pager.TotalPages(),
		HasPrev:    s.pager.HasPrev(),
		HasNext:    s.pager.HasNext(),
		Records:    records,
		Stats:      st,
	}
}
