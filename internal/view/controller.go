// Package view drives a server-paginated collection screen: query state,
// page loading and the create/edit/delete dialogs.
package view

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"

	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/query"
)

var (
	ErrBusy           = errors.New("operation already in progress")
	ErrNoForm         = errors.New("no form is open")
	ErrNoDeleteTarget = errors.New("no delete is awaiting confirmation")
)

// Entity is a row of a collection.
type Entity interface {
	EntityID() string
	DisplayLabel() string
}

// Source is the shared cache the controller reads pages from.
type Source[T any] interface {
	Fetch(ctx context.Context, params model.ListParams) (model.Page[T], error)
	Snapshot(params model.ListParams) query.Snapshot[T]
}

// Ops are the mutations behind the dialogs. F is the form model.
type Ops[T Entity, F any] struct {
	Create func(ctx context.Context, form F) error
	Update func(ctx context.Context, target T, form F) error
	Delete func(ctx context.Context, target T) error
}

// QueryState is the locally owned description of the page being viewed.
// PageIndex is 0-based.
type QueryState struct {
	PageIndex int
	PageSize  int
	SortKey   string
	SortDir   model.SortOrder
	Search    string
	Filters   map[string]string
}

// Params derives the server query for the state.
func (s QueryState) Params() model.ListParams {
	p := model.ListParams{
		Page:    s.PageIndex + 1,
		Limit:   s.PageSize,
		Search:  s.Search,
		Filters: maps.Clone(s.Filters),
	}
	if s.SortKey != "" {
		p.SortBy = s.SortKey
		p.SortOrder = s.SortDir
	}
	return p.Normalize()
}

// State is everything a screen needs to render.
type State[T Entity] struct {
	Query      QueryState
	Rows       []T
	Total      int
	PageCount  int
	Loading    bool
	Stale      bool
	Err        error
	Modal      Modal
	DeletingID string
	Submitting bool
}

type Option func(*QueryState)

func WithPageSize(n int) Option {
	return func(s *QueryState) { s.PageSize = n }
}

func WithSort(key string, dir model.SortOrder) Option {
	return func(s *QueryState) {
		s.SortKey = key
		s.SortDir = dir
	}
}

type Controller[T Entity, F any] struct {
	source Source[T]
	ops    Ops[T, F]
	logger *slog.Logger

	initial QueryState

	mu         sync.Mutex
	state      QueryState
	gen        uint64
	resets     uint64
	page       model.Page[T]
	loading    bool
	err        error
	modal      Modal
	deletingID string
	submitting bool
}

func New[T Entity, F any](source Source[T], ops Ops[T, F], opts ...Option) *Controller[T, F] {
	state := QueryState{PageSize: model.DefaultPageSize, Filters: map[string]string{}}
	for _, opt := range opts {
		opt(&state)
	}
	state.PageSize = pageSize(state.PageSize)
	return &Controller[T, F]{
		source:  source,
		ops:     ops,
		logger:  slog.Default(),
		initial: state,
		state:   cloneState(state),
		modal:   NoModal{},
	}
}

// pageSize bounds n the way the server bounds limit, so page math on the
// state matches the rows actually returned.
func pageSize(n int) int {
	if n < 1 {
		return model.DefaultPageSize
	}
	return min(n, model.MaxPageSize)
}

func cloneState(s QueryState) QueryState {
	s.Filters = maps.Clone(s.Filters)
	if s.Filters == nil {
		s.Filters = map[string]string{}
	}
	return s
}

// Reset returns the controller to its initial query and drops loaded rows,
// errors and any open dialog. Used when the signed-in identity changes.
func (c *Controller[T, F]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.resets++
	c.state = cloneState(c.initial)
	c.page = model.Page[T]{}
	c.err = nil
	c.loading = false
	c.modal = NoModal{}
	c.submitting = false
	c.deletingID = ""
}

func (c *Controller[T, F]) Query() QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneState(c.state)
}

func (c *Controller[T, F]) Params() model.ListParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Params()
}

// Load fetches the page for the current state. A load superseded by a
// later Load or state change is discarded. When the server reports fewer
// rows than the current page needs, the index moves to the last page and
// the load repeats.
func (c *Controller[T, F]) Load(ctx context.Context) error {
	for {
		c.mu.Lock()
		c.gen++
		gen := c.gen
		params := c.state.Params()
		c.loading = true
		c.mu.Unlock()

		page, err := c.source.Fetch(ctx, params)

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			c.logger.DebugContext(ctx, "discarding superseded page", "page", params.Page)
			return nil
		}
		c.loading = false
		if err != nil {
			c.err = err
			c.mu.Unlock()
			return err
		}
		c.err = nil
		c.page = page

		if !c.clampLocked(page.Total) {
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
	}
}

// clampLocked keeps PageIndex*PageSize below total. It reports whether
// the index moved.
func (c *Controller[T, F]) clampLocked(total int) bool {
	last := 0
	if total > 0 {
		last = model.PageCount(total, c.state.PageSize) - 1
	}
	if c.state.PageIndex <= last {
		return false
	}
	c.state.PageIndex = last
	return true
}

func (c *Controller[T, F]) View() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	params := c.state.Params()
	snap := c.source.Snapshot(params)

	page := c.page
	if snap.Status == query.StatusSuccess && !snap.Placeholder {
		page = snap.Page
	}
	return State[T]{
		Query:      cloneState(c.state),
		Rows:       page.Items,
		Total:      page.Total,
		PageCount:  model.PageCount(page.Total, c.state.PageSize),
		Loading:    c.loading || snap.Fetching,
		Stale:      snap.Stale,
		Err:        c.err,
		Modal:      c.modal,
		DeletingID: c.deletingID,
		Submitting: c.submitting,
	}
}

// changeLocked applies a state change. Superseded loads are discarded and
// resetPage moves back to the first page.
func (c *Controller[T, F]) changeLocked(resetPage bool) {
	c.gen++
	c.loading = false
	if resetPage {
		c.state.PageIndex = 0
	}
}

func (c *Controller[T, F]) SetPageIndex(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 {
		i = 0
	}
	if i == c.state.PageIndex {
		return
	}
	c.state.PageIndex = i
	c.changeLocked(false)
}

func (c *Controller[T, F]) NextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if (c.state.PageIndex+1)*c.state.PageSize >= c.page.Total {
		return false
	}
	c.state.PageIndex++
	c.changeLocked(false)
	return true
}

func (c *Controller[T, F]) PrevPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.PageIndex == 0 {
		return false
	}
	c.state.PageIndex--
	c.changeLocked(false)
	return true
}

func (c *Controller[T, F]) SetPageSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 {
		return
	}
	n = pageSize(n)
	if n == c.state.PageSize {
		return
	}
	c.state.PageSize = n
	c.changeLocked(true)
}

// SetSort changes the ordering and returns to the first page. An empty key
// removes sorting.
func (c *Controller[T, F]) SetSort(key string, dir model.SortOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == "" {
		dir = ""
	} else if !dir.IsValid() {
		dir = model.SortAsc
	}
	if key == c.state.SortKey && dir == c.state.SortDir {
		return
	}
	c.state.SortKey = key
	c.state.SortDir = dir
	c.changeLocked(true)
}

// CycleSort steps key through ascending, descending and unsorted.
func (c *Controller[T, F]) CycleSort(key string) {
	c.mu.Lock()
	cur, dir := c.state.SortKey, c.state.SortDir
	c.mu.Unlock()

	switch {
	case cur != key:
		c.SetSort(key, model.SortAsc)
	case dir == model.SortAsc:
		c.SetSort(key, model.SortDesc)
	default:
		c.SetSort("", "")
	}
}

// SetSearch applies settled search text and returns to the first page.
func (c *Controller[T, F]) SetSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if text == c.state.Search {
		return
	}
	c.state.Search = text
	c.changeLocked(true)
}

// SetFilter sets one structured filter; an empty value clears it.
func (c *Controller[T, F]) SetFilter(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Filters[name] == value {
		return
	}
	if value == "" {
		delete(c.state.Filters, name)
	} else {
		c.state.Filters[name] = value
	}
	c.changeLocked(true)
}

func (c *Controller[T, F]) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.state.Filters) == 0 && c.state.Search == "" {
		return
	}
	c.state.Filters = map[string]string{}
	c.state.Search = ""
	c.changeLocked(true)
}
