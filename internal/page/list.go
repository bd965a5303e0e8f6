package page

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Chqrety/reservation/internal/metrics"
	"github.com/Chqrety/reservation/internal/models"
)

// ErrSuperseded is returned by a fetch whose result was discarded because a
// newer one started after it.
var ErrSuperseded = errors.New("page: superseded by a newer fetch")

// Fetcher loads the items matching filter.
type Fetcher[T, F any] func(ctx context.Context, filter F) ([]T, error)

// State is a snapshot of a list view.
type State[T, F any] struct {
	Items   []T
	Filter  F
	Loading bool
	Loaded  bool
	Err     error
	Notice  *models.Notice
}

// ListOptions tunes a ListView.
type ListOptions struct {
	// Debounce delays every Apply; a newer Apply during the wait cancels it.
	Debounce time.Duration
	// FailureText maps a fetch error to the notice shown above the list.
	FailureText func(error) string
}

// ListView is the fetch/filter cycle of one list page. Every fetch takes a
// generation number and only the latest generation may update the state.
type ListView[T, F any] struct {
	name  string
	fetch Fetcher[T, F]
	opts  ListOptions

	mu         sync.Mutex
	state      State[T, F]
	generation uint64
	pending    chan struct{}
}

func NewListView[T, F any](name string, fetch Fetcher[T, F], opts ListOptions) *ListView[T, F] {
	if opts.FailureText == nil {
		opts.FailureText = func(error) string { return "Gagal mengambil data." }
	}
	return &ListView[T, F]{name: name, fetch: fetch, opts: opts}
}

// Apply replaces the filter and re-fetches, honoring the debounce interval.
// The returned error is ErrSuperseded when a newer fetch won, otherwise the
// fetch error, which is also recorded in the state.
func (v *ListView[T, F]) Apply(ctx context.Context, filter F) (State[T, F], error) {
	return v.load(ctx, filter, v.opts.Debounce)
}

// ApplyNow replaces the filter and re-fetches without the debounce wait.
func (v *ListView[T, F]) ApplyNow(ctx context.Context, filter F) (State[T, F], error) {
	return v.load(ctx, filter, 0)
}

// Refresh re-fetches with the current filter without waiting.
func (v *ListView[T, F]) Refresh(ctx context.Context) (State[T, F], error) {
	v.mu.Lock()
	filter := v.state.Filter
	v.mu.Unlock()
	return v.load(ctx, filter, 0)
}

// Ensure fetches once if the view has never loaded.
func (v *ListView[T, F]) Ensure(ctx context.Context) (State[T, F], error) {
	v.mu.Lock()
	loaded := v.state.Loaded
	v.mu.Unlock()
	if loaded {
		return v.Snapshot(), nil
	}
	return v.Refresh(ctx)
}

// Snapshot returns a copy of the current state.
func (v *ListView[T, F]) Snapshot() State[T, F] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *ListView[T, F]) snapshotLocked() State[T, F] {
	s := v.state
	s.Items = append([]T(nil), v.state.Items...)
	return s
}

func (v *ListView[T, F]) load(ctx context.Context, filter F, wait time.Duration) (State[T, F], error) {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	if v.pending != nil {
		close(v.pending)
	}
	cancelled := make(chan struct{})
	v.pending = cancelled
	v.state.Filter = filter
	v.state.Loading = true
	v.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-cancelled:
			timer.Stop()
			metrics.IncSuperseded(v.name)
			return v.Snapshot(), ErrSuperseded
		case <-ctx.Done():
			timer.Stop()
			v.abandon(gen)
			return v.Snapshot(), ctx.Err()
		}
	}

	items, err := v.fetch(ctx, filter)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		metrics.IncSuperseded(v.name)
		return v.snapshotLocked(), ErrSuperseded
	}
	v.pending = nil
	v.state.Loading = false
	if err != nil {
		// Previous items stay visible.
		v.state.Err = err
		v.state.Notice = models.ErrorNotice(v.opts.FailureText(err))
		return v.snapshotLocked(), err
	}
	if items == nil {
		items = []T{}
	}
	v.state.Items = items
	v.state.Loaded = true
	v.state.Err = nil
	v.state.Notice = nil
	return v.snapshotLocked(), nil
}

// abandon clears the loading flag when the latest fetch gave up waiting.
func (v *ListView[T, F]) abandon(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen == v.generation {
		v.state.Loading = false
		v.pending = nil
	}
}
