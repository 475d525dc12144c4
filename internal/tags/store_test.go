package tags

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kutbudev/invctl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeFetch serves a fixed list and counts calls.
type fakeFetch struct {
	mu    sync.Mutex
	tags  []models.Tag
	err   error
	calls int32
}

func (f *fakeFetch) fetch(ctx context.Context) ([]models.Tag, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Tag, len(f.tags))
	copy(out, f.tags)
	return out, nil
}

func (f *fakeFetch) set(tags []models.Tag, err error) {
	f.mu.Lock()
	f.tags, f.err = tags, err
	f.mu.Unlock()
}

func (f *fakeFetch) count() int { return int(atomic.LoadInt32(&f.calls)) }

func sampleTags() []models.Tag {
	return []models.Tag{
		{ID: 1, Name: "red", Color: "#dc3545", AttachedTabs: []int{10}},
		{ID: 2, Name: "yellow", Color: "#ffc107", AttachedBoxes: []int{20, 21}},
		{ID: 3, Name: "blue", Color: "#0d6efd", AttachedTabs: []int{10}, AttachedItems: []int{30}},
	}
}

func TestNewStoreIsEmpty(t *testing.T) {
	f := &fakeFetch{}
	s := NewStore(f.fetch)

	assert.False(t, s.Loaded())
	assert.Empty(t, s.All())
	_, ok := s.ByID(1)
	assert.False(t, ok)
	assert.Equal(t, 0, f.count())
}

func TestNewStorePanicsWithoutFetch(t *testing.T) {
	assert.Panics(t, func() { NewStore(nil) })
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name      string
		preload   bool
		force     bool
		wantCalls int
	}{
		{name: "first load fetches", preload: false, force: false, wantCalls: 1},
		{name: "loaded store serves cache", preload: true, force: false, wantCalls: 1},
		{name: "forced refresh fetches again", preload: true, force: true, wantCalls: 2},
		{name: "forced first load fetches once", preload: false, force: true, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetch{tags: sampleTags()}
			s := NewStore(f.fetch)
			ctx := context.Background()
			if tt.preload {
				_, err := s.Refresh(ctx, false)
				require.NoError(t, err)
			}

			got, err := s.Refresh(ctx, tt.force)
			require.NoError(t, err)
			assert.Equal(t, sampleTags(), got)
			assert.Equal(t, tt.wantCalls, f.count())
			assert.True(t, s.Loaded())
		})
	}
}

func TestRefreshKeepsFetchOrderAndIndex(t *testing.T) {
	f := &fakeFetch{tags: sampleTags()}
	s := NewStore(f.fetch)
	_, err := s.Refresh(context.Background(), false)
	require.NoError(t, err)

	all := s.All()
	require.Len(t, all, 3)
	for _, tag := range all {
		got, ok := s.ByID(tag.ID)
		require.True(t, ok)
		assert.Equal(t, tag, got)
	}
	assert.Equal(t, []int{1, 2, 3}, []int{all[0].ID, all[1].ID, all[2].ID})
}

func TestRefreshReplacesWholeCache(t *testing.T) {
	f := &fakeFetch{tags: sampleTags()}
	s := NewStore(f.fetch)
	ctx := context.Background()
	_, err := s.Refresh(ctx, false)
	require.NoError(t, err)

	f.set([]models.Tag{{ID: 9, Name: "new"}}, nil)
	_, err = s.Refresh(ctx, true)
	require.NoError(t, err)

	_, ok := s.ByID(1)
	assert.False(t, ok, "tag removed upstream must leave the index")
	tag, ok := s.ByID(9)
	assert.True(t, ok)
	assert.Equal(t, "new", tag.Name)
	assert.Len(t, s.All(), 1)
}

func TestRefreshEmptyResponseStillLoads(t *testing.T) {
	f := &fakeFetch{}
	s := NewStore(f.fetch)
	got, err := s.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, s.Loaded())

	_, err = s.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(), "an empty palette is still a cached palette")
}

func TestRefreshErrorLeavesCacheUntouched(t *testing.T) {
	f := &fakeFetch{tags: sampleTags()}
	s := NewStore(f.fetch)
	ctx := context.Background()
	_, err := s.Refresh(ctx, false)
	require.NoError(t, err)

	boom := errors.New("connection refused")
	f.set(nil, boom)
	_, err = s.Refresh(ctx, true)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, sampleTags(), s.All())
	assert.True(t, s.Loaded())
}

func TestRefreshErrorOnFirstLoad(t *testing.T) {
	f := &fakeFetch{err: errors.New("down")}
	s := NewStore(f.fetch)
	_, err := s.Refresh(context.Background(), false)
	assert.Error(t, err)
	assert.False(t, s.Loaded())
	assert.Empty(t, s.All())
}

func TestByIDs(t *testing.T) {
	f := &fakeFetch{tags: sampleTags()}
	s := NewStore(f.fetch)
	_, err := s.Refresh(context.Background(), false)
	require.NoError(t, err)

	tests := []struct {
		name string
		ids  []int
		want []int
	}{
		{name: "nil ids", ids: nil, want: []int{}},
		{name: "input order wins", ids: []int{3, 1}, want: []int{3, 1}},
		{name: "unknown ids dropped", ids: []int{7, 2, 99}, want: []int{2}},
		{name: "only unknown", ids: []int{100}, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ByIDs(tt.ids)
			ids := make([]int, 0, len(got))
			for _, tag := range got {
				ids = append(ids, tag.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestClear(t *testing.T) {
	f := &fakeFetch{tags: sampleTags()}
	s := NewStore(f.fetch)
	ctx := context.Background()
	_, err := s.Refresh(ctx, false)
	require.NoError(t, err)

	s.Clear()
	assert.False(t, s.Loaded())
	assert.Empty(t, s.All())
	_, ok := s.ByID(1)
	assert.False(t, ok)

	_, err = s.Refresh(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, f.count(), "refresh after clear must fetch")
}

func TestAttachedTo(t *testing.T) {
	f := &fakeFetch{tags: sampleTags()}
	s := NewStore(f.fetch)
	_, err := s.Refresh(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, s.AttachedTo(models.KindTab, 10))
	assert.Equal(t, []int{2}, s.AttachedTo(models.KindBox, 21))
	assert.Equal(t, []int{3}, s.AttachedTo(models.KindItem, 30))
	assert.Equal(t, []int{}, s.AttachedTo(models.KindItem, 10))
}

// gatedFetch blocks each call until its turn is released.
type gatedFetch struct {
	started chan int
	release []chan []models.Tag
	n       int32
}

func (g *gatedFetch) fetch(ctx context.Context) ([]models.Tag, error) {
	i := int(atomic.AddInt32(&g.n, 1)) - 1
	g.started <- i
	return <-g.release[i], nil
}

func TestStaleResponseDoesNotOverwriteNewer(t *testing.T) {
	defer goleak.VerifyNone(t)

	g := &gatedFetch{
		started: make(chan int, 2),
		release: []chan []models.Tag{make(chan []models.Tag, 1), make(chan []models.Tag, 1)},
	}
	s := NewStore(g.fetch)
	ctx := context.Background()

	results := make([][]models.Tag, 2)
	done := []chan struct{}{make(chan struct{}), make(chan struct{})}
	refresh := func(i int) {
		defer close(done[i])
		results[i], _ = s.Refresh(ctx, true)
	}
	go refresh(0)
	<-g.started
	go refresh(1)
	<-g.started

	newer := []models.Tag{{ID: 2, Name: "newer"}}
	older := []models.Tag{{ID: 1, Name: "older"}}
	g.release[1] <- newer
	<-done[1]
	g.release[0] <- older
	<-done[0]

	assert.Equal(t, newer, s.All())
	assert.Equal(t, newer, results[0], "a discarded response returns the current cache")
	_, ok := s.ByID(1)
	assert.False(t, ok)
}

func TestClearDiscardsInFlightRefresh(t *testing.T) {
	defer goleak.VerifyNone(t)

	g := &gatedFetch{
		started: make(chan int, 1),
		release: []chan []models.Tag{make(chan []models.Tag, 1)},
	}
	s := NewStore(g.fetch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Refresh(context.Background(), true)
	}()
	<-g.started
	s.Clear()
	g.release[0] <- sampleTags()
	<-done

	assert.False(t, s.Loaded())
	assert.Empty(t, s.All())
}

func TestConcurrentReadsDuringRefresh(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeFetch{tags: sampleTags()}
	s := NewStore(f.fetch)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Refresh(ctx, true)
		}()
		go func() {
			defer wg.Done()
			for _, tag := range s.All() {
				got, ok := s.ByID(tag.ID)
				if ok {
					assert.Equal(t, tag.ID, got.ID)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, sampleTags(), s.All())
}

func TestReadersGetCopies(t *testing.T) {
	served := sampleTags()
	s := NewStore(func(ctx context.Context) ([]models.Tag, error) { return served, nil })
	ctx := context.Background()

	refreshed, err := s.Refresh(ctx, false)
	require.NoError(t, err)
	refreshed[0].Name = "changed"
	refreshed[0].AttachedTabs[0] = 99

	served[1].Name = "changed"
	served[1].AttachedBoxes[0] = 99

	all := s.All()
	all[2].AttachedItems[0] = 99
	all[0] = models.Tag{ID: 42}

	got, ok := s.ByID(1)
	require.True(t, ok)
	got.AttachedTabs[0] = 99

	byIDs := s.ByIDs([]int{3})
	require.Len(t, byIDs, 1)
	byIDs[0].AttachedTabs[0] = 99

	cached, err := s.Refresh(ctx, false)
	require.NoError(t, err)
	cached[0].AttachedTabs[0] = 99

	assert.Equal(t, sampleTags(), s.All())
	assert.Equal(t, []int{1, 3}, s.AttachedTo(models.KindTab, 10))
}
