package browse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/playgrid/arena/models"
	"github.com/playgrid/arena/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu      sync.Mutex
	results [][]models.Tournament
	errs    []error
	gate    chan struct{}
	filters []models.FilterState
}

func (f *fakeLister) ListTournaments(ctx context.Context, opts services.ListTournamentsOptions) ([]models.Tournament, error) {
	f.mu.Lock()
	f.filters = append(f.filters, opts.Filter)
	var (
		result []models.Tournament
		err    error
	)
	if len(f.results) > 0 {
		result = f.results[0]
		f.results = f.results[1:]
	}
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return result, err
}

func tournaments(names ...string) []models.Tournament {
	out := make([]models.Tournament, 0, len(names))
	for _, name := range names {
		out = append(out, models.Tournament{Name: name})
	}
	return out
}

func TestReloadUpdatesState(t *testing.T) {
	lister := &fakeLister{results: [][]models.Tournament{tournaments("a", "b")}}
	feed := NewFeed(lister, slog.Default())

	feed.Reload(context.Background(), services.ListTournamentsOptions{})

	state := feed.State()
	require.Len(t, state.Tournaments, 2)
	assert.False(t, state.Loading)
	assert.NoError(t, state.Err)
}

func TestReloadErrorKeepsPreviousList(t *testing.T) {
	lister := &fakeLister{
		results: [][]models.Tournament{tournaments("a"), nil},
		errs:    []error{nil, errors.New("backend down")},
	}
	feed := NewFeed(lister, slog.Default())

	feed.Reload(context.Background(), services.ListTournamentsOptions{})
	feed.Reload(context.Background(), services.ListTournamentsOptions{})

	state := feed.State()
	require.Len(t, state.Tournaments, 1)
	assert.Equal(t, "a", state.Tournaments[0].Name)
	assert.Error(t, state.Err)
}

func TestStaleReloadResultIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	lister := &fakeLister{
		results: [][]models.Tournament{tournaments("stale"), tournaments("fresh")},
		gate:    gate,
	}
	feed := NewFeed(lister, slog.Default())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		feed.Reload(context.Background(), services.ListTournamentsOptions{})
	}()
	go func() {
		defer wg.Done()
		feed.Reload(context.Background(), services.ListTournamentsOptions{})
	}()

	// Оба запроса в полёте; обе загрузки завершаются после того, как токен
	// продвинулся дважды — выигрывает только последняя.
	for {
		lister.mu.Lock()
		started := len(lister.filters)
		lister.mu.Unlock()
		if started == 2 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	assert.True(t, feed.State().Loading)
	close(gate)
	wg.Wait()

	state := feed.State()
	require.Len(t, state.Tournaments, 1)
	assert.False(t, state.Loading)
}

func TestSuccessClearsPreviousError(t *testing.T) {
	lister := &fakeLister{
		results: [][]models.Tournament{nil, tournaments("a")},
		errs:    []error{errors.New("backend down"), nil},
	}
	feed := NewFeed(lister, slog.Default())

	feed.Reload(context.Background(), services.ListTournamentsOptions{})
	require.Error(t, feed.State().Err)

	feed.Reload(context.Background(), services.ListTournamentsOptions{})
	state := feed.State()
	assert.NoError(t, state.Err)
	assert.Len(t, state.Tournaments, 1)
}
