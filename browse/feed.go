// Package browse — лента турниров с фильтрами. Держит последний успешно
// загруженный список и защищает его от гонок конкурентных перезагрузок:
// каждая перезагрузка получает монотонный токен, и результат с устаревшим
// токеном отбрасывается.
package browse

import (
	"context"
	"log/slog"
	"sync"

	"github.com/playgrid/arena/models"
	"github.com/playgrid/arena/services"
)

// TournamentLister — источник списка турниров по фильтру.
type TournamentLister interface {
	ListTournaments(ctx context.Context, opts services.ListTournamentsOptions) ([]models.Tournament, error)
}

// State — снимок ленты на момент вызова.
type State struct {
	Tournaments []models.Tournament
	Loading     bool
	Err         error
}

type Feed struct {
	lister TournamentLister
	logger *slog.Logger

	mu          sync.Mutex
	token       uint64
	inFlight    int
	tournaments []models.Tournament
	err         error
}

func NewFeed(lister TournamentLister, logger *slog.Logger) *Feed {
	return &Feed{lister: lister, logger: logger}
}

// Reload перезапрашивает список под новым токеном. Если за время запроса
// началась более свежая перезагрузка, результат отбрасывается — лента
// отражает только последний запрос. При ошибке прежний список сохраняется.
func (f *Feed) Reload(ctx context.Context, opts services.ListTournamentsOptions) {
	f.mu.Lock()
	f.token++
	token := f.token
	f.inFlight++
	f.mu.Unlock()

	tournaments, err := f.lister.ListTournaments(ctx, opts)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if token != f.token {
		// Уже стартовала более новая перезагрузка.
		return
	}
	if err != nil {
		f.logger.Warn("tournament feed reload failed", slog.Any("error", err))
		f.err = err
		return
	}
	f.tournaments = tournaments
	f.err = nil
}

// State возвращает текущее состояние ленты.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{
		Tournaments: f.tournaments,
		Loading:     f.inFlight > 0,
		Err:         f.err,
	}
}
