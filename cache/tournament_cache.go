// Package cache — префетч-кэш деталей турнира. Снимок (турнир + участники)
// считается свежим в течение фиксированного окна; повторный префетч внутри
// окна не выполняет сетевых обращений. Чтение всегда синхронно и никогда
// не инициирует загрузку.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playgrid/arena/models"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultFreshness — окно свежести снимка.
	DefaultFreshness = 30 * time.Second
	// DefaultMaxEntries ограничивает размер кэша; при переполнении
	// вытесняется самый старый снимок.
	DefaultMaxEntries = 256

	sweepInterval = time.Minute
)

// SnapshotSource загружает данные для снимка. Оба запроса выполняются
// конкурентно.
type SnapshotSource interface {
	GetTournamentByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	ListParticipants(ctx context.Context, tournamentID uuid.UUID) ([]*models.Participant, error)
}

// Snapshot — закэшированное состояние страницы турнира.
type Snapshot struct {
	Tournament   *models.Tournament
	Participants []*models.Participant
	FetchedAt    time.Time
}

type TournamentCache struct {
	source     SnapshotSource
	logger     *slog.Logger
	freshness  time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.RWMutex
	entries map[uuid.UUID]*Snapshot
}

func NewTournamentCache(source SnapshotSource, logger *slog.Logger) *TournamentCache {
	return &TournamentCache{
		source:     source,
		logger:     logger,
		freshness:  DefaultFreshness,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		entries:    make(map[uuid.UUID]*Snapshot),
	}
}

// Prefetch загружает снимок турнира, если в кэше нет свежего. Ошибка загрузки
// логируется и не трогает уже сохранённый снимок.
func (c *TournamentCache) Prefetch(ctx context.Context, id uuid.UUID) error {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.FetchedAt) < c.freshness {
		return nil
	}

	var (
		tournament   *models.Tournament
		participants []*models.Participant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = c.source.GetTournamentByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = c.source.ListParticipants(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.Warn("tournament prefetch failed",
			slog.String("tournament_id", id.String()),
			slog.Any("error", err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = &Snapshot{
		Tournament:   tournament,
		Participants: participants,
		FetchedAt:    c.now(),
	}
	c.evictLocked()
	return nil
}

// GetCached возвращает сохранённый снимок. Сетевых обращений не выполняет;
// снимок может быть устаревшим — решение об обновлении за вызывающим.
func (c *TournamentCache) GetCached(id uuid.UUID) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	return entry, ok
}

// Invalidate сбрасывает снимок; вызывается после мутаций турнира.
func (c *TournamentCache) Invalidate(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Run периодически удаляет протухшие снимки. Блокируется до отмены контекста.
func (c *TournamentCache) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *TournamentCache) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entry := range c.entries {
		if now.Sub(entry.FetchedAt) >= c.freshness {
			delete(c.entries, id)
		}
	}
}

// evictLocked удерживает размер кэша в пределах maxEntries,
// вытесняя самые старые снимки. Вызывается под c.mu.
func (c *TournamentCache) evictLocked() {
	for len(c.entries) > c.maxEntries {
		var (
			oldestID   uuid.UUID
			oldestTime time.Time
		)
		first := true
		for id, entry := range c.entries {
			if first || entry.FetchedAt.Before(oldestTime) {
				oldestID = id
				oldestTime = entry.FetchedAt
				first = false
			}
		}
		delete(c.entries, oldestID)
	}
}
