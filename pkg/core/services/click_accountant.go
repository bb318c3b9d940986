package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
	"github.com/wadjakorntonsri/sololink/pkg/ports"
)

const clickWriteTimeout = 5 * time.Second

// ClickAccountant counts clicks off the request path. Events go into a
// bounded queue and a fixed pool of workers writes them. When the queue is
// full the event is dropped: counting is at most once, never blocking.
type ClickAccountant struct {
	repo    ports.LinkRepository
	log     *zerolog.Logger
	queue   chan domain.ClickEvent
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewClickAccountant(repo ports.LinkRepository, log *zerolog.Logger, workers, queueSize int) *ClickAccountant {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &ClickAccountant{
		repo:    repo,
		log:     log,
		queue:   make(chan domain.ClickEvent, queueSize),
		workers: workers,
	}
}

// Record queues event and reports whether it was accepted
func (a *ClickAccountant) Record(event domain.ClickEvent) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return false
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}
	select {
	case a.queue <- event:
		return true
	default:
		a.log.Warn().Str("link_id", event.LinkID).Msg("click queue full, dropping event")
		return false
	}
}

// Start launches the workers. Cancelling ctx does not abort writes in
// flight; call Stop to drain and wait.
func (a *ClickAccountant) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := 0; i < a.workers; i++ {
		a.wg.Add(1)
		go func(id int) {
			defer a.wg.Done()
			for event := range a.queue {
				a.process(ctx, id, event)
			}
		}(i)
	}
	a.log.Info().Int("workers", a.workers).Int("queue_size", cap(a.queue)).Msg("click workers started")
}

// Stop refuses new events, lets the workers finish what is queued and waits
func (a *ClickAccountant) Stop() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
	a.log.Info().Msg("click workers stopped")
}

func (a *ClickAccountant) process(ctx context.Context, worker int, event domain.ClickEvent) {
	ctx, cancel := context.WithTimeout(ctx, clickWriteTimeout)
	defer cancel()

	visit := &domain.Visit{
		LinkID:    event.LinkID,
		Referer:   event.Referer,
		UserAgent: event.UserAgent,
		IPHash:    hashIP(event.IP),
		CreatedAt: event.At.UTC(),
	}
	if err := a.repo.IncrementClicks(ctx, visit); err != nil {
		a.log.Warn().Err(err).Int("worker", worker).Str("link_id", event.LinkID).Msg("failed to record click")
	}
}

func hashIP(ip string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

var _ ports.ClickRecorder = (*ClickAccountant)(nil)
