package presence

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Client is the surface the poller drives. DefaultService satisfies it for
// in-process wiring; an HTTP client against the presence routes works the
// same way.
type Client interface {
	Heartbeat(ctx context.Context, projectID, userID string) error
	SetStatus(ctx context.Context, projectID, userID string, status Status) error
	ListActive(ctx context.Context, projectID string) ([]ActiveUser, error)
}

var (
	ErrAlreadyStarted = errors.New("poller already started")
	ErrNotActive      = errors.New("poller is not active")
)

const (
	stateIdle int32 = iota
	stateInitializing
	stateActive
	stateStopped
)

// Poller owns the heartbeat and poll timers for one mounted project view.
// Lifecycle: Idle -> Initializing -> Active -> Stopped. Start sends one
// heartbeat and performs one read before the timers begin; Stop cancels both
// timers unconditionally and is idempotent. Background call failures are
// logged and swallowed: presence is advisory and self-heals on the next tick.
type Poller struct {
	client    Client
	projectID string
	userID    string

	heartbeatEvery time.Duration
	pollEvery      time.Duration

	state atomic.Int32
	wg    sync.WaitGroup
	once  sync.Once

	mu       sync.RWMutex
	cancel   context.CancelFunc
	snapshot []ActiveUser
}

type PollerOptions struct {
	HeartbeatInterval time.Duration
	PollInterval      time.Duration
}

func NewPoller(client Client, projectID, userID string, opts PollerOptions) *Poller {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 30 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	return &Poller{
		client:         client,
		projectID:      projectID,
		userID:         userID,
		heartbeatEvery: opts.HeartbeatInterval,
		pollEvery:      opts.PollInterval,
	}
}

// Start begins the lifecycle and returns immediately. The initial heartbeat
// and read run in the background; the poller is Active once both resolve.
func (p *Poller) Start(ctx context.Context) error {
	// the state transition, cancel func, and waitgroup are published under
	// one lock so a concurrent Stop sees all of them or none
	p.mu.Lock()
	if !p.state.CompareAndSwap(stateIdle, stateInitializing) {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(runCtx)
	return nil
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()
	defer p.state.Store(stateStopped)

	// initial heartbeat, then initial read
	if err := p.client.Heartbeat(ctx, p.projectID, p.userID); err != nil {
		log.Printf("[PRESENCE] initial heartbeat failed: %v", err)
	}
	p.refresh(ctx)

	// stopped during initialization
	if !p.state.CompareAndSwap(stateInitializing, stateActive) {
		return
	}

	heartbeat := time.NewTicker(p.heartbeatEvery)
	defer heartbeat.Stop()
	poll := time.NewTicker(p.pollEvery)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := p.client.Heartbeat(ctx, p.projectID, p.userID); err != nil {
				log.Printf("[PRESENCE] heartbeat failed: %v", err)
			}
		case <-poll.C:
			p.refresh(ctx)
		}
	}
}

// refresh reads the active user list and replaces the local snapshot
// wholesale. The last read always wins over the previous snapshot; a result
// landing after Stop is discarded rather than applied.
func (p *Poller) refresh(ctx context.Context) {
	users, err := p.client.ListActive(ctx, p.projectID)
	if err != nil {
		log.Printf("[PRESENCE] poll failed: %v", err)
		return
	}

	if p.state.Load() == stateStopped {
		return
	}

	p.mu.Lock()
	p.snapshot = users
	p.mu.Unlock()
}

// SetStatus updates the caller's own status. Permitted only while Active;
// calls before initialization completes are rejected with ErrNotActive, not
// queued. On success the snapshot is refreshed immediately so the caller
// sees their own change without waiting for the next poll tick.
func (p *Poller) SetStatus(ctx context.Context, status Status) error {
	if p.state.Load() != stateActive {
		return ErrNotActive
	}

	if err := p.client.SetStatus(ctx, p.projectID, p.userID, status); err != nil {
		return err
	}

	p.refresh(ctx)
	return nil
}

// Stop cancels both timers and waits for the run loop to exit. Idempotent,
// safe to call from any state; in-flight request results are discarded.
func (p *Poller) Stop() {
	p.once.Do(func() {
		p.mu.Lock()
		p.state.Store(stateStopped)
		cancel := p.cancel
		p.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	})
	p.wg.Wait()
}

// Snapshot returns a copy of the last fetched active user list
func (p *Poller) Snapshot() []ActiveUser {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ActiveUser, len(p.snapshot))
	copy(out, p.snapshot)
	return out
}

// MyStatus returns the caller's status from the current snapshot, falling
// back to not_participating when the caller is absent from it.
func (p *Poller) MyStatus() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, u := range p.snapshot {
		if u.UserID == p.userID {
			return u.Status
		}
	}
	return StatusNotParticipating
}
