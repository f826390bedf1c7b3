package monitor

import (
	"context"
	"sync"

	"rotafacil/internal/client/ports"

	"github.com/rs/zerolog/log"
)

// Monitor periodically re-validates one session against the access evaluator.
// It warns once per stretch inside the warning threshold and asks for a
// logout after a denial. A Monitor serves a single session; start a new one
// for the next login.
type Monitor struct {
	session   *ports.Session
	evaluator ports.AccessEvaluatorPort
	notifier  ports.NotifierPort
	onLogout  func()
	policy    Policy
	clock     Clock

	mu      sync.Mutex
	state   State
	stopped bool
	grace   Timer

	recheck   chan struct{}
	due       chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
}

// Options overrides the monitor defaults
type Options struct {
	Policy *Policy
	Clock  Clock
}

// New creates a monitor for session. onLogout is called once, with the
// monitor lock held, when the grace delay after a denial has elapsed; it must
// not call back into the monitor synchronously.
func New(session *ports.Session, evaluator ports.AccessEvaluatorPort, notifier ports.NotifierPort, onLogout func(), opts Options) *Monitor {
	m := &Monitor{
		session:   session,
		evaluator: evaluator,
		notifier:  notifier,
		onLogout:  onLogout,
		policy:    DefaultPolicy(),
		clock:     RealClock(),
		recheck:   make(chan struct{}, 1),
		due:       make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	if opts.Policy != nil {
		m.policy = *opts.Policy
	}
	if opts.Clock != nil {
		m.clock = opts.Clock
	}
	return m
}

// Start activates the monitor: one check right away, then one per interval.
// Calling Start more than once has no effect.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			cancel()
			close(m.done)
			return
		}
		m.cancel = cancel
		m.state = State{Phase: PhaseOK}
		m.mu.Unlock()

		log.Info().Str("user_id", m.session.UserID).Dur("interval", m.policy.Interval).Msg("access monitor started")
		go m.run(ctx)
	})
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	m.check(ctx, true)

	ticker := m.clock.NewTicker(m.policy.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			m.handleTick(ctx)
		case <-m.recheck:
			m.check(ctx, true)
		case <-m.due:
			m.check(ctx, false)
		}
	}
}

func (m *Monitor) handleTick(ctx context.Context) {
	m.check(ctx, false)
}

// check runs one access check. force skips the debounce; LastCheck is still
// moved forward before the request goes out.
func (m *Monitor) check(ctx context.Context, force bool) {
	m.mu.Lock()
	if m.stopped || m.state.Phase == PhaseTerminating || m.state.Phase == PhaseInactive {
		m.mu.Unlock()
		return
	}
	now := m.clock.Now()
	if !force && !ShouldCheck(m.state, now, m.policy) {
		m.mu.Unlock()
		log.Debug().Time("last_check", m.state.LastCheck).Msg("access check skipped by debounce")
		return
	}
	m.state.LastCheck = now
	m.mu.Unlock()

	checkCtx := ctx
	if m.policy.CheckTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, m.policy.CheckTimeout)
		defer cancel()
	}
	result, err := m.evaluator.CheckAccess(checkCtx, m.session.Credential)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("access check failed")
		return
	}

	next, effects := Evaluate(m.state, result, m.policy)
	if next.Phase != m.state.Phase {
		log.Debug().Stringer("from", m.state.Phase).Stringer("to", next.Phase).Msg("access monitor transition")
	}
	m.state = next
	m.apply(effects)
}

// apply must be called with m.mu held
func (m *Monitor) apply(effects []Effect) {
	for _, e := range effects {
		switch eff := e.(type) {
		case Notify:
			m.notifier.Notify(eff.Notice)
		case ScheduleLogout:
			if m.grace != nil {
				continue
			}
			log.Info().Dur("after", eff.After).Msg("access denied; logout scheduled")
			m.grace = m.clock.AfterFunc(eff.After, m.fireLogout)
		}
	}
}

func (m *Monitor) fireLogout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.state.Phase = PhaseInactive
	if m.onLogout != nil {
		m.onLogout()
	}
}

// Recheck asks for a check at the next opportunity, bypassing the debounce
func (m *Monitor) Recheck() {
	select {
	case m.recheck <- struct{}{}:
	default:
	}
}

// Refresh asks for a check at the next opportunity unless one ran within
// the debounce interval
func (m *Monitor) Refresh() {
	select {
	case m.due <- struct{}{}:
	default:
	}
}

// Stop deactivates the monitor. Pending ticks, the grace logout and any
// in-flight check are dropped; nothing is notified once Stop returns.
// Safe to call multiple times.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.state = State{Phase: PhaseInactive}
	if m.grace != nil {
		m.grace.Stop()
		m.grace = nil
	}
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	log.Info().Str("user_id", m.session.UserID).Msg("access monitor stopped")
}

// Done is closed once the monitor goroutine has exited
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// State returns a snapshot of the monitor state
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
