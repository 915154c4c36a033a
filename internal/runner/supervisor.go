package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sentinel_bot/internal/models"
	"sentinel_bot/internal/runner/sessions"
)

type State string

const (
	StateAbsent   State = "absent"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

// Info describes one registry entry.
type Info struct {
	AccountID int64           `json:"account_id"`
	Name      string          `json:"name"`
	State     State           `json:"state"`
	Session   sessions.Status `json:"session"`
	Error     string          `json:"error,omitempty"`
}

type run struct {
	sess   *sessions.UserSession
	cancel context.CancelFunc
	done   chan struct{}
	state  State
	err    error
}

// Supervisor keeps at most one scan session per account.
type Supervisor struct {
	cfg  sessions.Config
	deps sessions.Deps
	log  *zap.Logger

	mu   sync.Mutex
	runs map[int64]*run
}

func NewSupervisor(cfg sessions.Config, deps sessions.Deps, log *zap.Logger) *Supervisor {
	if log == nil {
		log = zap.NewNop()
	}
	deps.Log = log
	return &Supervisor{
		cfg:  cfg,
		deps: deps,
		log:  log,
		runs: make(map[int64]*run),
	}
}

// Start launches a session for acc. Starting an account that is already
// starting or running is a no-op.
func (s *Supervisor) Start(acc models.Account) (started bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.runs[acc.ID]; ok && (r.state == StateStarting || r.state == StateRunning || r.state == StateStopping) {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		sess:   sessions.New(acc, s.cfg, s.deps),
		cancel: cancel,
		done:   make(chan struct{}),
		state:  StateStarting,
	}
	s.runs[acc.ID] = r

	go func() {
		defer close(r.done)

		s.setState(r, StateRunning, nil)
		s.log.Info("session started", zap.Int64("account", acc.ID))

		err := r.sess.Run(ctx)
		if err != nil {
			s.log.Error("session exited", zap.Int64("account", acc.ID), zap.Error(err))
		} else {
			s.log.Info("session stopped", zap.Int64("account", acc.ID))
		}
		s.setState(r, StateStopped, err)
	}()
	return true
}

func (s *Supervisor) setState(r *run, st State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// a stop request wins over the goroutine reporting it is running
	if st == StateRunning && r.state == StateStopping {
		return
	}
	r.state = st
	r.err = err
}

// Stop cancels the account's session and waits for it to release its
// broker. Stopping an absent or stopped account is a no-op.
func (s *Supervisor) Stop(ctx context.Context, accountID int64) (stopped bool, err error) {
	s.mu.Lock()
	r, ok := s.runs[accountID]
	if !ok || r.state == StateStopped {
		s.mu.Unlock()
		return false, nil
	}
	r.state = StateStopping
	s.mu.Unlock()

	r.cancel()
	select {
	case <-r.done:
		return true, nil
	case <-ctx.Done():
		return false, fmt.Errorf("stop account %d: %w", accountID, ctx.Err())
	}
}

// StopAll stops every session concurrently.
func (s *Supervisor) StopAll(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := s.Stop(gctx, id)
			return err
		})
	}
	return g.Wait()
}

func (s *Supervisor) State(accountID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[accountID]
	if !ok {
		return StateAbsent
	}
	return r.state
}

// Status lists every known account ordered by ID.
func (s *Supervisor) Status() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Info, 0, len(s.runs))
	for id, r := range s.runs {
		info := Info{
			AccountID: id,
			Name:      r.sess.Account.Name,
			State:     r.state,
			Session:   r.sess.Status(),
		}
		if r.err != nil {
			info.Error = r.err.Error()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

// Running counts sessions in the starting or running state.
func (s *Supervisor) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.runs {
		if r.state == StateRunning || r.state == StateStarting {
			n++
		}
	}
	return n
}
