package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/comalice/statekernel/internal/core"
	xlog "github.com/comalice/statekernel/internal/log"
	"github.com/comalice/statekernel/internal/primitives"
	"github.com/comalice/statekernel/internal/production"
)

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

type session struct {
	id string

	mu      sync.Mutex
	m       *core.Machine
	deleted bool
}

func (s *Server) machineOptions(sid string) []core.Option {
	opts := []core.Option{
		core.WithLogger(s.logger.With().Str(xlog.FieldSessionID, sid).Logger()),
		core.WithExprCache(s.cache),
		core.WithObserver(s.metrics),
	}
	if s.tp != nil {
		opts = append(opts, core.WithObserver(production.NewTracer(context.Background(), s.tp)))
	}
	return opts
}

// createSession starts a machine for component at its initial state.
func (s *Server) createSession(ctx context.Context, component string) (*session, error) {
	cfg, err := s.registry.Lookup(component)
	if err != nil {
		return nil, err
	}
	sid := uuid.NewString()
	m, err := core.NewMachine(cfg, s.machineOptions(sid)...)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", component, err)
	}
	sess := &session{id: sid, m: m}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sid] = sess
	s.mu.Unlock()

	s.logger.Debug().Str(xlog.FieldSessionID, sid).Str(xlog.FieldMachineID, component).Msg("session created")
	return sess, nil
}

// lookupSession returns a live session, reloading it from the persister
// when it is not in memory.
func (s *Server) lookupSession(ctx context.Context, sid string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sid]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}
	if s.persister == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sid)
	}
	if _, err := uuid.Parse(sid); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sid)
	}

	snap, err := s.persister.Load(ctx, sid)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sid)
		}
		return nil, err
	}
	cfg, err := s.registry.Lookup(snap.MachineID)
	if err != nil {
		return nil, err
	}
	m, err := core.NewMachineFromSnapshot(cfg, snap, s.machineOptions(sid)...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have restored it first.
	if existing, ok := s.sessions[sid]; ok {
		return existing, nil
	}
	sess = &session{id: sid, m: m}
	s.sessions[sid] = sess
	s.logger.Debug().Str(xlog.FieldSessionID, sid).Msg("session restored")
	return sess, nil
}

// deleteSession drops sid from memory and from the persister. It holds the
// session lock so an in-flight send cannot write the snapshot back.
func (s *Server) deleteSession(ctx context.Context, sid string) error {
	sess, err := s.lookupSession(ctx, sid)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.deleted {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sid)
	}
	sess.deleted = true

	s.mu.Lock()
	delete(s.sessions, sid)
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Delete(ctx, sid); err != nil {
			return fmt.Errorf("delete session %s: %w", sid, err)
		}
	}
	return nil
}

// Restore loads every persisted session into memory and returns how many
// were restored. Snapshots that no longer match their config are skipped.
func (s *Server) Restore(ctx context.Context) (int, error) {
	if s.persister == nil {
		return 0, nil
	}
	keys, err := s.persister.Keys(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, sid := range keys {
		if _, err := s.lookupSession(ctx, sid); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return n, ctxErr
			}
			s.logger.Warn().Err(err).Str(xlog.FieldSessionID, sid).Msg("skipping unrestorable session")
			continue
		}
		n++
	}
	return n, nil
}

// send dispatches ev on the session's machine and persists the result. The
// returned snapshot is taken under the session lock.
func (s *Server) send(ctx context.Context, sess *session, ev primitives.Event) (primitives.TransitionResult, core.MachineSnapshot, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.deleted {
		return primitives.Unhandled(), sess.m.Snapshot(), fmt.Errorf("%w: %s", ErrSessionNotFound, sess.id)
	}

	res, err := sess.m.Dispatch(ev)
	snap := sess.m.Snapshot()
	if err != nil {
		return res, snap, err
	}
	if res.Handled {
		if err := s.saveSnapshot(ctx, sess.id, snap); err != nil {
			return res, snap, err
		}
	}
	return res, snap, nil
}

func (s *Server) snapshot(sess *session) core.MachineSnapshot {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.m.Snapshot()
}

func (s *Server) persist(ctx context.Context, sess *session) error {
	return s.saveSnapshot(ctx, sess.id, s.snapshot(sess))
}

func (s *Server) saveSnapshot(ctx context.Context, sid string, snap core.MachineSnapshot) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(ctx, sid, snap); err != nil {
		return fmt.Errorf("persist session %s: %w", sid, err)
	}
	return nil
}

// sessionCount is the number of sessions held in memory.
func (s *Server) sessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
