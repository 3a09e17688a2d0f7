package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"alcyxob/workout-planner/internal/cloudsync"
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/identity"
	"alcyxob/workout-planner/internal/localstore"
	"alcyxob/workout-planner/internal/plan"
	"alcyxob/workout-planner/internal/repository"
	"alcyxob/workout-planner/internal/storage"
)

var (
	ErrNotSignedIn       = errors.New("operation requires a signed-in account")
	ErrBackupUnavailable = errors.New("backup storage is not configured")
)

// PlanService owns the in-process plan state. It is the only component
// that mutates the state, always through the transition functions, and
// it fans every change out to local storage, the sync reconciler and the
// goal monitor. All methods are safe for concurrent use.
type PlanService struct {
	mu    sync.Mutex
	state domain.PlanState

	local   *localstore.Adapter
	rec     *cloudsync.Reconciler
	monitor *cloudsync.GoalMonitor
	ids     identity.Provider
	backup  storage.BackupStorage

	unsubscribe func()
	prevID      string
	seenFirst   bool
}

// NewPlanService loads the last locally stored state (or the default
// skeleton) and wires itself into the identity stream. The reconciler is
// attached separately because its remote-apply callback points back at
// this service.
func NewPlanService(local *localstore.Adapter, monitor *cloudsync.GoalMonitor, ids identity.Provider, backup storage.BackupStorage) *PlanService {
	s := &PlanService{
		local:   local,
		monitor: monitor,
		ids:     ids,
		backup:  backup,
	}
	if stored := local.Load(); stored != nil {
		s.state = *stored
	} else {
		s.state = domain.DefaultPlanState()
	}
	return s
}

// AttachReconciler binds the reconciler and starts reacting to identity
// changes. Call once during wiring, after the reconciler was constructed
// with this service's ApplyRemote as its callback.
func (s *PlanService) AttachReconciler(rec *cloudsync.Reconciler) {
	s.rec = rec
	s.unsubscribe = s.ids.Subscribe(s.onIdentity)
}

// Close detaches from the identity stream.
func (s *PlanService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// ApplyRemote replaces the in-memory state with an authoritative remote
// snapshot. Invoked by the reconciler during first-sign-in
// reconciliation; local storage was already updated by the caller.
func (s *PlanService) ApplyRemote(state domain.PlanState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// State returns a snapshot of the current plan state.
func (s *PlanService) State() domain.PlanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SyncStatus exposes the reconciler's read-only status for display.
func (s *PlanService) SyncStatus() cloudsync.Status {
	return s.rec.Status()
}

// --- transition surface -----------------------------------------------------

func (s *PlanService) AddExercise(ex domain.Exercise) domain.PlanState {
	return s.apply(func(st domain.PlanState) domain.PlanState { return plan.AddExercise(st, ex) })
}

func (s *PlanService) RemoveExercise(id string) domain.PlanState {
	return s.apply(func(st domain.PlanState) domain.PlanState { return plan.RemoveExercise(st, id) })
}

func (s *PlanService) UpdateExercise(ex domain.Exercise) domain.PlanState {
	return s.apply(func(st domain.PlanState) domain.PlanState { return plan.UpdateExercise(st, ex) })
}

func (s *PlanService) MoveExercise(idx, dir int) domain.PlanState {
	return s.apply(func(st domain.PlanState) domain.PlanState { return plan.MoveExercise(st, idx, dir) })
}

func (s *PlanService) BumpSession(delta int) domain.PlanState {
	return s.apply(func(st domain.PlanState) domain.PlanState { return plan.BumpSession(st, delta) })
}

func (s *PlanService) SetEffort(rpe int) domain.PlanState {
	return s.apply(func(st domain.PlanState) domain.PlanState { return plan.SetEffort(st, rpe) })
}

func (s *PlanService) SetProgression(pct int, gentle bool) domain.PlanState {
	return s.apply(func(st domain.PlanState) domain.PlanState { return plan.SetProgression(st, pct, gentle) })
}

func (s *PlanService) SetActiveGoal(goalID, goalName string) domain.PlanState {
	return s.apply(func(st domain.PlanState) domain.PlanState { return plan.SetActiveGoal(st, goalID, goalName) })
}

func (s *PlanService) SetRestDuration(seconds int) domain.PlanState {
	return s.apply(func(st domain.PlanState) domain.PlanState { return plan.SetRestDuration(st, seconds) })
}

func (s *PlanService) StartRest() domain.PlanState {
	return s.apply(plan.StartRest)
}

func (s *PlanService) StopRest() domain.PlanState {
	return s.apply(plan.StopRest)
}

func (s *PlanService) ResetRest() domain.PlanState {
	return s.apply(plan.ResetRest)
}

func (s *PlanService) TickRest() domain.PlanState {
	return s.apply(plan.TickRest)
}

// CompleteSession runs the session-completion transition and nudges the
// goal monitor, whose history trigger fires on the grown log.
func (s *PlanService) CompleteSession(ctx context.Context) domain.PlanState {
	next := s.apply(func(st domain.PlanState) domain.PlanState {
		return plan.CompleteSession(st, time.Now())
	})
	if account := s.ids.Current(); account != "" {
		s.monitor.OnHistoryChange(ctx, account, next.History)
	}
	return next
}

// PlanText renders the current plan as shareable text.
func (s *PlanService) PlanText() string {
	return plan.Text(s.State())
}

// --- reset and backup -------------------------------------------------------

// ResetLocal wipes the local copy and restores the default skeleton. The
// remote snapshot, if any, is untouched.
func (s *PlanService) ResetLocal() domain.PlanState {
	s.mu.Lock()
	s.state = domain.DefaultPlanState()
	next := s.state.Clone()
	s.mu.Unlock()

	s.local.Wipe()
	if account := s.ids.Current(); account != "" {
		s.local.ClearMeta(account)
	}
	s.rec.OnLocalChange(next)
	return next
}

// ResetEverywhere deletes the remote snapshot and the local copy, and
// forgets the account's reconciliation memory so a later sign-in starts
// from scratch.
func (s *PlanService) ResetEverywhere(ctx context.Context, snapshots repository.SnapshotRepository) (domain.PlanState, error) {
	account := s.ids.Current()
	if account == "" {
		return domain.PlanState{}, ErrNotSignedIn
	}

	if err := snapshots.Delete(ctx, account); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return domain.PlanState{}, err
	}
	s.rec.Forget(account)
	s.local.ClearMeta(account)
	return s.ResetLocal(), nil
}

// ExportBackup uploads the serialized snapshot and returns a temporary
// download URL.
func (s *PlanService) ExportBackup(ctx context.Context) (string, error) {
	if s.backup == nil {
		return "", ErrBackupUnavailable
	}
	account := s.ids.Current()
	if account == "" {
		return "", ErrNotSignedIn
	}

	key := fmt.Sprintf("backups/%s/plan-%s.json", account, time.Now().UTC().Format("20060102-150405"))
	if err := s.backup.Upload(ctx, key, "application/json", plan.Serialize(s.State())); err != nil {
		return "", err
	}
	return s.backup.GeneratePresignedDownloadURL(ctx, key, storage.DefaultPresignedURLExpiry)
}

// --- internals --------------------------------------------------------------

// apply funnels every mutation through one path: transition, local save,
// optimistic meta touch, reconciler notification.
func (s *PlanService) apply(transition func(domain.PlanState) domain.PlanState) domain.PlanState {
	s.mu.Lock()
	next := transition(s.state)
	s.state = next
	out := next.Clone()
	s.mu.Unlock()

	s.local.Save(out)
	if account := s.ids.Current(); account != "" {
		s.local.TouchMeta(account, time.Now())
	}
	s.rec.OnLocalChange(out)
	return out
}

// onIdentity reacts to sign-in/sign-out. The broadcaster delivers the
// current identity immediately on subscribe; that first delivery only
// seeds prevID, it is not a transition. seenFirst and prevID are guarded
// by s.mu: the broadcaster serializes deliveries, but the guard keeps
// the transition bookkeeping correct even if a caller invokes this
// directly.
func (s *PlanService) onIdentity(accountID string) {
	s.mu.Lock()
	if !s.seenFirst {
		s.seenFirst = true
		s.prevID = accountID
		s.mu.Unlock()
		return
	}
	prev := s.prevID
	s.prevID = accountID

	if accountID == "" {
		if prev != "" {
			// Sign-out wipes the local copy; remote data stays.
			s.state = domain.DefaultPlanState()
			s.mu.Unlock()
			s.local.Wipe()
			s.local.ClearMeta(prev)
			// Recompute the signed-out status against the wiped copy.
			s.rec.OnLocalChange(domain.DefaultPlanState())
			return
		}
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// Sign-in: the reconciler handles the snapshot exchange on its own
	// subscription; here only the goal monitor needs a pass.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.monitor.Sync(ctx, accountID, s.State().History)
}
