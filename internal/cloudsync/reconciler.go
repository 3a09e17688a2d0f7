// Package cloudsync keeps the local plan state and the per-account
// remote snapshot in agreement. The Reconciler reacts to identity
// changes and local edits, debounces remote writes, and exposes a
// read-only Status for display. All collaborators are injected
// capabilities so tests run against fakes.
package cloudsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/localstore"
	"alcyxob/workout-planner/internal/plan"
	"alcyxob/workout-planner/internal/repository"

	"github.com/sirupsen/logrus"
)

// DefaultDebounce coalesces rapid successive edits into one remote
// write. The window restarts on every new edit.
const DefaultDebounce = 3000 * time.Millisecond

const writeTimeout = 15 * time.Second

// Connectivity reports whether the remote store is reachable. It is
// only consulted after a failed write, to pick between the offline and
// error statuses.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// ApplyRemote hands an authoritative remote snapshot to the plan state
// owner. The callback runs on the reconciler's goroutine and must not
// call back into the Reconciler.
type ApplyRemote func(state domain.PlanState)

// Options tunes a Reconciler. Zero values select the defaults.
type Options struct {
	Debounce time.Duration
	// OnStatus, when set, is invoked on every status change. It must not
	// call back into the Reconciler.
	OnStatus func(Status)
}

// Reconciler is the sync state machine. One instance serves the whole
// process; the account it targets follows the identity provider.
type Reconciler struct {
	snapshots    repository.SnapshotRepository
	local        *localstore.Adapter
	timer        Timer
	connectivity Connectivity
	applyRemote  ApplyRemote
	debounce     time.Duration
	onStatus     func(Status)
	log          *logrus.Entry

	mu             sync.Mutex
	accountID      string
	status         Status
	initialized    map[string]bool
	lastSerialized string
	everPersisted  bool
	gen            uint64
	closed         bool
}

func NewReconciler(snapshots repository.SnapshotRepository, local *localstore.Adapter, timer Timer, connectivity Connectivity, applyRemote ApplyRemote, opts Options) *Reconciler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Reconciler{
		snapshots:    snapshots,
		local:        local,
		timer:        timer,
		connectivity: connectivity,
		applyRemote:  applyRemote,
		debounce:     opts.Debounce,
		onStatus:     opts.OnStatus,
		log:          logrus.WithField("component", "cloudsync"),
		status:       StatusHidden,
		initialized:  make(map[string]bool),
	}
}

// Status returns the current sync status.
func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Account returns the account the reconciler currently targets, or ""
// when signed out.
func (r *Reconciler) Account() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accountID
}

// OnIdentity is the identity listener. An empty id is sign-out: pending
// timers are cancelled, remote data is left alone, and the status falls
// back to local or hidden depending on whether the stored state is
// meaningful. A non-empty id triggers the initial reconciliation, once
// per uninterrupted signed-in session; repeated deliveries of the same
// id (token refresh) are absorbed by the initialized set, which is
// cleared again on sign-out so a genuine re-sign-in re-runs the
// exchange.
func (r *Reconciler) OnIdentity(accountID string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	prev := r.accountID
	r.accountID = accountID

	if accountID == "" {
		r.gen++
		r.timer.Cancel()
		// The initialized mark is scoped to one signed-in session. The
		// state owner wipes the local copy on sign-out, so a later
		// sign-in must fetch the remote snapshot again; keeping the mark
		// (or the write memory) would let a post-wipe edit overwrite the
		// remote history with a near-empty skeleton.
		if prev != "" {
			delete(r.initialized, prev)
			r.lastSerialized = ""
			r.everPersisted = false
		}
		r.setStatusLocked(r.signedOutStatus())
		r.mu.Unlock()
		return
	}

	if r.initialized[accountID] {
		r.mu.Unlock()
		return
	}
	// Mark before the fetch: a repeated sign-in event for the same
	// session must not race a second reconciliation.
	r.initialized[accountID] = true
	r.mu.Unlock()

	r.reconcile(accountID)
}

// reconcile runs the first-sign-in exchange for the account. The remote
// snapshot, when present and different, wins and overwrites local state;
// when absent, meaningful local state is pushed up. An empty skeleton is
// never pushed.
func (r *Reconciler) reconcile(accountID string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	localState := r.local.Load()
	if localState == nil {
		def := domain.DefaultPlanState()
		localState = &def
	}

	remote, _, err := r.snapshots.Load(ctx, accountID)
	switch {
	case err == nil:
		ser := string(plan.Serialize(*remote))
		if plan.Equal(*remote, *localState) {
			r.finishReconcile(accountID, ser, true)
			return
		}
		r.local.Save(*remote)
		r.applyRemote(*remote)
		r.finishReconcile(accountID, ser, true)

	case errors.Is(err, repository.ErrNotFound):
		if !localState.Meaningful() {
			r.finishReconcile(accountID, "", false)
			return
		}
		ser := string(plan.Serialize(*localState))
		if saveErr := r.snapshots.Save(ctx, accountID, *localState); saveErr != nil {
			r.log.WithError(saveErr).Warn("initial push failed")
			r.failWrite(accountID, ser)
			return
		}
		r.finishReconcile(accountID, ser, true)

	default:
		r.log.WithError(err).Warn("initial snapshot fetch failed")
		r.failWrite(accountID, "")
	}
}

func (r *Reconciler) finishReconcile(accountID, serialized string, persisted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.accountID != accountID {
		return
	}
	if serialized != "" {
		r.lastSerialized = serialized
	}
	if !persisted {
		// Empty skeleton and no remote copy: nothing has been written
		// anywhere, so there is no sync state to show yet.
		r.setStatusLocked(StatusHidden)
		return
	}
	r.everPersisted = true
	r.setStatusLocked(StatusSaved)
}

// OnLocalChange reacts to a plan state transition applied by the state
// owner. Signed out it only refreshes the local/hidden status; signed in
// it schedules the debounced remote write, skipping states that match
// the last write attempt and skeletons that were never persisted.
func (r *Reconciler) OnLocalChange(state domain.PlanState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	if r.accountID == "" {
		if state.Meaningful() {
			r.setStatusLocked(StatusLocal)
		} else {
			r.setStatusLocked(StatusHidden)
		}
		return
	}

	ser := string(plan.Serialize(state))
	if ser == r.lastSerialized {
		return
	}
	if !state.Meaningful() && !r.everPersisted {
		return
	}

	accountID := r.accountID
	r.gen++
	gen := r.gen
	r.setStatusLocked(StatusPending)
	r.timer.Schedule(r.debounce, func() {
		r.flush(accountID, gen, ser, state)
	})
}

// flush performs one remote write from the debounce timer. The
// serialized form is recorded as the last write attempt before the
// write, so a retry only happens when the state actually changes again.
func (r *Reconciler) flush(accountID string, gen uint64, serialized string, state domain.PlanState) {
	r.mu.Lock()
	if r.closed || r.accountID != accountID || gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.lastSerialized = serialized
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.snapshots.Save(ctx, accountID, state); err != nil {
		r.log.WithError(err).Warn("snapshot write failed")
		r.failWrite(accountID, serialized)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.accountID != accountID {
		return
	}
	r.everPersisted = true
	if gen == r.gen {
		r.setStatusLocked(StatusSaved)
	}
}

func (r *Reconciler) failWrite(accountID, serialized string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	online := r.connectivity.Online(ctx)
	cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.accountID != accountID {
		return
	}
	if serialized != "" {
		r.lastSerialized = serialized
	}
	if online {
		r.setStatusLocked(StatusError)
	} else {
		r.setStatusLocked(StatusOffline)
	}
}

// Forget drops the initialized mark and write memory for the account so
// the next sign-in reconciles from scratch. Used by reset-everywhere.
func (r *Reconciler) Forget(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.initialized, accountID)
	if r.accountID == accountID {
		r.lastSerialized = ""
		r.everPersisted = false
	}
}

// Close cancels any outstanding timer; nothing is written after Close.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.gen++
	r.timer.Cancel()
}

func (r *Reconciler) signedOutStatus() Status {
	if s := r.local.Load(); s != nil && s.Meaningful() {
		return StatusLocal
	}
	return StatusHidden
}

func (r *Reconciler) setStatusLocked(s Status) {
	if r.status == s {
		return
	}
	r.status = s
	if r.onStatus != nil {
		r.onStatus(s)
	}
}
