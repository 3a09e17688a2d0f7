package cloudsync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/workout-planner/internal/cloudsync"
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/localstore"
	"alcyxob/workout-planner/internal/plan"
	"alcyxob/workout-planner/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes -----------------------------------------------------------------

type memKV struct{ m map[string]string }

func newMemKV() *memKV { return &memKV{m: make(map[string]string)} }

func (k *memKV) Get(key string) (string, bool) { v, ok := k.m[key]; return v, ok }
func (k *memKV) Set(key, value string)         { k.m[key] = value }
func (k *memKV) Remove(key string)             { delete(k.m, key) }

type fakeSnapshots struct {
	remote  map[string]domain.PlanState
	loads   int
	saves   int
	lastSav domain.PlanState
	saveErr error
	loadErr error
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{remote: make(map[string]domain.PlanState)}
}

func (f *fakeSnapshots) Load(_ context.Context, accountID string) (*domain.PlanState, time.Time, error) {
	f.loads++
	if f.loadErr != nil {
		return nil, time.Time{}, f.loadErr
	}
	s, ok := f.remote[accountID]
	if !ok {
		return nil, time.Time{}, repository.ErrNotFound
	}
	out := s.Clone()
	return &out, time.Now(), nil
}

func (f *fakeSnapshots) Save(_ context.Context, accountID string, state domain.PlanState) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.remote[accountID] = state.Clone()
	f.lastSav = state.Clone()
	return nil
}

func (f *fakeSnapshots) Delete(_ context.Context, accountID string) error {
	delete(f.remote, accountID)
	return nil
}

// fakeTimer never fires on its own; tests call Fire to simulate the
// debounce window elapsing.
type fakeTimer struct {
	fn        func()
	scheduled int
	cancels   int
}

func (t *fakeTimer) Schedule(_ time.Duration, fn func()) {
	t.scheduled++
	t.fn = fn
}

func (t *fakeTimer) Cancel() {
	t.cancels++
	t.fn = nil
}

func (t *fakeTimer) Fire() {
	if t.fn == nil {
		return
	}
	fn := t.fn
	t.fn = nil
	fn()
}

type fakeConnectivity struct{ online bool }

func (c fakeConnectivity) Online(context.Context) bool { return c.online }

type harness struct {
	snapshots *fakeSnapshots
	local     *localstore.Adapter
	timer     *fakeTimer
	rec       *cloudsync.Reconciler
	applied   []domain.PlanState
}

func newHarness(t *testing.T, online bool) *harness {
	t.Helper()
	h := &harness{
		snapshots: newFakeSnapshots(),
		local:     localstore.NewAdapter(newMemKV()),
		timer:     &fakeTimer{},
	}
	h.rec = cloudsync.NewReconciler(
		h.snapshots, h.local, h.timer, fakeConnectivity{online: online},
		func(s domain.PlanState) { h.applied = append(h.applied, s) },
		cloudsync.Options{},
	)
	t.Cleanup(h.rec.Close)
	return h
}

func meaningfulState() domain.PlanState {
	s := domain.DefaultPlanState()
	s.History = append(s.History, domain.HistoryPoint{
		SessionNumber: 1,
		Date:          "2026-08-01T10:00:00Z",
		Volume:        60,
		RPE:           7,
	})
	return s
}

// --- first sign-in reconciliation ------------------------------------------

func TestReconciler_FirstSignInPushesMeaningfulLocal(t *testing.T) {
	h := newHarness(t, true)
	local := meaningfulState()
	h.local.Save(local)

	h.rec.OnIdentity("acc-1")

	require.Equal(t, 1, h.snapshots.saves)
	assert.True(t, plan.Equal(local, h.snapshots.remote["acc-1"]))
	assert.Equal(t, cloudsync.StatusSaved, h.rec.Status())
	assert.Empty(t, h.applied, "push must not rewrite local state")
}

func TestReconciler_FirstSignInRemoteWins(t *testing.T) {
	h := newHarness(t, true)
	h.local.Save(meaningfulState())

	remote := meaningfulState()
	remote.SessionNumber = 42
	h.snapshots.remote["acc-1"] = remote

	h.rec.OnIdentity("acc-1")

	assert.Zero(t, h.snapshots.saves, "remote-wins must not write upward")
	require.Len(t, h.applied, 1)
	assert.Equal(t, 42, h.applied[0].SessionNumber)

	stored := h.local.Load()
	require.NotNil(t, stored)
	assert.Equal(t, 42, stored.SessionNumber, "local storage overwritten by remote")
	assert.Equal(t, cloudsync.StatusSaved, h.rec.Status())
}

func TestReconciler_FirstSignInIdenticalRemoteSkipsWork(t *testing.T) {
	h := newHarness(t, true)
	local := meaningfulState()
	h.local.Save(local)
	h.snapshots.remote["acc-1"] = local.Clone()

	h.rec.OnIdentity("acc-1")

	assert.Zero(t, h.snapshots.saves)
	assert.Empty(t, h.applied)
	assert.Equal(t, cloudsync.StatusSaved, h.rec.Status())
}

func TestReconciler_FirstSignInSkeletonNotPushed(t *testing.T) {
	h := newHarness(t, true)
	h.local.Save(domain.DefaultPlanState())

	h.rec.OnIdentity("acc-1")

	assert.Zero(t, h.snapshots.saves, "empty skeleton must never be pushed")
	assert.Equal(t, cloudsync.StatusHidden, h.rec.Status(), "nothing written anywhere, no sync state to show")
}

func TestReconciler_RepeatedIdentityDoesNotRefetch(t *testing.T) {
	h := newHarness(t, true)
	h.local.Save(meaningfulState())

	h.rec.OnIdentity("acc-1")
	h.rec.OnIdentity("acc-1") // token refresh

	assert.Equal(t, 1, h.snapshots.loads)
	assert.Equal(t, 1, h.snapshots.saves)
}

func TestReconciler_SignOutThenSignInReconcilesAgain(t *testing.T) {
	h := newHarness(t, true)
	remote := meaningfulState()
	remote.SessionNumber = 42
	h.snapshots.remote["acc-1"] = remote

	h.rec.OnIdentity("acc-1")
	require.Equal(t, 1, h.snapshots.loads)
	require.Equal(t, cloudsync.StatusSaved, h.rec.Status())

	// Sign-out; the state owner wipes the local copy.
	h.rec.OnIdentity("")
	h.local.Wipe()

	h.rec.OnIdentity("acc-1")

	assert.Equal(t, 2, h.snapshots.loads, "a fresh sign-in must re-run the remote exchange")
	require.Len(t, h.applied, 2)
	assert.Equal(t, 42, h.applied[1].SessionNumber, "remote copy restored after the wipe")
	assert.Equal(t, cloudsync.StatusSaved, h.rec.Status())

	// An edit after the pull starts from the restored state, so the
	// remote history survives the whole cycle.
	edited := h.applied[1].Clone()
	edited.RPEToday = 5
	h.rec.OnLocalChange(edited)
	h.timer.Fire()
	assert.Equal(t, 42, h.snapshots.remote["acc-1"].SessionNumber)
}

// --- debounced writes -------------------------------------------------------

func TestReconciler_DebounceCoalescesRapidEdits(t *testing.T) {
	h := newHarness(t, true)
	h.local.Save(meaningfulState())
	h.rec.OnIdentity("acc-1")
	savesAfterSignIn := h.snapshots.saves

	s1 := meaningfulState()
	s1.RPEToday = 5
	s2 := s1.Clone()
	s2.RPEToday = 6
	s3 := s2.Clone()
	s3.RPEToday = 8

	h.rec.OnLocalChange(s1)
	h.rec.OnLocalChange(s2)
	h.rec.OnLocalChange(s3)

	assert.Equal(t, cloudsync.StatusPending, h.rec.Status())
	assert.Equal(t, 3, h.timer.scheduled, "each edit restarts the window")

	h.timer.Fire() // only the last scheduled callback survives

	assert.Equal(t, savesAfterSignIn+1, h.snapshots.saves, "rapid edits coalesce into one write")
	assert.Equal(t, 8, h.snapshots.lastSav.RPEToday, "the write carries the final state")
	assert.Equal(t, cloudsync.StatusSaved, h.rec.Status())
}

func TestReconciler_UnchangedStateSchedulesNothing(t *testing.T) {
	h := newHarness(t, true)
	h.local.Save(meaningfulState())
	h.rec.OnIdentity("acc-1")

	s := meaningfulState()
	s.RPEToday = 5
	h.rec.OnLocalChange(s)
	h.timer.Fire()
	require.Equal(t, cloudsync.StatusSaved, h.rec.Status())

	scheduled := h.timer.scheduled
	h.rec.OnLocalChange(s.Clone()) // value-equal to the last write

	assert.Equal(t, scheduled, h.timer.scheduled)
	assert.Equal(t, cloudsync.StatusSaved, h.rec.Status())
}

func TestReconciler_SkeletonNeverPersistedNotWritten(t *testing.T) {
	h := newHarness(t, true)
	h.rec.OnIdentity("acc-1") // nothing local, nothing remote

	h.rec.OnLocalChange(domain.DefaultPlanState())

	assert.Zero(t, h.timer.scheduled, "skeleton with no persisted history is not written")
	assert.Zero(t, h.snapshots.saves)
}

func TestReconciler_WriteFailureReportsErrorWhenOnline(t *testing.T) {
	h := newHarness(t, true)
	h.local.Save(meaningfulState())
	h.rec.OnIdentity("acc-1")

	h.snapshots.saveErr = errors.New("permission denied")
	s := meaningfulState()
	s.RPEToday = 5
	h.rec.OnLocalChange(s)
	h.timer.Fire()

	assert.Equal(t, cloudsync.StatusError, h.rec.Status())
}

func TestReconciler_WriteFailureReportsOfflineWithoutNetwork(t *testing.T) {
	h := newHarness(t, false)
	h.local.Save(meaningfulState())
	h.rec.OnIdentity("acc-1")

	h.snapshots.saveErr = errors.New("connection refused")
	s := meaningfulState()
	s.RPEToday = 5
	h.rec.OnLocalChange(s)
	h.timer.Fire()

	assert.Equal(t, cloudsync.StatusOffline, h.rec.Status())

	// No background retry loop: the same state does not reschedule.
	scheduled := h.timer.scheduled
	h.rec.OnLocalChange(s.Clone())
	assert.Equal(t, scheduled, h.timer.scheduled)

	// The next actual edit retries.
	h.snapshots.saveErr = nil
	s.RPEToday = 9
	h.rec.OnLocalChange(s)
	h.timer.Fire()
	assert.Equal(t, cloudsync.StatusSaved, h.rec.Status())
}

// --- signed-out behaviour ---------------------------------------------------

func TestReconciler_SignedOutStatusFollowsMeaningfulness(t *testing.T) {
	h := newHarness(t, true)

	h.rec.OnLocalChange(domain.DefaultPlanState())
	assert.Equal(t, cloudsync.StatusHidden, h.rec.Status())

	h.rec.OnLocalChange(meaningfulState())
	assert.Equal(t, cloudsync.StatusLocal, h.rec.Status())
	assert.Zero(t, h.snapshots.saves, "signed out never contacts the remote store")
}

func TestReconciler_SignOutCancelsPendingWrite(t *testing.T) {
	h := newHarness(t, true)
	h.local.Save(meaningfulState())
	h.rec.OnIdentity("acc-1")

	s := meaningfulState()
	s.RPEToday = 5
	h.rec.OnLocalChange(s)
	require.Equal(t, cloudsync.StatusPending, h.rec.Status())
	savesBefore := h.snapshots.saves

	h.rec.OnIdentity("")

	assert.GreaterOrEqual(t, h.timer.cancels, 1)
	h.timer.Fire() // a racing timer that already fired must write nothing
	assert.Equal(t, savesBefore, h.snapshots.saves)
	assert.Equal(t, cloudsync.StatusLocal, h.rec.Status())
}

func TestReconciler_StatusCallbackSeesTransitions(t *testing.T) {
	snapshots := newFakeSnapshots()
	local := localstore.NewAdapter(newMemKV())
	timer := &fakeTimer{}

	var seen []cloudsync.Status
	rec := cloudsync.NewReconciler(snapshots, local, timer, fakeConnectivity{online: true},
		func(domain.PlanState) {},
		cloudsync.Options{OnStatus: func(s cloudsync.Status) { seen = append(seen, s) }},
	)
	defer rec.Close()

	local.Save(meaningfulState())
	rec.OnIdentity("acc-1")
	s := meaningfulState()
	s.RPEToday = 5
	rec.OnLocalChange(s)
	timer.Fire()

	assert.Equal(t, []cloudsync.Status{cloudsync.StatusSaved, cloudsync.StatusPending, cloudsync.StatusSaved}, seen)
}

func TestReconciler_ForgetAllowsFreshReconciliation(t *testing.T) {
	h := newHarness(t, true)
	h.local.Save(meaningfulState())
	h.rec.OnIdentity("acc-1")
	require.Equal(t, 1, h.snapshots.loads)

	h.rec.Forget("acc-1")
	h.rec.OnIdentity("acc-1")

	assert.Equal(t, 2, h.snapshots.loads)
}
