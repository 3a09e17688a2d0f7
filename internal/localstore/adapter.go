// Package localstore is the synchronous local persistence layer. It
// mirrors every plan mutation to a key-value store and keeps a parallel
// per-account metadata record with the last local mutation time. Storage
// and serialization failures are swallowed: a broken local medium
// degrades the app to in-memory operation, it never crashes a caller.
package localstore

import (
	"encoding/json"
	"time"

	"alcyxob/workout-planner/internal/domain"
)

// PlanKey is the fixed key of the serialized PlanState blob.
const PlanKey = "workout-plan-state-v1"

const metaKeyPrefix = "workout-plan-meta-"

// Meta is the local-only sync metadata for one account. The timestamp is
// a tie-breaker for reconciliation and is never transmitted.
type Meta struct {
	UpdatedAtLocal int64 `json:"updatedAtLocal"` // unix milliseconds
}

// Adapter persists PlanState snapshots and per-account sync metadata.
type Adapter struct {
	kv KV
}

func NewAdapter(kv KV) *Adapter {
	return &Adapter{kv: kv}
}

// Load returns the stored snapshot, or nil when nothing (or nothing
// readable) is stored.
func (a *Adapter) Load() *domain.PlanState {
	raw, ok := a.kv.Get(PlanKey)
	if !ok {
		return nil
	}
	var s domain.PlanState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil
	}
	return &s
}

// Save stores the snapshot. Errors are swallowed by the KV layer.
func (a *Adapter) Save(s domain.PlanState) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	a.kv.Set(PlanKey, string(raw))
}

// Wipe removes the stored snapshot (sign-out, reset).
func (a *Adapter) Wipe() {
	a.kv.Remove(PlanKey)
}

// LastLocalMutation returns the recorded last-mutation time for the
// account, or the zero time when none is recorded.
func (a *Adapter) LastLocalMutation(accountID string) time.Time {
	raw, ok := a.kv.Get(metaKey(accountID))
	if !ok {
		return time.Time{}
	}
	var m Meta
	if err := json.Unmarshal([]byte(raw), &m); err != nil || m.UpdatedAtLocal == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.UpdatedAtLocal)
}

// TouchMeta records t as the account's last local mutation time. This is
// written optimistically whenever a transition is applied while signed
// in, independent of whether the remote write later succeeds.
func (a *Adapter) TouchMeta(accountID string, t time.Time) {
	if accountID == "" {
		return
	}
	raw, err := json.Marshal(Meta{UpdatedAtLocal: t.UnixMilli()})
	if err != nil {
		return
	}
	a.kv.Set(metaKey(accountID), string(raw))
}

// ClearMeta drops the account's metadata record.
func (a *Adapter) ClearMeta(accountID string) {
	if accountID == "" {
		return
	}
	a.kv.Remove(metaKey(accountID))
}

func metaKey(accountID string) string {
	return metaKeyPrefix + accountID
}
