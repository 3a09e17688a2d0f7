package cloudsync

// Status is the read-only sync state exposed to the UI layer (the sync
// badge). The two account-less values distinguish "working locally with
// real data" from "nothing worth reporting at all": a brand-new install
// with an empty skeleton plan shows no sync chrome.
type Status string

const (
	// StatusSaved: the remote snapshot matches the last local state.
	StatusSaved Status = "saved"
	// StatusPending: a debounced write is scheduled or in flight.
	StatusPending Status = "pending"
	// StatusOffline: the last write failed and the store is unreachable.
	StatusOffline Status = "offline"
	// StatusError: the last write failed for any other reason.
	StatusError Status = "error"
	// StatusLocal: signed out with meaningful local data.
	StatusLocal Status = "local"
	// StatusHidden: signed out with an empty skeleton plan.
	StatusHidden Status = "hidden"
)
