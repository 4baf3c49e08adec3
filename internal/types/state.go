// Package types provides type definitions for structured data used throughout the interview-kit system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "encoding/json"

// State is the lifecycle of a skill or question row: Active or Deleted(reason).
// Rows are never hard-deleted once they carry an external id.
type State struct {
	deleted bool
	reason  string
}

// Active returns the live state.
func Active() State {
	return State{}
}

// Deleted returns a soft-deleted state with the given reason (may be empty).
func Deleted(reason string) State {
	return State{deleted: true, reason: reason}
}

// StateFromColumns rebuilds a State from its persisted columns.
func StateFromColumns(deleted bool, reason *string) State {
	if !deleted {
		return Active()
	}
	if reason == nil {
		return Deleted("")
	}
	return Deleted(*reason)
}

// IsDeleted reports whether the row is soft-deleted.
func (s State) IsDeleted() bool {
	return s.deleted
}

// Reason returns the deletion reason. Empty for active rows.
func (s State) Reason() string {
	return s.reason
}

// ReasonColumn returns the nullable deletion_reason column value.
func (s State) ReasonColumn() *string {
	if !s.deleted || s.reason == "" {
		return nil
	}
	r := s.reason
	return &r
}

type stateJSON struct {
	Deleted        bool   `json:"deleted"`
	DeletionReason string `json:"deletion_reason,omitempty"`
}

// MarshalJSON renders the state as {"deleted": bool, "deletion_reason": "..."}.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{Deleted: s.deleted, DeletionReason: s.reason})
}

// UnmarshalJSON accepts the MarshalJSON form.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Deleted {
		*s = Deleted(raw.DeletionReason)
	} else {
		*s = Active()
	}
	return nil
}
