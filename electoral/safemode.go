// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoral

import "sync/atomic"

// SafeMode is a governance-controlled kill switch: when engaged, the
// engine loop still checks consensus and persists state (so no
// authority falls behind) but stops opening new elections and
// executing newly reached consensus — freeze side effects, keep
// voting.
type SafeMode struct {
	engaged atomic.Bool
}

// Engage turns safe mode on.
func (s *SafeMode) Engage() { s.engaged.Store(true) }

// Disengage turns safe mode off.
func (s *SafeMode) Disengage() { s.engaged.Store(false) }

// Engaged reports the current state.
func (s *SafeMode) Engaged() bool { return s.engaged.Load() }
