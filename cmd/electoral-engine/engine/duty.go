// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package engine

import (
	"sync"

	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/electoral"
)

// ValidatorDutySet records which elections the local authority is
// currently obliged to vote in this epoch, so the engine loop doesn't
// waste a vote call on an election the local authority was never
// nominated into.
type ValidatorDutySet struct {
	mu   sync.RWMutex
	self common.Address
	owed map[electoral.Identifier]struct{}
}

// NewValidatorDutySet builds an empty duty set for self.
func NewValidatorDutySet(self common.Address) *ValidatorDutySet {
	return &ValidatorDutySet{
		self: self,
		owed: make(map[electoral.Identifier]struct{}),
	}
}

// Assign records that the local authority owes a vote on id.
func (d *ValidatorDutySet) Assign(id electoral.Identifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.owed[id] = struct{}{}
}

// Fulfil clears an obligation once the local authority has voted,
// whether or not the election has since reached consensus.
func (d *ValidatorDutySet) Fulfil(id electoral.Identifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.owed, id)
}

// Owes reports whether the local authority still has an outstanding
// duty to vote in id.
func (d *ValidatorDutySet) Owes(id electoral.Identifier) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.owed[id]
	return ok
}

// Outstanding returns every identifier still owed a vote.
func (d *ValidatorDutySet) Outstanding() []electoral.Identifier {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]electoral.Identifier, 0, len(d.owed))
	for id := range d.owed {
		out = append(out, id)
	}
	return out
}

// Len reports the number of outstanding duties.
func (d *ValidatorDutySet) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.owed)
}
