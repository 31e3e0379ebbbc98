package frame

import "fmt"

// Slot is the mutable holder behind one lexical variable. Scopes, frames
// and closure captures that share the same *Slot alias the same storage:
// a write through any of them is visible through all of them. That
// aliasing is what makes upvalue mutation work.
type Slot struct {
	val Value
	set bool
}

// NewSlot creates a slot already holding a value
func NewSlot(v Value) *Slot {
	return &Slot{val: v, set: true}
}

// NewUnsetSlot creates a slot with no value yet (declared, unassigned)
func NewUnsetSlot() *Slot {
	return &Slot{}
}

// Set stores a value in the slot, replacing any previous one
func (s *Slot) Set(v Value) {
	s.val = v
	s.set = true
}

// Get returns the current value, false if the slot was never assigned
func (s *Slot) Get() (Value, bool) {
	return s.val, s.set
}

// IsSet reports whether the slot holds a value
func (s *Slot) IsSet() bool {
	return s.set
}

func (s *Slot) String() string {
	if !s.set {
		return "<unset>"
	}

	return fmt.Sprintf("%v", s.val)
}
