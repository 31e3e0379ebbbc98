package frame

import (
	"fmt"

	"strata/pkg/source"
)

// Ident identifies one lexical variable. Shadowing is handled by the
// scope stack, so plain names are sufficient identity.
type Ident string

// Instruction is an opaque unit of interpretable work. The core only
// queues instructions and reads their position for diagnostics; executing
// them is the dispatcher's job.
type Instruction interface {
	Pos() source.Position
}

// Binding pairs a variable identity with the slot that backs it.
type Binding struct {
	Ident Ident
	Slot  *Slot
}

// Scope is one nested block's execution state within a call frame: its
// pending instructions, its value stack, and its variable table.
//
// The instruction queue is deliberately LIFO: work scheduled later runs
// first. Control instructions rely on this to splice "run this next"
// steps in front of whatever the enclosing construct already planned.
type Scope struct {
	owner    any // identity token for diagnostics only
	queue    []Instruction // front of the queue is the tail of the slice
	stack    *DataStack
	bindings []Binding
	index    map[Ident]int
}

// NewScope creates a scope owned by the given opaque token
func NewScope(owner any) *Scope {
	return &Scope{
		owner: owner,
		queue: make([]Instruction, 0, 4),
		stack: NewDataStack(),
		index: make(map[Ident]int),
	}
}

// ScheduleNext inserts an instruction at the front of the queue, so it
// executes before everything scheduled earlier in this scope
func (s *Scope) ScheduleNext(in Instruction) {
	s.queue = append(s.queue, in)
}

// TakeNext removes and returns the front of the queue
func (s *Scope) TakeNext() (Instruction, error) {
	if len(s.queue) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoPending, s.owner)
	}

	in := s.queue[len(s.queue)-1]
	s.queue = s.queue[:len(s.queue)-1]

	return in, nil
}

// DropPending discards everything queued in this scope, returning the
// most recently scheduled instruction if there was one. Used to abandon
// a planned sequence on early exit.
func (s *Scope) DropPending() (Instruction, bool) {
	if len(s.queue) == 0 {
		return nil, false
	}

	last := s.queue[len(s.queue)-1]
	s.queue = s.queue[:0]

	return last, true
}

// PendingLen returns the number of queued instructions
func (s *Scope) PendingLen() int {
	return len(s.queue)
}

// Pending returns the queued instructions, next-to-run first
func (s *Scope) Pending() []Instruction {
	out := make([]Instruction, 0, len(s.queue))
	for i := len(s.queue) - 1; i >= 0; i-- {
		out = append(out, s.queue[i])
	}

	return out
}

// Push adds a value to this scope's value stack
func (s *Scope) Push(v Value) {
	s.stack.Push(v)
}

// Pop removes and returns the top of this scope's value stack
func (s *Scope) Pop() (Value, error) {
	return s.stack.Pop()
}

// Peek returns the top of this scope's value stack without removing it
func (s *Scope) Peek() (Value, bool) {
	return s.stack.Peek()
}

// Stack exposes the owned value stack (read-only use expected)
func (s *Scope) Stack() *DataStack {
	return s.stack
}

// Define binds ident to a fresh slot holding v
func (s *Scope) Define(ident Ident, v Value) {
	s.DefineSlot(ident, NewSlot(v))
}

// DefineUnset binds ident to a fresh slot with no value yet
func (s *Scope) DefineUnset(ident Ident) {
	s.DefineSlot(ident, NewUnsetSlot())
}

// DefineSlot binds ident to an existing slot. This is the capture path:
// the scope shares storage with whoever else holds the slot. Re-defining
// an identity rebinds it; the later binding wins.
func (s *Scope) DefineSlot(ident Ident, slot *Slot) {
	if idx, ok := s.index[ident]; ok {
		s.bindings[idx].Slot = slot
		return
	}

	s.index[ident] = len(s.bindings)
	s.bindings = append(s.bindings, Binding{Ident: ident, Slot: slot})
}

// Contains reports whether ident is defined in this scope
func (s *Scope) Contains(ident Ident) bool {
	_, ok := s.index[ident]
	return ok
}

// Read returns ident's current value, false if undefined here or unset
func (s *Scope) Read(ident Ident) (Value, bool) {
	idx, ok := s.index[ident]
	if !ok {
		return nil, false
	}

	return s.bindings[idx].Slot.Get()
}

// Slot returns the slot backing ident in this scope, if any
func (s *Scope) Slot(ident Ident) (*Slot, bool) {
	idx, ok := s.index[ident]
	if !ok {
		return nil, false
	}

	return s.bindings[idx].Slot, true
}

// Write stores v into ident's slot. Returns false without writing when
// ident is not defined in this scope; cross-scope resolution is the
// frame's responsibility.
func (s *Scope) Write(ident Ident, v Value) bool {
	idx, ok := s.index[ident]
	if !ok {
		return false
	}

	s.bindings[idx].Slot.Set(v)
	return true
}

// Bindings returns all (ident, slot) pairs in definition order, earliest
// first. A consumer applying them sequentially ends up with the latest
// binding for each identity.
func (s *Scope) Bindings() []Binding {
	out := make([]Binding, len(s.bindings))
	copy(out, s.bindings)

	return out
}

func (s *Scope) String() string {
	return fmt.Sprintf("scope(%v)", s.owner)
}
