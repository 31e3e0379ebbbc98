package frame

import (
	"fmt"

	"strata/pkg/source"
)

// PositionUnavailable is returned by CurrentPosition when the frame has
// no source metadata or no instruction has been taken yet.
const PositionUnavailable = "position not available"

// anonymousFunc marks frames with no enclosing function name attached.
const anonymousFunc = "<anonymous>"

// Frame is one function activation: an ordered stack of lexical scopes,
// innermost on top. A frame is active from creation until its last scope
// has been exited; after that it is exhausted and must not be driven
// further.
//
// Single-threaded by contract: one interpreter goroutine owns the frame,
// nothing here is safe for concurrent use.
type Frame struct {
	scopes  []*Scope
	file    *source.File
	fn      string
	current Instruction // last instruction handed out by TakeNext
}

type Option func(*Frame)

// WithSource attaches source-file metadata used for position reporting
func WithSource(f *source.File) Option {
	return func(fr *Frame) { fr.file = f }
}

// WithFunction attaches the qualified name of the enclosing function
func WithFunction(qname string) Option {
	return func(fr *Frame) { fr.fn = qname }
}

// New creates a frame with one initial scope owned by the given token
func New(owner any, opts ...Option) *Frame {
	fr := &Frame{
		scopes: make([]*Scope, 0, 4),
	}

	for _, o := range opts {
		o(fr)
	}

	fr.EnterScope(owner)
	return fr
}

// EnterScope pushes a new lexical scope onto the frame
func (f *Frame) EnterScope(owner any) {
	f.scopes = append(f.scopes, NewScope(owner))
}

// ExitScope pops the top scope. If the exiting scope produced a value and
// a scope remains beneath, the value is pushed onto the remaining scope's
// stack (a block's result becomes usable by the enclosing expression).
// Exiting the last scope discards the value; the caller must have
// retrieved it already if it matters.
func (f *Frame) ExitScope() error {
	top, err := f.popScope()
	if err != nil {
		return err
	}

	if v, ok := top.Peek(); ok && len(f.scopes) > 0 {
		f.scopes[len(f.scopes)-1].Push(v)
	}

	return nil
}

// ExitScopeDiscardingValue pops the top scope without propagating its
// value, for statement-position blocks whose result must be ignored
func (f *Frame) ExitScopeDiscardingValue() error {
	_, err := f.popScope()
	return err
}

func (f *Frame) popScope() (*Scope, error) {
	if len(f.scopes) == 0 {
		return nil, fmt.Errorf("exit scope: %w", ErrNoScope)
	}

	top := f.scopes[len(f.scopes)-1]
	f.scopes = f.scopes[:len(f.scopes)-1]

	return top, nil
}

// CurrentScope returns the innermost scope, nil when the frame is spent
func (f *Frame) CurrentScope() *Scope {
	if len(f.scopes) == 0 {
		return nil
	}

	return f.scopes[len(f.scopes)-1]
}

// Depth returns the number of scopes on the frame
func (f *Frame) Depth() int {
	return len(f.scopes)
}

// Scopes returns the scope stack, outermost first
func (f *Frame) Scopes() []*Scope {
	out := make([]*Scope, len(f.scopes))
	copy(out, f.scopes)

	return out
}

// ScheduleNext queues an instruction to run next in the current scope
func (f *Frame) ScheduleNext(in Instruction) error {
	sc := f.CurrentScope()
	if sc == nil {
		return fmt.Errorf("schedule: %w", ErrNoScope)
	}

	sc.ScheduleNext(in)
	return nil
}

// TakeNext removes and returns the current scope's next instruction,
// remembering it for position reporting
func (f *Frame) TakeNext() (Instruction, error) {
	sc := f.CurrentScope()
	if sc == nil {
		return nil, fmt.Errorf("take: %w", ErrNoScope)
	}

	in, err := sc.TakeNext()
	if err != nil {
		return nil, err
	}

	f.current = in
	return in, nil
}

// DropPending abandons the current scope's planned instructions,
// returning the most recently scheduled one if any
func (f *Frame) DropPending() (Instruction, bool) {
	sc := f.CurrentScope()
	if sc == nil {
		return nil, false
	}

	return sc.DropPending()
}

// HasPending reports whether the frame still has work. A frame with no
// scopes, or a single scope with an empty queue, is exhausted.
func (f *Frame) HasPending() bool {
	switch len(f.scopes) {
	case 0:
		return false
	case 1:
		return f.scopes[0].PendingLen() > 0
	default:
		return true
	}
}

// Push adds a value to the current scope's value stack
func (f *Frame) Push(v Value) error {
	sc := f.CurrentScope()
	if sc == nil {
		return fmt.Errorf("push: %w", ErrNoScope)
	}

	sc.Push(v)
	return nil
}

// Pop removes and returns the current scope's top value
func (f *Frame) Pop() (Value, error) {
	sc := f.CurrentScope()
	if sc == nil {
		return nil, fmt.Errorf("pop: %w", ErrNoScope)
	}

	return sc.Pop()
}

// Peek returns the current scope's top value without removing it
func (f *Frame) Peek() (Value, bool) {
	sc := f.CurrentScope()
	if sc == nil {
		return nil, false
	}

	return sc.Peek()
}

// Define introduces a new binding in the innermost scope
func (f *Frame) Define(ident Ident, v Value) error {
	sc := f.CurrentScope()
	if sc == nil {
		return fmt.Errorf("define %s: %w", ident, ErrNoScope)
	}

	sc.Define(ident, v)
	return nil
}

// DefineUnset introduces a declared-but-unassigned binding in the
// innermost scope
func (f *Frame) DefineUnset(ident Ident) error {
	sc := f.CurrentScope()
	if sc == nil {
		return fmt.Errorf("define %s: %w", ident, ErrNoScope)
	}

	sc.DefineUnset(ident)
	return nil
}

// DefineSlot binds an existing slot in the innermost scope, sharing its
// storage with every other holder of the slot
func (f *Frame) DefineSlot(ident Ident, slot *Slot) error {
	sc := f.CurrentScope()
	if sc == nil {
		return fmt.Errorf("define %s: %w", ident, ErrNoScope)
	}

	sc.DefineSlot(ident, slot)
	return nil
}

// Lookup resolves ident from the innermost scope outward. A miss is an
// interpreter defect: well-formed input never reaches a lookup for an
// identity no scope defines.
func (f *Frame) Lookup(ident Ident) (Value, error) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if f.scopes[i].Contains(ident) {
			v, _ := f.scopes[i].Read(ident)
			return v, nil
		}
	}

	return nil, fmt.Errorf("%w: %s at %s", ErrUnresolvedVariable, ident, f.CurrentPosition())
}

// Assign writes v through the innermost scope that defines ident.
// Strict like Lookup: assigning an identity no scope defines is the same
// interpreter defect as reading one, and fails the same way.
func (f *Frame) Assign(ident Ident, v Value) error {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if f.scopes[i].Write(ident, v) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s at %s", ErrUnresolvedVariable, ident, f.CurrentPosition())
}

// LookupSlot resolves the slot backing ident, innermost scope first
func (f *Frame) LookupSlot(ident Ident) (*Slot, error) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if slot, ok := f.scopes[i].Slot(ident); ok {
			return slot, nil
		}
	}

	return nil, fmt.Errorf("%w: %s at %s", ErrUnresolvedVariable, ident, f.CurrentPosition())
}

// MergeInto exports every binding of this frame into other's current
// scope, sharing slots. Identities the target scope already defined keep
// their bindings (a callee's parameters are never clobbered by its
// caller's environment); among the merged bindings, inner scopes override
// outer ones for the same identity.
func (f *Frame) MergeInto(other *Frame) error {
	dst := other.CurrentScope()
	if dst == nil {
		return fmt.Errorf("merge: target %w", ErrNoScope)
	}

	existing := make(map[Ident]struct{})
	for _, b := range dst.Bindings() {
		existing[b.Ident] = struct{}{}
	}

	for _, sc := range f.scopes {
		for _, b := range sc.Bindings() {
			if _, ok := existing[b.Ident]; ok {
				continue
			}

			dst.DefineSlot(b.Ident, b.Slot)
		}
	}

	return nil
}

// CaptureInto exports every binding of this frame into a closure's
// captured-upvalue map, sharing slots. Outer scopes are written first so
// the innermost binding for an identity is the one that survives.
func (f *Frame) CaptureInto(captured map[Ident]*Slot) {
	for _, sc := range f.scopes {
		for _, b := range sc.Bindings() {
			captured[b.Ident] = b.Slot
		}
	}
}

// CurrentPosition renders "<file>:<line>" for the instruction being
// executed, or a sentinel when no source metadata is attached
func (f *Frame) CurrentPosition() string {
	if f.file == nil || f.current == nil {
		return PositionUnavailable
	}

	return f.file.Locate(f.current.Pos())
}

// Describe renders a stack-trace style line for this frame
func (f *Frame) Describe() string {
	fn := f.fn
	if fn == "" {
		fn = anonymousFunc
	}

	return fmt.Sprintf("at %s(%s)", fn, f.CurrentPosition())
}

func (f *Frame) String() string {
	return f.Describe()
}
