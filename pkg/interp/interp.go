package interp

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"strata/pkg/frame"
)

var (
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
	ErrNoProgram        = errors.New("no program loaded")
)

// Interp drives a stack of call-frame activations, one queued instruction
// at a time. It is the sole executor of instruction semantics; the frame
// core only holds state.
type Interp struct {
	frames  []*frame.Frame
	session *frame.Frame // persistent scope for RunSnippet

	out  io.Writer
	last Value // result left by the outermost activation

	maxSteps int
	steps    int
}

type Option func(*Interp)

// WithWriter sets the output writer for print instructions
func WithWriter(w io.Writer) Option {
	return func(i *Interp) { i.out = w }
}

// WithMaxSteps sets a maximum number of steps before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interp) { i.maxSteps = n }
}

// New creates a new Interp instance
func New(opts ...Option) *Interp {
	it := &Interp{
		frames:   make([]*frame.Frame, 0, 8),
		out:      nil, // caller should set, or use WithWriter
		maxSteps: 0,   // 0 => unlimited
	}

	for _, o := range opts {
		o(it)
	}

	if it.out == nil {
		it.out = os.Stdout
	}

	return it
}

// Load replaces the current activation stack with a fresh one running p
func (i *Interp) Load(p *Program) {
	main := frame.New(p.Name,
		frame.WithSource(p.File),
		frame.WithFunction(p.Name+".main"))

	scheduleSeq(main, p.Code)

	i.frames = i.frames[:0]
	i.frames = append(i.frames, main)
	i.steps = 0
	i.last = NewUnit()
}

// Output returns the writer print instructions go to
func (i *Interp) Output() io.Writer {
	return i.out
}

// Frames returns the activation stack, outermost first
func (i *Interp) Frames() []*frame.Frame {
	out := make([]*frame.Frame, len(i.frames))
	copy(out, i.frames)

	return out
}

// Steps returns the number of steps executed so far
func (i *Interp) Steps() int {
	return i.steps
}

// Result returns the value the outermost activation ended with
func (i *Interp) Result() Value {
	return i.last
}

// Step executes a single instruction, returning (halted, error).
// A frame-core error aborts the run; those signal interpreter defects
// and are never retried.
func (i *Interp) Step() (bool, error) {
	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		return false, ErrMaxStepsExceeded
	}

	if len(i.frames) == 0 {
		return true, nil
	}

	f := i.frames[len(i.frames)-1]
	if !f.HasPending() {
		i.returnFromActivation(f)
		i.steps++
		return len(i.frames) == 0, nil
	}

	in, err := f.TakeNext()
	if err != nil {
		return false, fmt.Errorf("%s: %w", f.Describe(), err)
	}

	log.Debug("step", "in", in, "frame", f.Describe(), "depth", f.Depth())

	if err := i.exec(f, in); err != nil {
		return false, fmt.Errorf("%s: %w", f.Describe(), err)
	}

	i.steps++
	return false, nil
}

// Run executes until halt or error
func (i *Interp) Run() error {
	if len(i.frames) == 0 {
		return ErrNoProgram
	}

	for {
		halted, err := i.Step()
		if err != nil {
			return err
		}

		if halted {
			return nil
		}
	}
}

// RunSnippet evaluates p in a fresh activation seeded with the bindings
// of a persistent session frame, then folds new bindings back into the
// session. Slots are shared both ways, so an assignment inside the
// snippet is visible to later snippets.
func (i *Interp) RunSnippet(p *Program) (Value, error) {
	if i.session == nil {
		i.session = frame.New("session", frame.WithFunction("session"))
	}

	act := frame.New(p.Name,
		frame.WithSource(p.File),
		frame.WithFunction(p.Name))

	if err := i.session.MergeInto(act); err != nil {
		return Value{}, err
	}

	scheduleSeq(act, p.Code)

	i.frames = i.frames[:0]
	i.frames = append(i.frames, act)
	i.steps = 0
	i.last = NewUnit()

	if err := i.Run(); err != nil {
		return Value{}, err
	}

	if err := act.MergeInto(i.session); err != nil {
		return Value{}, err
	}

	return i.last, nil
}

// returnFromActivation pops an exhausted frame and hands its result to
// the caller's value stack, or records it as the final result when the
// outermost activation completes.
func (i *Interp) returnFromActivation(f *frame.Frame) {
	i.frames = i.frames[:len(i.frames)-1]

	ret := NewUnit()
	if v, ok := f.Peek(); ok {
		if tv, isValue := v.(Value); isValue {
			ret = tv
		}
	}

	if len(i.frames) > 0 {
		i.frames[len(i.frames)-1].Push(ret)
		return
	}

	i.last = ret
}

// exec performs one instruction against the frame it was taken from.
func (i *Interp) exec(f *frame.Frame, raw frame.Instruction) error {
	switch in := raw.(type) {
	case ConstIn:
		return f.Push(in.V)

	case DeclIn:
		v, err := i.popValue(f)
		if err != nil {
			return err
		}
		return f.Define(in.Name, v)

	case LoadIn:
		v, err := f.Lookup(in.Name)
		if err != nil {
			return err
		}
		if v == nil {
			return fmt.Errorf("read of unassigned variable %s", in.Name)
		}
		return f.Push(v)

	case StoreIn:
		v, err := i.popValue(f)
		if err != nil {
			return err
		}
		return f.Assign(in.Name, v)

	case BinIn:
		right, err := i.popValue(f)
		if err != nil {
			return err
		}
		left, err := i.popValue(f)
		if err != nil {
			return err
		}
		res, err := evalBinary(in.Op, left, right)
		if err != nil {
			return err
		}
		return f.Push(res)

	case PrintIn:
		v, err := i.popValue(f)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(i.out, v)
		return err

	case DropIn:
		_, err := f.Pop()
		return err

	case DupIn:
		v, ok := f.Peek()
		if !ok {
			return frame.ErrStackUnderflow
		}
		return f.Push(v)

	case BlockIn:
		f.EnterScope(in.Owner)
		if err := f.ScheduleNext(leaveIn{instr: instr{pos: in.pos}, keep: in.Keep}); err != nil {
			return err
		}
		scheduleSeq(f, in.Body)
		return nil

	case leaveIn:
		if in.keep {
			return f.ExitScope()
		}
		return f.ExitScopeDiscardingValue()

	case IfIn:
		v, err := i.popValue(f)
		if err != nil {
			return err
		}
		b, err := v.AsBool()
		if err != nil {
			return err
		}
		branch := in.Then
		if !b {
			branch = in.Else
		}
		// branches run in the current scope; a branch that wants its own
		// scope uses an explicit block
		scheduleSeq(f, branch)
		return nil

	case LoopIn:
		f.EnterScope("loop")
		if err := f.ScheduleNext(leaveIn{instr: instr{pos: in.pos}, keep: false}); err != nil {
			return err
		}
		scheduleIteration(f, in, false)
		return nil

	case loopTestIn:
		v, err := i.popValue(f)
		if err != nil {
			return err
		}
		b, err := v.AsBool()
		if err != nil {
			return err
		}
		if b {
			scheduleIteration(f, in.loop, true)
		}
		return nil

	case BreakIn:
		f.DropPending()
		return f.ExitScopeDiscardingValue()

	case ClosureIn:
		c := &Closure{
			Name:     in.Name,
			Params:   in.Params,
			Body:     in.Body,
			Captured: make(map[frame.Ident]*frame.Slot),
			File:     in.File,
		}
		f.CaptureInto(c.Captured)
		return f.Push(NewClosure(c))

	case CallIn:
		return i.call(f, in.Argc)

	case ReturnIn:
		ret := frame.Value(NewUnit())
		if v, ok := f.Peek(); ok {
			ret = v
			if _, err := f.Pop(); err != nil {
				return err
			}
		}
		for f.Depth() > 1 {
			f.DropPending()
			if err := f.ExitScopeDiscardingValue(); err != nil {
				return err
			}
		}
		f.DropPending()
		return f.Push(ret)

	default:
		return fmt.Errorf("unknown instruction %T", raw)
	}
}

// call activates a closure in a fresh frame. Parameters are defined
// first, then captured slots are bound beneath them, so a parameter
// shadows a captured variable of the same name.
func (i *Interp) call(f *frame.Frame, argc int) error {
	args := make([]Value, argc)
	for k := argc - 1; k >= 0; k-- {
		v, err := i.popValue(f)
		if err != nil {
			return err
		}
		args[k] = v
	}

	callee, err := i.popValue(f)
	if err != nil {
		return err
	}
	if callee.Kind != KindClosure || callee.Fn == nil {
		return fmt.Errorf("cannot call %s", callee)
	}

	c := callee.Fn
	if len(args) != len(c.Params) {
		return fmt.Errorf("%s expects %d arguments, got %d", c.Name, len(c.Params), len(args))
	}

	act := frame.New(c.Name,
		frame.WithSource(c.File),
		frame.WithFunction(c.Name))

	for idx, p := range c.Params {
		if err := act.Define(p, args[idx]); err != nil {
			return err
		}
	}

	sc := act.CurrentScope()
	for ident, slot := range c.Captured {
		if !sc.Contains(ident) {
			sc.DefineSlot(ident, slot)
		}
	}

	scheduleSeq(act, c.Body)
	i.frames = append(i.frames, act)

	return nil
}

// popValue pops the frame's top and asserts it is a dispatcher value
func (i *Interp) popValue(f *frame.Frame) (Value, error) {
	raw, err := f.Pop()
	if err != nil {
		return Value{}, err
	}

	v, ok := raw.(Value)
	if !ok {
		return Value{}, fmt.Errorf("foreign value %T on stack", raw)
	}

	return v, nil
}

// scheduleSeq queues seq so it runs in order. The queue inserts at the
// front, so the sequence is scheduled back to front.
func scheduleSeq(f *frame.Frame, seq []frame.Instruction) {
	for idx := len(seq) - 1; idx >= 0; idx-- {
		// frames handed to scheduleSeq always have a scope
		_ = f.ScheduleNext(seq[idx])
	}
}

// scheduleIteration queues one loop pass: body (on repeat passes), then
// condition, then the test that decides whether to go again.
func scheduleIteration(f *frame.Frame, loop LoopIn, withBody bool) {
	_ = f.ScheduleNext(loopTestIn{instr: instr{pos: loop.pos}, loop: loop})
	scheduleSeq(f, loop.Cond)
	if withBody {
		scheduleSeq(f, loop.Body)
	}
}
