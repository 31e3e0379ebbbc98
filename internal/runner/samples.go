package runner

import "strata/pkg/interp"

// SampleInfo describes one built-in demo program.
type SampleInfo struct {
	Name        string
	Description string
}

// Samples returns the built-in demos in presentation order
func Samples() []SampleInfo {
	return []SampleInfo{
		{"counter", "closure capturing a mutable counter slot"},
		{"shadow", "scope shadowing and block value propagation"},
		{"countdown", "queue-scheduled loop with an early break"},
	}
}

// Sample builds a demo program by name
func Sample(name string) (*interp.Program, bool) {
	switch name {
	case "counter":
		return counterSample(), true
	case "shadow":
		return shadowSample(), true
	case "countdown":
		return countdownSample(), true
	default:
		return nil, false
	}
}

// counterSample: a factory returns a closure whose captured slot outlives
// the factory activation; three calls print 1, 2, 3.
func counterSample() *interp.Program {
	return interp.NewProgram("counter", "counter.st").
		Closure("make_counter", nil, func(b *interp.Builder) {
			b.Int(0).Decl("n").
				Closure("tick", nil, func(b *interp.Builder) {
					b.Load("n").Int(1).Bin(interp.OpAdd).Store("n").
						Load("n").Return()
				})
		}).
		Call(0).Decl("tick").
		Load("tick").Call(0).Print().
		Load("tick").Call(0).Print().
		Load("tick").Call(0).Print().
		Build()
}

// shadowSample: an inner block shadows x, its result propagates out of
// the block, and the outer x is untouched; prints 1, 2, 1.
func shadowSample() *interp.Program {
	return interp.NewProgram("shadow", "shadow.st").
		Int(1).Decl("x").
		Load("x").Print().
		Block("inner", func(b *interp.Builder) {
			b.Int(2).Decl("x").Load("x")
		}).
		Print().
		Load("x").Print().
		Build()
}

// countdownSample: prints 5..3 and breaks out of an otherwise endless
// loop when the counter reaches 2.
func countdownSample() *interp.Program {
	return interp.NewProgram("countdown", "countdown.st").
		Int(5).Decl("i").
		Loop(func(b *interp.Builder) {
			b.Bool(true)
		}, func(b *interp.Builder) {
			b.Load("i").Print().
				Load("i").Int(1).Bin(interp.OpSub).Store("i").
				Load("i").Int(2).Bin(interp.OpEq).
				If(func(b *interp.Builder) {
					b.Break()
				}, nil)
		}).
		Str("done").Print().
		Build()
}
