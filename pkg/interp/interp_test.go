package interp_test

import (
	"bytes"
	"errors"
	"testing"

	"strata/pkg/frame"
	"strata/pkg/interp"
)

func runProgram(t *testing.T, p *interp.Program) (string, interp.Value) {
	t.Helper()

	var out bytes.Buffer
	it := interp.New(interp.WithWriter(&out), interp.WithMaxSteps(100000))
	it.Load(p)

	if err := it.Run(); err != nil {
		t.Fatalf("run %s: %v", p.Name, err)
	}

	return out.String(), it.Result()
}

func TestArithmeticAndPrint(t *testing.T) {
	prog := interp.NewProgram("arith", "arith.st").
		Int(2).Int(3).Bin(interp.OpMul).
		Int(4).Bin(interp.OpAdd).
		Dup().Print().
		Build()

	out, result := runProgram(t, prog)

	if out != "10\n" {
		t.Errorf("output: expected 10, got %q", out)
	}
	if result.Kind != interp.KindInt || result.I64 != 10 {
		t.Errorf("result: expected 10, got %s", result)
	}
}

func TestBlockValuePropagation(t *testing.T) {
	prog := interp.NewProgram("block", "block.st").
		Block("inner", func(b *interp.Builder) {
			b.Int(21).Int(2).Bin(interp.OpMul)
		}).
		Print().
		Build()

	out, _ := runProgram(t, prog)
	if out != "42\n" {
		t.Errorf("expected block result to propagate, got %q", out)
	}
}

func TestStmtBlockDiscardsValue(t *testing.T) {
	prog := interp.NewProgram("stmt", "stmt.st").
		Int(1).
		StmtBlock("side", func(b *interp.Builder) {
			b.Int(99)
		}).
		Print().
		Build()

	out, _ := runProgram(t, prog)
	if out != "1\n" {
		t.Errorf("statement block must not leak its value, got %q", out)
	}
}

func TestShadowingEndToEnd(t *testing.T) {
	prog := interp.NewProgram("shadow", "shadow.st").
		Int(1).Decl("x").
		Block("inner", func(b *interp.Builder) {
			b.Int(2).Decl("x").Load("x")
		}).
		Print().
		Load("x").Print().
		Build()

	out, _ := runProgram(t, prog)
	if out != "2\n1\n" {
		t.Errorf("expected shadowed then outer value, got %q", out)
	}
}

func TestIfBranches(t *testing.T) {
	build := func(cond bool) *interp.Program {
		return interp.NewProgram("if", "if.st").
			Bool(cond).
			If(func(b *interp.Builder) {
				b.Str("yes").Print()
			}, func(b *interp.Builder) {
				b.Str("no").Print()
			}).
			Build()
	}

	if out, _ := runProgram(t, build(true)); out != "yes\n" {
		t.Errorf("then branch: got %q", out)
	}
	if out, _ := runProgram(t, build(false)); out != "no\n" {
		t.Errorf("else branch: got %q", out)
	}
}

func TestLoopCountdown(t *testing.T) {
	prog := interp.NewProgram("loop", "loop.st").
		Int(3).Decl("i").
		Loop(func(b *interp.Builder) {
			b.Load("i").Int(0).Bin(interp.OpGt)
		}, func(b *interp.Builder) {
			b.Load("i").Print().
				Load("i").Int(1).Bin(interp.OpSub).Store("i")
		}).
		Build()

	out, _ := runProgram(t, prog)
	if out != "3\n2\n1\n" {
		t.Errorf("expected countdown, got %q", out)
	}
}

func TestLoopBreak(t *testing.T) {
	prog := interp.NewProgram("break", "break.st").
		Int(0).Decl("i").
		Loop(func(b *interp.Builder) {
			b.Bool(true)
		}, func(b *interp.Builder) {
			b.Load("i").Int(1).Bin(interp.OpAdd).Store("i").
				Load("i").Int(3).Bin(interp.OpGe).
				If(func(b *interp.Builder) {
					b.Break()
				}, nil)
		}).
		Load("i").Print().
		Build()

	out, _ := runProgram(t, prog)
	if out != "3\n" {
		t.Errorf("expected loop to break at 3, got %q", out)
	}
}

func TestClosureCounter(t *testing.T) {
	prog := interp.NewProgram("counter", "counter.st").
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

	out, _ := runProgram(t, prog)
	if out != "1\n2\n3\n" {
		t.Errorf("captured slot should persist across calls, got %q", out)
	}
}

func TestClosureParameters(t *testing.T) {
	prog := interp.NewProgram("add", "add.st").
		Closure("add", []string{"a", "b"}, func(b *interp.Builder) {
			b.Load("a").Load("b").Bin(interp.OpAdd).Return()
		}).
		Decl("add").
		Load("add").Int(19).Int(23).Call(2).Print().
		Build()

	out, _ := runProgram(t, prog)
	if out != "42\n" {
		t.Errorf("expected 42, got %q", out)
	}
}

func TestParameterShadowsCapture(t *testing.T) {
	prog := interp.NewProgram("shadowparam", "shadowparam.st").
		Int(100).Decl("x").
		Closure("id", []string{"x"}, func(b *interp.Builder) {
			b.Load("x").Return()
		}).
		Decl("id").
		Load("id").Int(7).Call(1).Print().
		Build()

	out, _ := runProgram(t, prog)
	if out != "7\n" {
		t.Errorf("parameter must shadow captured x, got %q", out)
	}
}

func TestEarlyReturnSkipsRest(t *testing.T) {
	prog := interp.NewProgram("early", "early.st").
		Closure("f", nil, func(b *interp.Builder) {
			b.Int(1).Return().
				Str("unreachable").Print()
		}).
		Call(0).Print().
		Build()

	out, _ := runProgram(t, prog)
	if out != "1\n" {
		t.Errorf("return must drop pending work, got %q", out)
	}
}

func TestUnresolvedVariableAbortsRun(t *testing.T) {
	prog := interp.NewProgram("bad", "bad.st").
		Load("ghost").
		Build()

	it := interp.New(interp.WithWriter(&bytes.Buffer{}))
	it.Load(prog)

	err := it.Run()
	if !errors.Is(err, frame.ErrUnresolvedVariable) {
		t.Errorf("expected ErrUnresolvedVariable, got %v", err)
	}
}

func TestMaxStepsExceeded(t *testing.T) {
	prog := interp.NewProgram("spin", "spin.st").
		Loop(func(b *interp.Builder) {
			b.Bool(true)
		}, func(b *interp.Builder) {
			b.Int(0).Drop()
		}).
		Build()

	it := interp.New(interp.WithWriter(&bytes.Buffer{}), interp.WithMaxSteps(500))
	it.Load(prog)

	if err := it.Run(); !errors.Is(err, interp.ErrMaxStepsExceeded) {
		t.Errorf("expected ErrMaxStepsExceeded, got %v", err)
	}
}

func TestRunWithoutProgram(t *testing.T) {
	it := interp.New(interp.WithWriter(&bytes.Buffer{}))

	if err := it.Run(); !errors.Is(err, interp.ErrNoProgram) {
		t.Errorf("expected ErrNoProgram, got %v", err)
	}
}

func TestSnippetSessionSharesState(t *testing.T) {
	it := interp.New(interp.WithWriter(&bytes.Buffer{}), interp.WithMaxSteps(10000))

	first := interp.NewProgram("s1", "session.st").
		Int(1).Decl("x").
		Build()
	if _, err := it.RunSnippet(first); err != nil {
		t.Fatalf("snippet 1: %v", err)
	}

	second := interp.NewProgram("s2", "session.st").
		Load("x").Int(41).Bin(interp.OpAdd).Store("x").
		Build()
	if _, err := it.RunSnippet(second); err != nil {
		t.Fatalf("snippet 2: %v", err)
	}

	third := interp.NewProgram("s3", "session.st").
		Load("x").
		Build()
	v, err := it.RunSnippet(third)
	if err != nil {
		t.Fatalf("snippet 3: %v", err)
	}

	if v.Kind != interp.KindInt || v.I64 != 42 {
		t.Errorf("session state should persist, got %s", v)
	}
}

func TestCallArityMismatch(t *testing.T) {
	prog := interp.NewProgram("arity", "arity.st").
		Closure("f", []string{"a"}, func(b *interp.Builder) {
			b.Load("a").Return()
		}).
		Call(0).
		Build()

	it := interp.New(interp.WithWriter(&bytes.Buffer{}))
	it.Load(prog)

	if err := it.Run(); err == nil {
		t.Error("expected an arity error")
	}
}

func TestStringOps(t *testing.T) {
	prog := interp.NewProgram("strings", "strings.st").
		Str("foo").Str("bar").Bin(interp.OpAdd).Print().
		Str("a").Str("b").Bin(interp.OpLt).Print().
		Build()

	out, _ := runProgram(t, prog)
	if out != "foobar\ntrue\n" {
		t.Errorf("got %q", out)
	}
}
