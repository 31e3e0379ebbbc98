package interp

import (
	"fmt"

	"strata/pkg/frame"
	"strata/pkg/source"
)

// BinOp enumerates the binary operators the dispatcher evaluates.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var binOpNames = map[BinOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpEq: "==", OpNeq: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAnd: "&&", OpOr: "||",
}

func (op BinOp) String() string {
	if s, ok := binOpNames[op]; ok {
		return s
	}

	return fmt.Sprintf("op(%d)", int(op))
}

// instr carries the source position every instruction is tagged with.
// Positions are used only for diagnostics; execution never consults them.
type instr struct {
	pos source.Position
}

func (in instr) Pos() source.Position {
	return in.pos
}

// ConstIn pushes a literal value.
type ConstIn struct {
	instr
	V Value
}

func (in ConstIn) String() string { return fmt.Sprintf("const %s", in.V) }

// DeclIn pops the top value and defines a new variable bound to it in the
// innermost scope.
type DeclIn struct {
	instr
	Name frame.Ident
}

func (in DeclIn) String() string { return fmt.Sprintf("decl %s", in.Name) }

// LoadIn resolves a variable and pushes its value.
type LoadIn struct {
	instr
	Name frame.Ident
}

func (in LoadIn) String() string { return fmt.Sprintf("load %s", in.Name) }

// StoreIn pops the top value and assigns it through the innermost scope
// that defines the variable.
type StoreIn struct {
	instr
	Name frame.Ident
}

func (in StoreIn) String() string { return fmt.Sprintf("store %s", in.Name) }

// BinIn pops two operands (right first) and pushes the operator result.
type BinIn struct {
	instr
	Op BinOp
}

func (in BinIn) String() string { return fmt.Sprintf("bin %s", in.Op) }

// PrintIn pops the top value and writes it to the interpreter's output.
type PrintIn struct {
	instr
}

func (in PrintIn) String() string { return "print" }

// DropIn pops and discards the top value.
type DropIn struct {
	instr
}

func (in DropIn) String() string { return "drop" }

// DupIn pushes a second reference to the top value.
type DupIn struct {
	instr
}

func (in DupIn) String() string { return "dup" }

// BlockIn enters a nested scope and schedules its body there. When the
// body has run, the scope is exited; Keep decides whether the block's
// top value propagates to the enclosing scope or is discarded.
type BlockIn struct {
	instr
	Owner string
	Body  []frame.Instruction
	Keep  bool
}

func (in BlockIn) String() string { return fmt.Sprintf("block %s", in.Owner) }

// leaveIn is scheduled by BlockIn (and LoopIn) to close the scope it
// opened once the scheduled body has drained.
type leaveIn struct {
	instr
	keep bool
}

func (in leaveIn) String() string { return "leave" }

// IfIn pops a condition and schedules one of its branches in front of
// the current scope's queue.
type IfIn struct {
	instr
	Then []frame.Instruction
	Else []frame.Instruction
}

func (in IfIn) String() string { return "if" }

// LoopIn runs Body as long as Cond leaves a truthy value. Each loop owns
// one scope; iterations are driven entirely by front-of-queue scheduling,
// there is no program counter to jump.
type LoopIn struct {
	instr
	Cond []frame.Instruction
	Body []frame.Instruction
}

func (in LoopIn) String() string { return "loop" }

// loopTestIn pops the condition result and either schedules the next
// iteration or lets the loop scope drain to its leave instruction.
type loopTestIn struct {
	instr
	loop LoopIn
}

func (in loopTestIn) String() string { return "loop-test" }

// BreakIn abandons everything still planned in the loop scope and exits
// it. Legal only directly inside a loop body.
type BreakIn struct {
	instr
}

func (in BreakIn) String() string { return "break" }

// ClosureIn builds a function value capturing every binding visible in
// the current frame and pushes it.
type ClosureIn struct {
	instr
	Name   string
	Params []frame.Ident
	Body   []frame.Instruction
	File   *source.File
}

func (in ClosureIn) String() string { return fmt.Sprintf("closure %s", in.Name) }

// CallIn pops Argc arguments (last pushed = last parameter), then the
// callee, and activates the callee in a fresh frame. The callee's result
// lands on the caller's value stack when the activation returns.
type CallIn struct {
	instr
	Argc int
}

func (in CallIn) String() string { return fmt.Sprintf("call/%d", in.Argc) }

// ReturnIn pops the return value, unwinds the activation's scopes, and
// leaves the value for the activation-return machinery to hand back.
type ReturnIn struct {
	instr
}

func (in ReturnIn) String() string { return "return" }
