package interp

import (
	"strata/pkg/frame"
	"strata/pkg/source"
)

// Program is a ready-to-run instruction sequence with its source
// metadata. Programs are assembled with a Builder; the host language's
// front end (parser, codegen) is out of scope here.
type Program struct {
	Name string
	File *source.File
	Code []frame.Instruction
}

// Builder assembles instruction sequences. Every emitted instruction is
// tagged with a synthetic position (one line per instruction) so frame
// diagnostics have something real to report.
type Builder struct {
	name string
	file *source.File
	line *int
	code []frame.Instruction
}

// NewProgram creates a builder for a program with the given name and
// source-file name
func NewProgram(name, fileName string) *Builder {
	line := 0
	return &Builder{
		name: name,
		file: source.NewFile(fileName),
		line: &line,
	}
}

// Build finalizes the program
func (b *Builder) Build() *Program {
	return &Program{
		Name: b.name,
		File: b.file,
		Code: b.code,
	}
}

func (b *Builder) at() instr {
	*b.line++
	return instr{pos: source.NewPosition(*b.line, 1)}
}

func (b *Builder) sub(body func(*Builder)) []frame.Instruction {
	inner := &Builder{name: b.name, file: b.file, line: b.line}
	if body != nil {
		body(inner)
	}

	return inner.code
}

// Const pushes a literal value
func (b *Builder) Const(v Value) *Builder {
	b.code = append(b.code, ConstIn{instr: b.at(), V: v})
	return b
}

// Int pushes an integer literal
func (b *Builder) Int(n int64) *Builder {
	return b.Const(NewInt(n))
}

// Float pushes a float literal
func (b *Builder) Float(f float64) *Builder {
	return b.Const(NewFloat(f))
}

// Bool pushes a boolean literal
func (b *Builder) Bool(v bool) *Builder {
	return b.Const(NewBool(v))
}

// Str pushes a string literal
func (b *Builder) Str(s string) *Builder {
	return b.Const(NewString(s))
}

// Decl declares a variable initialized from the top of the stack
func (b *Builder) Decl(name string) *Builder {
	b.code = append(b.code, DeclIn{instr: b.at(), Name: frame.Ident(name)})
	return b
}

// Load pushes a variable's current value
func (b *Builder) Load(name string) *Builder {
	b.code = append(b.code, LoadIn{instr: b.at(), Name: frame.Ident(name)})
	return b
}

// Store assigns the top of the stack to an already-declared variable
func (b *Builder) Store(name string) *Builder {
	b.code = append(b.code, StoreIn{instr: b.at(), Name: frame.Ident(name)})
	return b
}

// Bin applies a binary operator to the top two values
func (b *Builder) Bin(op BinOp) *Builder {
	b.code = append(b.code, BinIn{instr: b.at(), Op: op})
	return b
}

// Print writes the top of the stack to the interpreter output
func (b *Builder) Print() *Builder {
	b.code = append(b.code, PrintIn{instr: b.at()})
	return b
}

// Drop discards the top of the stack
func (b *Builder) Drop() *Builder {
	b.code = append(b.code, DropIn{instr: b.at()})
	return b
}

// Dup duplicates the top of the stack
func (b *Builder) Dup() *Builder {
	b.code = append(b.code, DupIn{instr: b.at()})
	return b
}

// Block runs body in a nested scope whose result value propagates out
func (b *Builder) Block(owner string, body func(*Builder)) *Builder {
	b.code = append(b.code, BlockIn{instr: b.at(), Owner: owner, Body: b.sub(body), Keep: true})
	return b
}

// StmtBlock runs body in a nested scope and discards its result
func (b *Builder) StmtBlock(owner string, body func(*Builder)) *Builder {
	b.code = append(b.code, BlockIn{instr: b.at(), Owner: owner, Body: b.sub(body), Keep: false})
	return b
}

// If pops a condition and runs one of the branches; either may be nil
func (b *Builder) If(then, els func(*Builder)) *Builder {
	b.code = append(b.code, IfIn{instr: b.at(), Then: b.sub(then), Else: b.sub(els)})
	return b
}

// Loop runs body while cond leaves a truthy value
func (b *Builder) Loop(cond, body func(*Builder)) *Builder {
	b.code = append(b.code, LoopIn{instr: b.at(), Cond: b.sub(cond), Body: b.sub(body)})
	return b
}

// Break exits the innermost loop
func (b *Builder) Break() *Builder {
	b.code = append(b.code, BreakIn{instr: b.at()})
	return b
}

// Closure pushes a function value capturing the visible environment
func (b *Builder) Closure(name string, params []string, body func(*Builder)) *Builder {
	idents := make([]frame.Ident, len(params))
	for i, p := range params {
		idents[i] = frame.Ident(p)
	}

	b.code = append(b.code, ClosureIn{
		instr:  b.at(),
		Name:   name,
		Params: idents,
		Body:   b.sub(body),
		File:   b.file,
	})
	return b
}

// Call invokes the closure beneath argc arguments on the stack
func (b *Builder) Call(argc int) *Builder {
	b.code = append(b.code, CallIn{instr: b.at(), Argc: argc})
	return b
}

// Return unwinds the current activation with the top of the stack
func (b *Builder) Return() *Builder {
	b.code = append(b.code, ReturnIn{instr: b.at()})
	return b
}
