// Package backend generates assembly for the redstone computer from an
// MCN AST. The target is a register machine with two accumulators (A and
// B), 32 variable slots, memory-mapped output ports and paged program
// memory (64 instructions per page); jumps across pages need the target
// page loaded first (LCL) and a dedicated jump variant.
package backend

import (
	"fmt"
	"strings"

	"github.com/Christiano300/mcn-ls/internal/diag"
	"github.com/Christiano300/mcn-ls/internal/frontend"
)

// Variant is an instruction opcode.
type Variant int

const (
	LAL Variant = iota // load A low byte
	LAH                // load A high byte
	LBL                // load B low byte
	LBH                // load B high byte
	LA                 // load A from variable slot
	LB                 // load B from variable slot
	SVA                // save A to variable slot
	ADD
	SUB
	MUL
	AND
	OR
	XOR
	LCL // load code page
	JMP
	JE
	JNE
	JL
	JLE
	JG
	JGE
	// cross-page jump variants, preceded by LCL
	JMPD
	JED
	JNED
	JLD
	JLED
	JGD
	JGED
)

var variantNames = [...]string{
	LAL: "LAL", LAH: "LAH", LBL: "LBL", LBH: "LBH",
	LA: "LA", LB: "LB", SVA: "SVA",
	ADD: "ADD", SUB: "SUB", MUL: "MUL", AND: "AND", OR: "OR", XOR: "XOR",
	LCL: "LCL",
	JMP: "JMP", JE: "JE", JNE: "JNE", JL: "JL", JLE: "JLE", JG: "JG", JGE: "JGE",
	JMPD: "JMPD", JED: "JED", JNED: "JNED", JLD: "JLD", JLED: "JLED", JGD: "JGD", JGED: "JGED",
}

// String returns the assembly mnemonic.
func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// IsJump reports whether the instruction's argument is a jump mark.
func (v Variant) IsJump() bool {
	return v >= JMP
}

// IsDiscJump reports whether the jump already targets another page.
func (v Variant) IsDiscJump() bool {
	return v >= JMPD
}

// ToDiscJump returns the cross-page variant of a jump.
func (v Variant) ToDiscJump() Variant {
	if !v.IsJump() || v.IsDiscJump() {
		return v
	}
	return v + (JMPD - JMP)
}

// jumpFor returns the conditional jump taken when the comparison holds.
func jumpFor(op frontend.EqOperator) Variant {
	switch op {
	case frontend.EqualTo:
		return JE
	case frontend.NotEqual:
		return JNE
	case frontend.Less:
		return JL
	case frontend.LessEq:
		return JLE
	case frontend.Greater:
		return JG
	default: // GreaterEq
		return JGE
	}
}

// Instruction is a single assembly instruction with an optional one-byte
// argument. Loc points back at the source that produced it.
type Instruction struct {
	Variant Variant
	Arg     uint8
	HasArg  bool
	Loc     diag.Range
}

func instr(v Variant, loc diag.Range) Instruction {
	return Instruction{Variant: v, Loc: loc}
}

func instrArg(v Variant, arg uint8, loc diag.Range) Instruction {
	return Instruction{Variant: v, Arg: arg, HasArg: true, Loc: loc}
}

// String renders the instruction as a line of assembly.
func (i Instruction) String() string {
	if i.HasArg {
		return fmt.Sprintf("%s %d", i.Variant, i.Arg)
	}
	return i.Variant.String()
}

// Format renders instructions as assembly text, one per line.
func Format(instructions []Instruction) string {
	var b strings.Builder
	for _, in := range instructions {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}
