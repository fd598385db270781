package backend

import (
	"fmt"

	"github.com/Christiano300/mcn-ls/internal/diag"
	"github.com/Christiano300/mcn-ls/internal/frontend"
)

const (
	// slotCount is the number of variable slots in the computer's memory.
	slotCount = 32
	// outPortBase is the slot offset of the memory-mapped output ports.
	outPortBase = 32
	// pageSize is the number of instructions per code page.
	pageSize = 64
	// maxProgram is the largest addressable program (one-byte jump targets).
	maxProgram = 256
)

// Generate compiles an AST into the final instruction stream. Errors are
// collected per top-level statement; any error suppresses the (partial)
// instruction output.
func Generate(ast []frontend.Expr) ([]Instruction, []diag.Diagnostic) {
	c := newCompiler()
	var diags []diag.Diagnostic
	for _, stmt := range ast {
		if err := c.evalStatement(stmt); err != nil {
			diags = append(diags, asDiagnostic(err))
		}
	}
	if len(diags) > 0 {
		return nil, diags
	}
	instructions, err := c.finish()
	if err != nil {
		return nil, []diag.Diagnostic{asDiagnostic(err)}
	}
	return instructions, nil
}

// codeError is a compile failure anchored to a source range.
type codeError struct {
	msg string
	loc diag.Range
}

func (e *codeError) Error() string { return e.msg }

func errAt(loc diag.Range, format string, args ...any) error {
	return &codeError{msg: fmt.Sprintf(format, args...), loc: loc}
}

func asDiagnostic(err error) diag.Diagnostic {
	if ce, ok := err.(*codeError); ok {
		return diag.Errorf(diag.SourceCompiler, ce.loc, "%s", ce.msg)
	}
	return diag.Errorf(diag.SourceCompiler, diag.Range{}, "%s", err.Error())
}

// regContents tracks what a register is known to hold, so loads of a
// value already present can be skipped.
type regContents struct {
	kind regKind
	num  int16
	slot uint8
}

type regKind int

const (
	regUnknown regKind = iota
	regNumber
	regSlot
)

func knownNumber(v int16) regContents { return regContents{kind: regNumber, num: v} }
func knownSlot(s uint8) regContents   { return regContents{kind: regSlot, slot: s} }

// machineState is the known register state at the current emit point.
type machineState struct {
	a, b regContents
}

// instrNode is either a single instruction or a completed nested scope;
// flattening preserves emission order.
type instrNode struct {
	code  *Instruction
	scope []instrNode
}

type scope struct {
	instructions []instrNode
	variables    map[string]uint8
	inlineVars   map[string]int16
	state        machineState
}

func newScope(state machineState) *scope {
	return &scope{
		variables:  make(map[string]uint8),
		inlineVars: make(map[string]int16),
		state:      state,
	}
}

type compiler struct {
	scopes    []*scope // scopes[0] is the root scope
	jumpMarks map[uint8]int
	slots     [slotCount]bool
	loaded    map[string]bool
}

func newCompiler() *compiler {
	return &compiler{
		scopes:    []*scope{newScope(machineState{})},
		jumpMarks: make(map[uint8]int),
		loaded:    make(map[string]bool),
	}
}

func (c *compiler) lastScope() *scope { return c.scopes[len(c.scopes)-1] }
func (c *compiler) isRootScope() bool { return len(c.scopes) == 1 }

// emit appends an instruction to the current scope and updates the known
// register state.
func (c *compiler) emit(in Instruction) {
	s := c.lastScope()
	applyState(&s.state, in)
	s.instructions = append(s.instructions, instrNode{code: &in})
}

func applyState(state *machineState, in Instruction) {
	switch in.Variant {
	case LAL:
		state.a = knownNumber(int16(in.Arg))
	case LAH:
		state.a = withHighByte(state.a, in.Arg)
	case LBL:
		state.b = knownNumber(int16(in.Arg))
	case LBH:
		state.b = withHighByte(state.b, in.Arg)
	case LA:
		state.a = knownSlot(in.Arg)
	case LB:
		state.b = knownSlot(in.Arg)
	case SVA:
		// A now mirrors the slot it was saved to
		state.a = knownSlot(in.Arg)
	case ADD, SUB, MUL, AND, OR, XOR:
		state.a = regContents{}
	}
}

func withHighByte(r regContents, high uint8) regContents {
	if r.kind == regNumber {
		return knownNumber(int16(uint16(r.num)&0xff | uint16(high)<<8))
	}
	return knownNumber(int16(uint16(high) << 8))
}

func (c *compiler) pushScope(state machineState) {
	c.scopes = append(c.scopes, newScope(state))
}

func (c *compiler) popScope() {
	popped := c.lastScope()
	c.scopes = c.scopes[:len(c.scopes)-1]
	c.lastScope().instructions = append(c.lastScope().instructions, instrNode{scope: popped.instructions})
	for _, slot := range popped.variables {
		c.slots[slot] = false
	}
}

// currentLen is the absolute index the next emitted instruction will have
// in the flattened program.
func (c *compiler) currentLen() int {
	total := 0
	for _, s := range c.scopes {
		total += nodeCount(s.instructions)
	}
	return total
}

func nodeCount(nodes []instrNode) int {
	sum := 0
	for _, n := range nodes {
		if n.code != nil {
			sum++
		} else {
			sum += nodeCount(n.scope)
		}
	}
	return sum
}

// Variables and inline constants

func (c *compiler) insertInlineVar(name string, value int16) {
	c.lastScope().inlineVars[name] = value
}

func (c *compiler) getInlineVar(name string) (int16, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i].inlineVars[name]; ok {
			return v, true
		}
	}
	return 0, false
}

func (c *compiler) nextFreeSlot() (uint8, bool) {
	for i, used := range c.slots {
		if !used {
			c.slots[i] = true
			return uint8(i), true
		}
	}
	return 0, false
}

// insertVar returns the slot of name, allocating one in the current scope
// if the variable does not exist yet.
func (c *compiler) insertVar(name string, loc diag.Range) (uint8, error) {
	if slot, ok := c.lookupVar(name); ok {
		return slot, nil
	}
	slot, ok := c.nextFreeSlot()
	if !ok {
		return 0, errAt(loc, "too many variables (max %d)", slotCount)
	}
	c.lastScope().variables[name] = slot
	return slot, nil
}

func (c *compiler) lookupVar(name string) (uint8, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if slot, ok := c.scopes[i].variables[name]; ok {
			return slot, true
		}
	}
	return 0, false
}

func (c *compiler) getVar(name string, loc diag.Range) (uint8, error) {
	if slot, ok := c.lookupVar(name); ok {
		return slot, nil
	}
	return 0, errAt(loc, "variable %q does not exist", name)
}

func (c *compiler) tempVar(loc diag.Range) (uint8, error) {
	slot, ok := c.nextFreeSlot()
	if !ok {
		return 0, errAt(loc, "too many variables (max %d)", slotCount)
	}
	return slot, nil
}

func (c *compiler) freeTempVar(slot uint8) {
	c.slots[slot] = false
}

// Jump marks

func (c *compiler) newJumpMark(loc diag.Range) (uint8, error) {
	if len(c.jumpMarks) >= maxProgram {
		return 0, errAt(loc, "too many jump targets")
	}
	id := uint8(len(c.jumpMarks))
	c.jumpMarks[id] = 0
	return id, nil
}

func (c *compiler) setJumpMark(id uint8, pos int) {
	c.jumpMarks[id] = pos
}

// Statements

func (c *compiler) evalStatement(e frontend.Expr) error {
	switch stmt := e.(type) {
	case *frontend.InlineDecl:
		value, err := c.evalConst(stmt.Value)
		if err != nil {
			return errAt(stmt.Value.Span(), "inline values must be compile-time constants")
		}
		c.insertInlineVar(stmt.Name.Name, value)
		return nil

	case *frontend.UseStmt:
		return c.evalUse(stmt)

	case *frontend.VarDecl:
		_, err := c.insertVar(stmt.Name.Name, stmt.Loc)
		return err

	case *frontend.PassStmt:
		return nil

	case *frontend.ForeverStmt:
		return c.evalForever(stmt)

	case *frontend.WhileStmt:
		return c.evalWhile(stmt)

	case *frontend.IfStmt:
		return c.evalConditional(stmt)

	default:
		return c.evalExpr(e)
	}
}

func (c *compiler) evalUse(stmt *frontend.UseStmt) error {
	if !c.isRootScope() {
		return errAt(stmt.Loc, "use is only allowed at the top level")
	}
	for _, ident := range stmt.Path {
		mod, ok := modules[ident.Name]
		if !ok {
			return errAt(ident.Loc, "unknown module %q", ident.Name)
		}
		if mod.init != nil {
			if err := mod.init(c, stmt.Loc); err != nil {
				return err
			}
		}
		c.loaded[ident.Name] = true
	}
	return nil
}

func (c *compiler) evalForever(stmt *frontend.ForeverStmt) error {
	id, err := c.newJumpMark(stmt.Loc)
	if err != nil {
		return err
	}
	c.setJumpMark(id, c.currentLen())

	// a loop body can be entered with anything in the registers
	c.pushScope(machineState{})
	for _, line := range stmt.Body {
		if err := c.evalStatement(line); err != nil {
			return err
		}
	}
	c.popScope()

	c.emit(instrArg(JMP, id, stmt.Loc))
	return nil
}

func (c *compiler) evalWhile(stmt *frontend.WhileStmt) error {
	left, right, op, err := splitCondition(stmt.Cond)
	if err != nil {
		return err
	}

	startID, err := c.newJumpMark(stmt.Loc)
	if err != nil {
		return err
	}
	endID, err := c.newJumpMark(stmt.Loc)
	if err != nil {
		return err
	}

	// skip the body entirely when the condition fails up front
	if err := c.putComparison(left, right, op.Opposite(), stmt.Loc, endID); err != nil {
		return err
	}
	c.setJumpMark(startID, c.currentLen())

	c.pushScope(c.lastScope().state)
	for _, line := range stmt.Body {
		if err := c.evalStatement(line); err != nil {
			return err
		}
	}
	if err := c.putComparison(left, right, op, stmt.Loc, startID); err != nil {
		return err
	}
	c.popScope()

	c.setJumpMark(endID, c.currentLen())
	return nil
}

func (c *compiler) evalConditional(stmt *frontend.IfStmt) error {
	loc := stmt.Cond.Span()
	left, right, op, err := splitCondition(stmt.Cond)
	if err != nil {
		return err
	}

	endID, err := c.newJumpMark(loc)
	if err != nil {
		return err
	}
	nextID, err := c.newJumpMark(loc)
	if err != nil {
		return err
	}

	if err := c.putComparison(left, right, op.Opposite(), loc, nextID); err != nil {
		return err
	}

	lastState := c.lastScope().state

	c.pushScope(lastState)
	for _, line := range stmt.Body {
		if err := c.evalStatement(line); err != nil {
			return err
		}
	}
	if len(stmt.Elifs) > 0 || stmt.Else != nil {
		c.emit(instrArg(JMP, endID, loc))
	}
	c.popScope()
	c.setJumpMark(nextID, c.currentLen())

	for i, branch := range stmt.Elifs {
		branchLoc := branch.Cond.Span()
		left, right, op, err := splitCondition(branch.Cond)
		if err != nil {
			return err
		}

		nextID, err = c.newJumpMark(branchLoc)
		if err != nil {
			return err
		}
		if err := c.putComparison(left, right, op.Opposite(), branchLoc, nextID); err != nil {
			return err
		}

		lastState = c.lastScope().state

		c.pushScope(lastState)
		for _, line := range branch.Body {
			if err := c.evalStatement(line); err != nil {
				return err
			}
		}
		if i != len(stmt.Elifs)-1 || stmt.Else != nil {
			c.emit(instrArg(JMP, endID, branchLoc))
		}
		c.popScope()
		c.setJumpMark(nextID, c.currentLen())
	}

	if stmt.Else != nil {
		c.pushScope(lastState)
		for _, line := range stmt.Else {
			if err := c.evalStatement(line); err != nil {
				return err
			}
		}
		c.popScope()
	}
	c.setJumpMark(endID, c.currentLen())
	return nil
}

// splitCondition requires a comparison expression and returns its parts.
func splitCondition(cond frontend.Expr) (frontend.Expr, frontend.Expr, frontend.EqOperator, error) {
	cmp, ok := cond.(*frontend.CompareExpr)
	if !ok {
		return nil, nil, 0, errAt(cond.Span(), "condition must be a comparison")
	}
	return cmp.Left, cmp.Right, cmp.Op, nil
}

// putComparison loads both operands and emits the conditional jump taken
// when the comparison holds.
func (c *compiler) putComparison(left, right frontend.Expr, op frontend.EqOperator, loc diag.Range, mark uint8) error {
	swapped, err := c.putAB(left, right, true)
	if err != nil {
		return err
	}
	if swapped {
		op = op.Turnaround()
	}
	c.emit(instrArg(jumpFor(op), mark, loc))
	return nil
}

// Expressions

// evalExpr evaluates an expression, leaving its result in register A.
func (c *compiler) evalExpr(e frontend.Expr) error {
	switch expr := e.(type) {
	case *frontend.NumberLit, *frontend.IdentExpr:
		return c.putIntoA(e)

	case *frontend.BinaryExpr:
		if _, err := c.putAB(expr.Left, expr.Right, expr.Op.Commutative()); err != nil {
			return err
		}
		c.putOp(expr.Op, expr.Loc)
		return nil

	case *frontend.AssignExpr:
		return c.evalAssignment(expr)

	case *frontend.CompoundAssignExpr:
		return c.evalCompoundAssignment(expr)

	case *frontend.CallExpr:
		return c.evalCall(expr)

	case *frontend.CompareExpr:
		return errAt(expr.Loc, "comparisons are only allowed as loop and branch conditions")

	case *frontend.DebugExpr:
		c.emit(instrArg(LAL, 17, expr.Loc))
		return nil

	case *frontend.MemberExpr:
		return errAt(expr.Loc, "module constants are not supported")

	default:
		return errAt(e.Span(), "expression not allowed here")
	}
}

func (c *compiler) evalAssignment(expr *frontend.AssignExpr) error {
	if err := c.evalExpr(expr.Value); err != nil {
		return err
	}
	slot, err := c.insertVar(expr.Name.Name, expr.Value.Span())
	if err != nil {
		return err
	}
	c.emit(instrArg(SVA, slot, expr.Value.Span()))
	return nil
}

func (c *compiler) evalCompoundAssignment(expr *frontend.CompoundAssignExpr) error {
	if err := c.evalExpr(expr.Value); err != nil {
		return err
	}
	if err := c.putIntoB(&frontend.IdentExpr{Name: expr.Name.Name, Loc: expr.Name.Loc}); err != nil {
		return err
	}
	c.putOp(expr.Op, expr.Loc)

	slot, err := c.getVar(expr.Name.Name, expr.Name.Loc)
	if err != nil {
		return err
	}
	c.emit(instrArg(SVA, slot, expr.Loc))
	return nil
}

func (c *compiler) putOp(op frontend.Operator, loc diag.Range) {
	switch op {
	case frontend.Plus:
		c.emit(instr(ADD, loc))
	case frontend.Minus:
		c.emit(instr(SUB, loc))
	case frontend.Mult:
		c.emit(instr(MUL, loc))
	case frontend.And:
		c.emit(instr(AND, loc))
	case frontend.Or:
		c.emit(instr(OR, loc))
	case frontend.Xor:
		c.emit(instr(XOR, loc))
	}
}

// canPutIntoA reports whether the expression can be materialized in A
// without clobbering B.
func canPutIntoA(e frontend.Expr) bool {
	switch expr := e.(type) {
	case *frontend.NumberLit, *frontend.IdentExpr:
		return true
	case *frontend.AssignExpr:
		return canPutIntoA(expr.Value)
	default:
		return false
	}
}

func canPutIntoB(e frontend.Expr) bool {
	switch e.(type) {
	case *frontend.NumberLit, *frontend.IdentExpr:
		return true
	default:
		return false
	}
}

// putAB loads left into A and right into B, spilling through a temp slot
// when both sides are compound. Reports whether the operands were swapped
// (only done for commutative uses).
func (c *compiler) putAB(left, right frontend.Expr, commutative bool) (bool, error) {
	switch {
	case canPutIntoA(left) && canPutIntoB(right):
		if commutative && (c.isInA(right) || c.isInB(left) || preferSwap(left, right)) {
			if err := c.putIntoA(right); err != nil {
				return false, err
			}
			if err := c.putIntoB(left); err != nil {
				return false, err
			}
			return true, nil
		}
		if err := c.putIntoA(left); err != nil {
			return false, err
		}
		return false, c.putIntoB(right)

	case canPutIntoA(left):
		// right is compound, evaluate it first
		if err := c.evalExpr(right); err != nil {
			return false, err
		}
		if commutative && canPutIntoB(left) {
			return true, c.putIntoB(left)
		}
		if assign, ok := right.(*frontend.AssignExpr); ok {
			// the value was just saved, reload it into B from its slot
			slot, err := c.getVar(assign.Name.Name, assign.Name.Loc)
			if err != nil {
				return false, err
			}
			c.emit(instrArg(LB, slot, right.Span()))
		} else if err := c.switchAB(left.Span()); err != nil {
			return false, err
		}
		return false, c.putIntoA(left)

	case canPutIntoB(right):
		if err := c.evalExpr(left); err != nil {
			return false, err
		}
		return false, c.putIntoB(right)

	default:
		if err := c.evalExpr(right); err != nil {
			return false, err
		}
		if assign, ok := right.(*frontend.AssignExpr); ok {
			if err := c.evalExpr(left); err != nil {
				return false, err
			}
			slot, err := c.getVar(assign.Name.Name, assign.Name.Loc)
			if err != nil {
				return false, err
			}
			c.emit(instrArg(LB, slot, right.Span()))
			return false, nil
		}
		temp, err := c.tempVar(left.Span())
		if err != nil {
			return false, err
		}
		c.emit(instrArg(SVA, temp, left.Span()))
		if err := c.evalExpr(left); err != nil {
			return false, err
		}
		c.emit(instrArg(LB, temp, left.Span()))
		c.freeTempVar(temp)
		return false, nil
	}
}

// preferSwap swaps a literal-op-variable pair so the variable lands in A.
func preferSwap(left, right frontend.Expr) bool {
	_, leftNum := left.(*frontend.NumberLit)
	_, rightIdent := right.(*frontend.IdentExpr)
	return leftNum && rightIdent
}

// switchAB moves A into B through a temp slot.
func (c *compiler) switchAB(loc diag.Range) error {
	temp, err := c.tempVar(loc)
	if err != nil {
		return err
	}
	c.emit(instrArg(SVA, temp, loc))
	c.emit(instrArg(LB, temp, loc))
	c.freeTempVar(temp)
	return nil
}

// putIntoA loads a literal, identifier or just-assigned value into A,
// skipping the load when A already holds it.
func (c *compiler) putIntoA(e frontend.Expr) error {
	switch expr := e.(type) {
	case *frontend.NumberLit:
		c.putANumber(expr.Value, expr.Loc)
		return nil
	case *frontend.IdentExpr:
		if value, ok := c.getInlineVar(expr.Name); ok {
			c.putANumber(value, expr.Loc)
			return nil
		}
		slot, err := c.getVar(expr.Name, expr.Loc)
		if err != nil {
			return err
		}
		if c.lastScope().state.a == knownSlot(slot) {
			return nil
		}
		c.emit(instrArg(LA, slot, expr.Loc))
		return nil
	case *frontend.AssignExpr:
		if canPutIntoA(e) {
			return c.evalExpr(e)
		}
		return errAt(expr.Loc, "cannot load this expression into a register")
	default:
		return errAt(e.Span(), "cannot load this expression into a register")
	}
}

func (c *compiler) putIntoB(e frontend.Expr) error {
	switch expr := e.(type) {
	case *frontend.NumberLit:
		c.putBNumber(expr.Value, expr.Loc)
		return nil
	case *frontend.IdentExpr:
		if value, ok := c.getInlineVar(expr.Name); ok {
			c.putBNumber(value, expr.Loc)
			return nil
		}
		slot, err := c.getVar(expr.Name, expr.Loc)
		if err != nil {
			return err
		}
		if c.lastScope().state.b == knownSlot(slot) {
			return nil
		}
		c.emit(instrArg(LB, slot, expr.Loc))
		return nil
	default:
		return errAt(e.Span(), "cannot load this expression into a register")
	}
}

func (c *compiler) isInA(e frontend.Expr) bool {
	return c.matchesRegister(e, c.lastScope().state.a)
}

func (c *compiler) isInB(e frontend.Expr) bool {
	return c.matchesRegister(e, c.lastScope().state.b)
}

func (c *compiler) matchesRegister(e frontend.Expr, reg regContents) bool {
	switch expr := e.(type) {
	case *frontend.NumberLit:
		return reg == knownNumber(expr.Value)
	case *frontend.IdentExpr:
		slot, ok := c.lookupVar(expr.Name)
		return ok && reg == knownSlot(slot)
	default:
		return false
	}
}

// putANumber loads a 16-bit value into A, low byte first, skipping the
// high byte when it is zero and the whole load when A already holds the
// value.
func (c *compiler) putANumber(value int16, loc diag.Range) {
	if c.lastScope().state.a == knownNumber(value) {
		return
	}
	low, high := uint8(uint16(value)&0xff), uint8(uint16(value)>>8)
	c.emit(instrArg(LAL, low, loc))
	if high != 0 {
		c.emit(instrArg(LAH, high, loc))
	}
}

func (c *compiler) putBNumber(value int16, loc diag.Range) {
	if c.lastScope().state.b == knownNumber(value) {
		return
	}
	low, high := uint8(uint16(value)&0xff), uint8(uint16(value)>>8)
	c.emit(instrArg(LBL, low, loc))
	if high != 0 {
		c.emit(instrArg(LBH, high, loc))
	}
}

// saveToOut stores A to a memory-mapped output port.
func (c *compiler) saveToOut(port uint8, loc diag.Range) {
	c.emit(instrArg(SVA, port+outPortBase, loc))
}

// evalConst folds a compile-time constant expression.
func (c *compiler) evalConst(e frontend.Expr) (int16, error) {
	switch expr := e.(type) {
	case *frontend.NumberLit:
		return expr.Value, nil
	case *frontend.IdentExpr:
		if value, ok := c.getInlineVar(expr.Name); ok {
			return value, nil
		}
		return 0, errAt(expr.Loc, "inline variable %q does not exist", expr.Name)
	case *frontend.BinaryExpr:
		left, err := c.evalConst(expr.Left)
		if err != nil {
			return 0, err
		}
		right, err := c.evalConst(expr.Right)
		if err != nil {
			return 0, err
		}
		switch expr.Op {
		case frontend.Plus:
			return left + right, nil
		case frontend.Minus:
			return left - right, nil
		case frontend.Mult:
			return left * right, nil
		case frontend.And:
			return left & right, nil
		case frontend.Or:
			return left | right, nil
		default: // Xor
			return left ^ right, nil
		}
	default:
		return 0, errAt(e.Span(), "not a compile-time constant")
	}
}

// Calls

func (c *compiler) evalCall(expr *frontend.CallExpr) error {
	member, ok := expr.Fn.(*frontend.MemberExpr)
	if !ok {
		return errAt(expr.Fn.Span(), "only module methods can be called")
	}
	object, ok := member.Object.(*frontend.IdentExpr)
	if !ok {
		return errAt(member.Object.Span(), "only module methods can be called")
	}
	if !c.loaded[object.Name] {
		return errAt(member.Loc, "module %q is not loaded; add `use %s` first", object.Name, object.Name)
	}
	mod := modules[object.Name]
	return mod.call(c, moduleCall{
		method: member.Property.Name,
		args:   expr.Args,
		loc:    expr.Loc,
	})
}

// Final assembly

func (c *compiler) finish() ([]Instruction, error) {
	var flat []Instruction
	flatten(c.scopes[0].instructions, &flat)

	if len(flat) > maxProgram {
		return nil, errAt(diag.Range{}, "program too large: %d instructions (max %d)", len(flat), maxProgram)
	}

	c.insertDiscJumps(&flat)
	if len(flat) > maxProgram {
		return nil, errAt(diag.Range{}, "program too large after page jumps: %d instructions (max %d)", len(flat), maxProgram)
	}

	for i := range flat {
		if flat[i].Variant.IsJump() {
			target := c.jumpMarks[flat[i].Arg]
			// a mark can legally sit one past the last instruction of a
			// maximum-size program, but there is no address for it
			if target >= maxProgram {
				return nil, errAt(diag.Range{}, "program too large: jump target %d is out of range (max %d)", target, maxProgram-1)
			}
			flat[i].Arg = uint8(target)
		}
	}
	return flat, nil
}

func flatten(nodes []instrNode, into *[]Instruction) {
	for _, n := range nodes {
		if n.code != nil {
			*into = append(*into, *n.code)
		} else {
			flatten(n.scope, into)
		}
	}
}

// insertDiscJumps rewrites jumps that cross a page boundary into their
// disc variant preceded by an LCL of the target page. Inserting shifts
// everything below, so this loops until the layout is stable.
func (c *compiler) insertDiscJumps(flat *[]Instruction) {
	for {
		changed := false
		i := 0
		for i < len(*flat) {
			in := (*flat)[i]
			if in.Variant.IsJump() && !in.Variant.IsDiscJump() {
				target := c.jumpMarks[in.Arg]
				if i/pageSize != target/pageSize {
					(*flat)[i].Variant = in.Variant.ToDiscJump()
					lcl := instrArg(LCL, uint8(target/pageSize), in.Loc)
					*flat = append((*flat)[:i], append([]Instruction{lcl}, (*flat)[i:]...)...)
					c.moveJumpMarks(i, 1)
					i++
					changed = true
				}
			}
			i++
		}
		if !changed {
			return
		}
	}
}

// moveJumpMarks shifts every mark at or after from by n slots.
func (c *compiler) moveJumpMarks(from, n int) {
	for id, pos := range c.jumpMarks {
		if pos >= from {
			c.jumpMarks[id] = pos + n
		}
	}
}
