package backend

import (
	"github.com/Christiano300/mcn-ls/internal/diag"
	"github.com/Christiano300/mcn-ls/internal/frontend"
)

// moduleCall is one `mod.method(args)` invocation.
type moduleCall struct {
	method string
	args   []frontend.Expr
	loc    diag.Range
}

// module is a compiler extension loaded with `use`. init runs once at
// load time; call compiles a method invocation.
type module struct {
	init func(c *compiler, loc diag.Range) error
	call func(c *compiler, call moduleCall) error
}

// modules maps module names usable in `use` statements. Populated in
// init: outCall reaches back into the compiler's expression evaluation,
// and a static initializer would form an initialization cycle.
var modules = map[string]module{}

func init() {
	modules["out"] = module{call: outCall}
}

// outCall compiles the `out` module: out.write(port, value) evaluates
// value and stores it to the memory-mapped output port.
func outCall(c *compiler, call moduleCall) error {
	switch call.method {
	case "write":
		if len(call.args) != 2 {
			return errAt(call.loc, "out.write expects 2 arguments (port, value), got %d", len(call.args))
		}
		port, err := c.evalConst(call.args[0])
		if err != nil {
			return errAt(call.args[0].Span(), "out.write port must be a compile-time constant")
		}
		if port < 0 || int(port) >= slotCount {
			return errAt(call.args[0].Span(), "out.write port must be between 0 and %d", slotCount-1)
		}
		if err := c.evalExpr(call.args[1]); err != nil {
			return err
		}
		c.saveToOut(uint8(port), call.loc)
		return nil
	default:
		return errAt(call.loc, "module %q has no method %q", "out", call.method)
	}
}
