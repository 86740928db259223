// Package modules holds the native functions every program can call.
package modules

import (
	"time"

	"github.com/ajkachnic/lox/core"
)

// Initialize registers all native functions with ctx. It must run before
// the interpreter is created, since globals are seeded from ctx.Builtins.
func Initialize(ctx *core.Context) {
	loadTime(ctx, time.Now)
}
