package modules

import (
	"time"

	"github.com/ajkachnic/lox/core"
)

type _time struct {
	ctx *core.Context
	now func() time.Time
}

func loadTime(ctx *core.Context, now func() time.Time) {
	// wrapper struct so the clock can be swapped out in tests
	t := &_time{ctx: ctx, now: now}

	ctx.LoadFunc("clock", 0, t.clock)
}

// clock returns the wall-clock time in seconds, with sub-second precision.
func (t *_time) clock(args []core.Value) (core.Value, *core.RuntimeError) {
	now := t.now()
	return core.NumberValue(float64(now.Unix()) + float64(now.Nanosecond())/1e9), nil
}
