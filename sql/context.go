package sql

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Context threads a cancellation-capable context.Context and a structured
// logger through every operator call, in the teacher's own idiom of passing
// *sql.Context rather than the bare stdlib context. The engine itself never
// imposes a deadline (§5 "Timeouts: none at this layer") — a caller that
// wants one cancels the embedded context.Context externally.
type Context struct {
	ctx    context.Context
	logger *logrus.Entry
}

func NewContext(ctx context.Context, logger *logrus.Entry) *Context {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Context{ctx: ctx, logger: logger}
}

func NewEmptyContext() *Context {
	return NewContext(context.Background(), nil)
}

func (c *Context) Context() context.Context { return c.ctx }

func (c *Context) Logger() *logrus.Entry { return c.logger }

// Cancelled reports whether the caller-supplied context.Context has been
// cancelled. No operator polls it: in the single-threaded cooperative
// streaming model of §5, iteration stops when the consumer stops pulling.
func (c *Context) Cancelled() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}
