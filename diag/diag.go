// Package diag provides an explicitly passed diagnostics context for the
// asset pipeline: a structured logger, counters for non-fatal load errors
// and a process memory snapshot. A nil *Context is valid everywhere and
// disables all reporting, so tests and library consumers that do not care
// about diagnostics pass nothing.
package diag

import (
	"runtime"

	"go.uber.org/zap"
)

// Context carries the diagnostics sinks for one loader instance. It is not
// safe for concurrent use; the pipeline that owns it is single-threaded.
type Context struct {
	log         *zap.Logger
	localErrors int
}

// New creates a Context logging through the given zap logger. A nil logger
// is replaced by a no-op logger.
func New(log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{log: log}
}

// Logger returns the context's logger, never nil even on a nil Context.
func (c *Context) Logger() *zap.Logger {
	if c == nil || c.log == nil {
		return zap.NewNop()
	}
	return c.log
}

// Debug logs at debug level.
func (c *Context) Debug(msg string, fields ...zap.Field) {
	if c == nil || c.log == nil {
		return
	}
	c.log.Debug(msg, fields...)
}

// Info logs at info level.
func (c *Context) Info(msg string, fields ...zap.Field) {
	if c == nil || c.log == nil {
		return
	}
	c.log.Info(msg, fields...)
}

// Warn logs at warn level.
func (c *Context) Warn(msg string, fields ...zap.Field) {
	if c == nil || c.log == nil {
		return
	}
	c.log.Warn(msg, fields...)
}

// Error logs at error level.
func (c *Context) Error(msg string, fields ...zap.Field) {
	if c == nil || c.log == nil {
		return
	}
	c.log.Error(msg, fields...)
}

// CountLocalError records one non-fatal pipeline failure (a skipped
// primitive, a failed texture, an empty buffer) and logs it at warn level.
func (c *Context) CountLocalError(msg string, fields ...zap.Field) {
	if c == nil {
		return
	}
	c.localErrors++
	if c.log != nil {
		c.log.Warn(msg, fields...)
	}
}

// LocalErrors returns the number of non-fatal failures recorded so far.
func (c *Context) LocalErrors() int {
	if c == nil {
		return 0
	}
	return c.localErrors
}

// ResetLocalErrors clears the non-fatal failure counter, typically at the
// start of each load.
func (c *Context) ResetLocalErrors() {
	if c != nil {
		c.localErrors = 0
	}
}

// MemorySnapshot is a point-in-time view of process heap usage.
type MemorySnapshot struct {
	// HeapAllocBytes is the live heap size.
	HeapAllocBytes uint64

	// SysBytes is the total memory obtained from the OS.
	SysBytes uint64

	// NumGC is the cumulative garbage collection count.
	NumGC uint32
}

// Snapshot reads the runtime's memory statistics. Works on a nil Context.
func (c *Context) Snapshot() MemorySnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return MemorySnapshot{
		HeapAllocBytes: ms.HeapAlloc,
		SysBytes:       ms.Sys,
		NumGC:          ms.NumGC,
	}
}
