// Package progress draws single-line activity indicators on stderr for
// long-running model calls.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Counter shows "<op>... N <unit>" and redraws it in place on each
// increment. A disabled counter still counts but writes nothing.
type Counter struct {
	mu      sync.Mutex
	writer  io.Writer
	op      string
	unit    string
	count   int
	lastLen int
	enabled bool
}

// NewCounter creates a counter writing to stderr.
func NewCounter(op, unit string, enabled bool) *Counter {
	return &Counter{writer: os.Stderr, op: op, unit: unit, enabled: enabled}
}

// SetWriter redirects output.
func (c *Counter) SetWriter(w io.Writer) {
	c.mu.Lock()
	c.writer = w
	c.mu.Unlock()
}

// Start draws the initial line.
func (c *Counter) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		c.render()
	}
}

// Increment advances the counter by one.
func (c *Counter) Increment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	if c.enabled {
		c.render()
	}
}

// Count returns the number of increments so far.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// render must be called with mu held.
func (c *Counter) render() {
	line := c.op + "..."
	if c.count > 0 {
		line = fmt.Sprintf("%s... %d %s", c.op, c.count, c.unit)
	}
	pad := ""
	if c.lastLen > len(line) {
		pad = strings.Repeat(" ", c.lastLen-len(line))
	}
	fmt.Fprint(c.writer, "\r"+line+pad)
	c.lastLen = len(line)
}

// Done erases the line and prints message, if any, on its own line.
func (c *Counter) Done(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	if c.lastLen > 0 {
		fmt.Fprint(c.writer, "\r"+strings.Repeat(" ", c.lastLen)+"\r")
		c.lastLen = 0
	}
	if message != "" {
		fmt.Fprintln(c.writer, message)
	}
}
