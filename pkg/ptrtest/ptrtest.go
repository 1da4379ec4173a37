// Package ptrtest provides an instrumented payload for checking that code
// built on implptr constructs, copies, moves and destroys payloads the
// expected number of times.
package ptrtest

import (
	"fmt"
	"sync/atomic"
)

// Counter tallies lifecycle events of the Tracked values bound to it.
type Counter struct {
	constructed  atomic.Int64
	copied       atomic.Int64
	moved        atomic.Int64
	copyAssigned atomic.Int64
	moveAssigned atomic.Int64
	destroyed    atomic.Int64
}

// Counts is a point-in-time view of a Counter.
type Counts struct {
	Constructed  int64
	Copied       int64
	Moved        int64
	CopyAssigned int64
	MoveAssigned int64
	Destroyed    int64
}

func (c *Counter) Counts() Counts {
	return Counts{
		Constructed:  c.constructed.Load(),
		Copied:       c.copied.Load(),
		Moved:        c.moved.Load(),
		CopyAssigned: c.copyAssigned.Load(),
		MoveAssigned: c.moveAssigned.Load(),
		Destroyed:    c.destroyed.Load(),
	}
}

// Live is the number of tracked values created and not yet destroyed.
func (c *Counter) Live() int64 {
	n := c.Counts()
	return n.Constructed + n.Copied + n.Moved - n.Destroyed
}

func (n Counts) String() string {
	return fmt.Sprintf("constructed=%d copied=%d moved=%d copy-assigned=%d move-assigned=%d destroyed=%d",
		n.Constructed, n.Copied, n.Moved, n.CopyAssigned, n.MoveAssigned, n.Destroyed)
}

// Tracked is a payload implementing every implptr payload interface. The zero
// value is untracked: nothing it does is counted.
type Tracked struct {
	Text    string
	counter *Counter
}

// NewTracked constructs a Tracked bound to c. Its signature suits
// implptr.New2.
func NewTracked(c *Counter, text string) Tracked {
	c.constructed.Add(1)
	return Tracked{Text: text, counter: c}
}

func (t *Tracked) Clone() Tracked {
	t.count(func(c *Counter) { c.copied.Add(1) })
	return Tracked{Text: t.Text, counter: t.counter}
}

// Move leaves the receiver bound to its counter with an empty Text.
func (t *Tracked) Move() Tracked {
	t.count(func(c *Counter) { c.moved.Add(1) })
	out := Tracked{Text: t.Text, counter: t.counter}
	t.Text = ""
	return out
}

func (t *Tracked) CopyAssign(src *Tracked) {
	t.adopt(src)
	t.count(func(c *Counter) { c.copyAssigned.Add(1) })
	t.Text = src.Text
}

func (t *Tracked) MoveAssign(src *Tracked) {
	t.adopt(src)
	t.count(func(c *Counter) { c.moveAssigned.Add(1) })
	t.Text, src.Text = src.Text, ""
}

func (t *Tracked) Destroy() {
	t.count(func(c *Counter) { c.destroyed.Add(1) })
}

// Counter returns the counter t reports to, nil when untracked.
func (t *Tracked) Counter() *Counter {
	return t.counter
}

// adopt binds an untracked receiver to src's counter so assignments into a
// default-constructed payload are still seen.
func (t *Tracked) adopt(src *Tracked) {
	if t.counter == nil && src.counter != nil {
		t.counter = src.counter
		t.counter.constructed.Add(1)
	}
}

func (t *Tracked) count(fn func(*Counter)) {
	if t.counter != nil {
		fn(t.counter)
	}
}
