// Package implptr provides Ptr, an owning handle to a heap-allocated payload
// with value semantics: copying a Ptr copies the payload, moving a Ptr moves
// the payload into fresh storage, and releasing a Ptr destroys the payload
// exactly once.
//
// It is meant for hiding implementation state behind an unexported type:
//
//	type Widget struct {
//		impl implptr.Ptr[state]
//	}
//
// Go assignment of a struct holding a Ptr would share the payload, so Ptr
// carries a copylocks marker and go vet reports such copies. Use Clone and
// Move on the field, or Copy, Move, Assign, AssignMove and Release on the
// enclosing struct.
package implptr

import (
	"fmt"
	"reflect"

	clone "github.com/huandu/go-clone"
)

// Ptr exclusively owns one T. The zero value is ready to use and owns the
// zero T, allocated on first call to Get. Reading a zero Ptr through Value,
// Take, Clone or Move, or copying from it, does not allocate.
//
// A Ptr is not safe for concurrent use.
type Ptr[T any] struct {
	noCopy noCopy
	raw    *T
	dead   bool
}

// noCopy may be embedded into structs which must not be copied after first
// use. See https://golang.org/issues/8005#issuecomment-190753527
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New returns a Ptr owning a freshly allocated zero T.
func New[T any]() Ptr[T] {
	return Ptr[T]{raw: new(T)}
}

// Make returns a Ptr owning v. Reference fields of v are not copied; the Ptr
// takes v over as it is.
func Make[T any](v T) Ptr[T] {
	return Ptr[T]{raw: &v}
}

// NewFunc returns a Ptr owning the value built by fn. If fn panics nothing is
// allocated.
func NewFunc[T any](fn func() T) Ptr[T] {
	return Make(fn())
}

// TryNew is NewFunc for fallible constructors. The error is returned
// unchanged and the returned Ptr is the zero value.
func TryNew[T any](fn func() (T, error)) (Ptr[T], error) {
	v, err := fn()
	if err != nil {
		return Ptr[T]{}, err
	}
	return Make(v), nil
}

// New1 returns a Ptr owning ctor(a).
func New1[T, A any](ctor func(A) T, a A) Ptr[T] {
	return Make(ctor(a))
}

// New2 returns a Ptr owning ctor(a, b).
func New2[T, A, B any](ctor func(A, B) T, a A, b B) Ptr[T] {
	return Make(ctor(a, b))
}

// New3 returns a Ptr owning ctor(a, b, c).
func New3[T, A, B, C any](ctor func(A, B, C) T, a A, b B, c C) Ptr[T] {
	return Make(ctor(a, b, c))
}

func (p *Ptr[T]) live() {
	if p.dead {
		panic(fmt.Errorf("%w[%s]", ErrReleased, typeOf[T]()))
	}
}

func (p *Ptr[T]) payload() *T {
	p.live()
	if p.raw == nil {
		p.raw = new(T)
	}
	return p.raw
}

// Get returns the payload for reading and writing.
func (p *Ptr[T]) Get() *T {
	return p.payload()
}

// Value returns the payload by value. Reference fields are shared with the
// payload, so treat the result as read-only.
func (p *Ptr[T]) Value() T {
	p.live()
	if p.raw == nil {
		var zero T
		return zero
	}
	return *p.raw
}

// Take moves the payload value out, leaving p in the moved-from state.
func (p *Ptr[T]) Take() T {
	p.live()
	if p.raw == nil {
		var zero T
		return zero
	}
	return moveOut(p.raw)
}

// Clone returns a new Ptr owning a deep copy of the payload. It uses the
// payload's Clone method when there is one and a reflective deep copy
// otherwise, in which Ptr fields stored inline in the payload are cloned
// through their own Clone. Clone panics with ErrNotCopyable when neither is
// possible.
func (p *Ptr[T]) Clone() Ptr[T] {
	p.live()
	if p.raw == nil {
		return Ptr[T]{}
	}
	return Ptr[T]{raw: copyOf(p.raw)}
}

// Move returns a new Ptr owning the value moved out of p. p keeps its own
// allocation in the moved-from state: the zero T, or whatever the payload's
// Move method leaves behind.
func (p *Ptr[T]) Move() Ptr[T] {
	p.live()
	if p.raw == nil {
		return Ptr[T]{}
	}
	v := moveOut(p.raw)
	return Ptr[T]{raw: &v}
}

// CopyFrom overwrites p's payload with a copy of other's. The payload's
// CopyAssign method is used when there is one. Without it, Ptr fields stored
// inline in the payload are copy-assigned one by one.
func (p *Ptr[T]) CopyFrom(other *Ptr[T]) {
	p.live()
	other.live()
	if other.raw == nil {
		p.reset()
		return
	}
	dst, src := p.payload(), other.raw
	if dst == src {
		return
	}
	if a, ok := any(dst).(CopyAssigner[T]); ok {
		a.CopyAssign(src)
		return
	}
	plan := payloadPlan(typeOf[T]())
	if _, ok := any(src).(Cloner[T]); ok || plan == nil {
		v := copyOf(src)
		if plan != nil {
			plan.releaseIn(reflect.ValueOf(dst).Elem())
		}
		*dst = *v
		return
	}
	mustCopyReflect[T]()
	plan.copyInto(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())
}

// MoveFrom overwrites p's payload with the value moved out of other's. The
// payload's MoveAssign method is used when there is one. Without it, Ptr
// fields stored inline in the payload are move-assigned one by one.
func (p *Ptr[T]) MoveFrom(other *Ptr[T]) {
	p.live()
	other.live()
	if other.raw == nil {
		p.reset()
		return
	}
	dst, src := p.payload(), other.raw
	if dst == src {
		return
	}
	if a, ok := any(dst).(MoveAssigner[T]); ok {
		a.MoveAssign(src)
		return
	}
	plan := payloadPlan(typeOf[T]())
	if _, ok := any(src).(Mover[T]); ok || plan == nil {
		v := moveOut(src)
		if plan != nil {
			plan.releaseIn(reflect.ValueOf(dst).Elem())
		}
		*dst = v
		return
	}
	plan.moveInto(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())
}

// Release destroys the payload and kills p. Payloads implementing Destroyer
// have Destroy called once, provided the payload was ever allocated, and Ptr
// fields stored inline in the payload are released after it. Releasing twice
// is a no-op; any other use after Release panics with ErrReleased.
func (p *Ptr[T]) Release() {
	if p.dead {
		return
	}
	raw := p.raw
	p.raw, p.dead = nil, true
	destroy(raw)
}

// reset returns a live p to the unmaterialized zero state.
func (p *Ptr[T]) reset() {
	raw := p.raw
	p.raw = nil
	destroy(raw)
}

func destroy[T any](raw *T) {
	if raw == nil {
		return
	}
	if d, ok := any(raw).(Destroyer); ok {
		d.Destroy()
	}
	if plan := payloadPlan(typeOf[T]()); plan != nil {
		plan.releaseIn(reflect.ValueOf(raw).Elem())
	}
}

func copyOf[T any](src *T) *T {
	if c, ok := any(src).(Cloner[T]); ok {
		v := c.Clone()
		return &v
	}
	t := mustCopyReflect[T]()
	plan := payloadPlan(t)
	if plan == nil {
		return clone.Clone(src).(*T)
	}
	dst := new(T)
	plan.cloneInto(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())
	return dst
}

// mustCopyReflect panics with ErrNotCopyable when T cannot be deep-copied
// without a Clone method.
func mustCopyReflect[T any]() reflect.Type {
	c := ContractOf[T]()
	if c.Blocker != "" {
		panic(fmt.Errorf("%w: %s reaches %s", ErrNotCopyable, c.Type, c.Blocker))
	}
	return c.Type
}

func moveOut[T any](src *T) T {
	if m, ok := any(src).(Mover[T]); ok {
		return m.Move()
	}
	v := *src
	var zero T
	*src = zero
	return v
}
