// Package reflectx holds the reflection plumbing shared by the contract walk
// and the member-wise helpers.
package reflectx

import (
	"reflect"
	"sync"
	"unsafe"
)

// IsScalarKind reports whether values of kind k hold no references, so plain
// assignment already yields an independent copy.
func IsScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// IsOpaqueKind reports kinds whose referent cannot be duplicated by walking it.
func IsOpaqueKind(k reflect.Kind) bool {
	switch k {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// Exposed returns v with the read-only flag dropped so unexported fields can
// be set and passed through Interface. v must be addressable.
func Exposed(v reflect.Value) reflect.Value {
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

// Step selects a struct field, or an array element when Elem is set.
type Step struct {
	Index int
	Elem  bool
}

// Path is a sequence of steps from a root value down to a nested value.
type Path []Step

// Extend returns a new path with s appended; p is never modified.
func (p Path) Extend(s Step) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// Walk follows p from v. The result is addressable when v is.
func (p Path) Walk(v reflect.Value) reflect.Value {
	for _, s := range p {
		if s.Elem {
			v = v.Index(s.Index)
		} else {
			v = v.Field(s.Index)
		}
	}
	return v
}

// Cache memoizes one plan per reflect.Type. Build functions run under the
// write lock and must not call back into the same cache.
type Cache[P any] struct {
	mu    sync.RWMutex
	plans map[reflect.Type]P
}

func NewCache[P any]() *Cache[P] {
	return &Cache[P]{plans: make(map[reflect.Type]P)}
}

func (c *Cache[P]) Load(t reflect.Type, build func(reflect.Type) P) P {
	c.mu.RLock()
	if plan, ok := c.plans[t]; ok {
		c.mu.RUnlock()
		return plan
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if plan, ok := c.plans[t]; ok {
		return plan
	}
	plan := build(t)
	c.plans[t] = plan
	return plan
}

// Len reports how many plans are cached.
func (c *Cache[P]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plans)
}
