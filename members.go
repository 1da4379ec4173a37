package implptr

import (
	"fmt"
	"reflect"

	clone "github.com/huandu/go-clone"

	"github.com/rawbytedev/implptr/internal/reflectx"
)

// member is implemented by every Ptr instantiation. The struct helpers reach
// Ptr fields through it without knowing their payload types; src is always a
// *Ptr of the same instantiation as the receiver.
type member interface {
	cloneFrom(src any)
	moveFrom(src any)
	copyAssign(src any)
	moveAssign(src any)
	release()

	// ptrType is the Ptr instantiation itself. Structs embedding a Ptr get
	// the method promoted, so it tells them apart from a real member.
	ptrType() reflect.Type
	elemType() reflect.Type
	selfCloning() bool
}

func (p *Ptr[T]) cloneFrom(src any)  { *p = src.(*Ptr[T]).Clone() }
func (p *Ptr[T]) moveFrom(src any)   { *p = src.(*Ptr[T]).Move() }
func (p *Ptr[T]) copyAssign(src any) { p.CopyFrom(src.(*Ptr[T])) }
func (p *Ptr[T]) moveAssign(src any) { p.MoveFrom(src.(*Ptr[T])) }
func (p *Ptr[T]) release()           { p.Release() }

func (*Ptr[T]) ptrType() reflect.Type  { return typeOf[Ptr[T]]() }
func (*Ptr[T]) elemType() reflect.Type { return typeOf[T]() }

func (*Ptr[T]) selfCloning() bool {
	_, ok := any((*T)(nil)).(Cloner[T])
	return ok
}

var memberType = reflect.TypeOf((*member)(nil)).Elem()

// memberPlan splits a struct into the paths that lead to Ptr fields and the
// paths to everything else. Nested structs and arrays are only descended into
// when they contain a Ptr somewhere.
type memberPlan struct {
	members []reflectx.Path
	plain   []reflectx.Path
}

var plans = reflectx.NewCache[*memberPlan]()

func planOf(t reflect.Type) *memberPlan {
	if t.Kind() != reflect.Struct {
		panic(fmt.Errorf("%w, got %s", ErrNotStruct, t))
	}
	return plans.Load(t, buildPlan)
}

func buildPlan(t reflect.Type) *memberPlan {
	plan := &memberPlan{}
	plan.collect(t, nil)
	return plan
}

func (plan *memberPlan) collect(t reflect.Type, path reflectx.Path) {
	switch {
	case isMember(t):
		plan.members = append(plan.members, path)
	case !containsMember(t):
		plan.plain = append(plan.plain, path)
	case t.Kind() == reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			plan.collect(t.Field(i).Type, path.Extend(reflectx.Step{Index: i}))
		}
	case t.Kind() == reflect.Array:
		for i := 0; i < t.Len(); i++ {
			plan.collect(t.Elem(), path.Extend(reflectx.Step{Index: i, Elem: true}))
		}
	}
}

func isMember(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || !reflect.PointerTo(t).Implements(memberType) {
		return false
	}
	return reflect.New(t).Interface().(member).ptrType() == t
}

// containsMember reports whether a Ptr is stored inline in t. Ptr values
// behind pointers, slices and maps are not reached by member-wise operations.
func containsMember(t reflect.Type) bool {
	if isMember(t) {
		return true
	}
	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if containsMember(t.Field(i).Type) {
				return true
			}
		}
	case reflect.Array:
		return t.Len() > 0 && containsMember(t.Elem())
	}
	return false
}

func memberAt(root reflect.Value, path reflectx.Path) member {
	return reflectx.Exposed(path.Walk(root)).Addr().Interface().(member)
}

func (plan *memberPlan) assignPlain(dst, src reflect.Value) {
	for _, path := range plan.plain {
		reflectx.Exposed(path.Walk(dst)).Set(reflectx.Exposed(path.Walk(src)))
	}
}

// payloadPlan returns the plan of payload type t, or nil when t holds no
// inline Ptr and can be handled as a single value.
func payloadPlan(t reflect.Type) *memberPlan {
	plan := plans.Load(t, buildPlan)
	if len(plan.members) == 0 {
		return nil
	}
	return plan
}

func (plan *memberPlan) clonePlain(dst, src reflect.Value) {
	for _, path := range plan.plain {
		f := reflectx.Exposed(path.Walk(src))
		v := reflect.ValueOf(clone.Clone(f.Addr().Interface())).Elem()
		reflectx.Exposed(path.Walk(dst)).Set(v)
	}
}

// cloneInto deep-copies src into the zero value dst: plain paths through
// go-clone, Ptr fields through their own Clone.
func (plan *memberPlan) cloneInto(dst, src reflect.Value) {
	plan.clonePlain(dst, src)
	for _, path := range plan.members {
		memberAt(dst, path).cloneFrom(memberAt(src, path))
	}
}

// copyInto is cloneInto for a live dst whose Ptr fields are copy-assigned.
func (plan *memberPlan) copyInto(dst, src reflect.Value) {
	plan.clonePlain(dst, src)
	for _, path := range plan.members {
		memberAt(dst, path).copyAssign(memberAt(src, path))
	}
}

// moveInto transfers plain paths to dst and zeroes them in src, and
// move-assigns the Ptr fields.
func (plan *memberPlan) moveInto(dst, src reflect.Value) {
	for _, path := range plan.plain {
		f := reflectx.Exposed(path.Walk(src))
		reflectx.Exposed(path.Walk(dst)).Set(f)
		f.SetZero()
	}
	for _, path := range plan.members {
		memberAt(dst, path).moveAssign(memberAt(src, path))
	}
}

func (plan *memberPlan) releaseIn(v reflect.Value) {
	if plan == nil {
		return
	}
	for _, path := range plan.members {
		memberAt(v, path).release()
	}
}

// Copy returns a member-wise copy of *src: every Ptr field, including those
// inside nested struct and array fields, owns a Clone of the source payload.
// Other fields are copied by plain assignment.
func Copy[S any](src *S) S {
	sv := reflect.ValueOf(src).Elem()
	plan := planOf(sv.Type())
	out := reflect.New(sv.Type()).Elem()
	plan.assignPlain(out, sv)
	for _, path := range plan.members {
		memberAt(out, path).cloneFrom(memberAt(sv, path))
	}
	return out.Interface().(S)
}

// Move returns a member-wise move of *src: every Ptr field owns the payload
// moved out of the source field, which is left in its moved-from state. Other
// fields are copied by plain assignment.
func Move[S any](src *S) S {
	sv := reflect.ValueOf(src).Elem()
	plan := planOf(sv.Type())
	out := reflect.New(sv.Type()).Elem()
	plan.assignPlain(out, sv)
	for _, path := range plan.members {
		memberAt(out, path).moveFrom(memberAt(sv, path))
	}
	return out.Interface().(S)
}

// Assign makes *dst a member-wise copy of *src, reusing the payload
// allocations dst already owns.
func Assign[S any](dst, src *S) {
	dv, sv := reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem()
	plan := planOf(dv.Type())
	plan.assignPlain(dv, sv)
	for _, path := range plan.members {
		memberAt(dv, path).copyAssign(memberAt(sv, path))
	}
}

// AssignMove is Assign with every Ptr field moved instead of copied.
func AssignMove[S any](dst, src *S) {
	dv, sv := reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem()
	plan := planOf(dv.Type())
	plan.assignPlain(dv, sv)
	for _, path := range plan.members {
		memberAt(dv, path).moveAssign(memberAt(sv, path))
	}
}

// Release releases every Ptr field of *s in field order.
func Release[S any](s *S) {
	sv := reflect.ValueOf(s).Elem()
	planOf(sv.Type()).releaseIn(sv)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
