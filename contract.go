package implptr

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rawbytedev/implptr/internal/reflectx"
)

// Cloner is implemented by payloads that deep-copy themselves.
type Cloner[T any] interface {
	Clone() T
}

// Mover is implemented by payloads with their own move. Move must leave the
// receiver valid.
type Mover[T any] interface {
	Move() T
}

// CopyAssigner overwrites the receiver with a copy of src.
type CopyAssigner[T any] interface {
	CopyAssign(src *T)
}

// MoveAssigner overwrites the receiver with the value moved out of src,
// leaving src valid.
type MoveAssigner[T any] interface {
	MoveAssign(src *T)
}

// Destroyer releases resources held by a payload. Destroy must accept the
// zero value and moved-from values.
type Destroyer interface {
	Destroy()
}

// Capability is a set of operations a payload type supports.
type Capability uint8

const (
	CopyConstruct Capability = 1 << iota
	MoveConstruct
	CopyAssign
	MoveAssign
	Destroy
)

var capabilityNames = [...]string{"copy-construct", "move-construct", "copy-assign", "move-assign", "destroy"}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for i, name := range capabilityNames {
		if c&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// Contract describes what a payload type supports.
type Contract struct {
	Type reflect.Type
	// Caps is everything a Ptr of this type can do.
	Caps Capability
	// Methods is the subset of Caps the payload implements itself.
	Methods Capability
	// Blocker is the path to the first value that stops a reflective deep
	// copy, empty when there is none.
	Blocker string
}

// Has reports whether c offers every capability in caps.
func (c Contract) Has(caps Capability) bool {
	return c.Caps&caps == caps
}

// Missing returns the capabilities of caps that c does not offer.
func (c Contract) Missing(caps Capability) Capability {
	return caps &^ c.Caps
}

var blockers = reflectx.NewCache[string]()

// ContractOf reports the capabilities of payload type T.
func ContractOf[T any]() Contract {
	var p *T
	t := typeOf[T]()
	c := Contract{
		Type:    t,
		Caps:    MoveConstruct | MoveAssign | Destroy,
		Blocker: blockers.Load(t, copyBlocker),
	}
	if _, ok := any(p).(Cloner[T]); ok {
		c.Methods |= CopyConstruct
	}
	if _, ok := any(p).(Mover[T]); ok {
		c.Methods |= MoveConstruct
	}
	if _, ok := any(p).(CopyAssigner[T]); ok {
		c.Methods |= CopyAssign
	}
	if _, ok := any(p).(MoveAssigner[T]); ok {
		c.Methods |= MoveAssign
	}
	if _, ok := any(p).(Destroyer); ok {
		c.Methods |= Destroy
	}
	if c.Methods&CopyConstruct != 0 || c.Blocker == "" {
		c.Caps |= CopyConstruct | CopyAssign
	}
	c.Caps |= c.Methods
	return c
}

// Require returns an error wrapping ErrContract when T lacks any of caps.
func Require[T any](caps Capability) error {
	c := ContractOf[T]()
	missing := c.Missing(caps)
	if missing == 0 {
		return nil
	}
	if missing&CopyConstruct != 0 {
		return fmt.Errorf("%w: %s lacks %s (%s cannot be deep-copied; implement Clone)", ErrContract, c.Type, missing, c.Blocker)
	}
	return fmt.Errorf("%w: %s lacks %s", ErrContract, c.Type, missing)
}

// MustRequire is Require for package-level checks:
//
//	var _ = implptr.MustRequire[state](implptr.CopyConstruct)
func MustRequire[T any](caps Capability) Contract {
	if err := Require[T](caps); err != nil {
		panic(err)
	}
	return ContractOf[T]()
}

// visit keys the blocker walk. A Ptr stored inline is copied through its own
// Clone, but one behind a pointer, slice or map is copied field by field.
type visit struct {
	t      reflect.Type
	inline bool
}

func copyBlocker(t reflect.Type) string {
	return walkBlocker(t, t.String(), true, make(map[visit]bool))
}

func walkBlocker(t reflect.Type, path string, inline bool, seen map[visit]bool) string {
	k := t.Kind()
	if reflectx.IsScalarKind(k) {
		return ""
	}
	if reflectx.IsOpaqueKind(k) {
		return path
	}
	key := visit{t: t, inline: inline}
	if seen[key] {
		return ""
	}
	seen[key] = true

	if inline && isMember(t) {
		m := reflect.New(t).Interface().(member)
		if m.selfCloning() {
			return ""
		}
		return walkBlocker(m.elemType(), "(*"+path+")", true, seen)
	}

	switch k {
	case reflect.Pointer:
		return walkBlocker(t.Elem(), "(*"+path+")", false, seen)
	case reflect.Slice:
		return walkBlocker(t.Elem(), path+"[]", false, seen)
	case reflect.Array:
		return walkBlocker(t.Elem(), path+"[]", inline, seen)
	case reflect.Map:
		if b := walkBlocker(t.Key(), path+"{key}", false, seen); b != "" {
			return b
		}
		return walkBlocker(t.Elem(), path+"{}", false, seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if b := walkBlocker(f.Type, path+"."+f.Name, inline, seen); b != "" {
				return b
			}
		}
	}
	// interface values are cloned through their dynamic type
	return ""
}
