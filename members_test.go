package implptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/implptr/pkg/ptrtest"
)

type base struct {
	ptr Ptr[details]
}

type composite struct {
	ID     int
	Tags   []string
	head   Ptr[details]
	parts  [2]Ptr[details]
	nested struct {
		Label string
		inner Ptr[details]
	}
}

func TestMembersDefaultMethods(t *testing.T) {
	var b1 base
	b1.ptr.Get().data = "abc"

	// copy
	b2 := Copy(&b1)
	require.Equal(t, "abc", b2.ptr.Get().data)
	b1.ptr.Get().data = "def"
	require.Equal(t, "abc", b2.ptr.Get().data)

	// move
	b3 := Move(&b1)
	require.Equal(t, "def", b3.ptr.Get().data)
	b1.ptr.Get().data = "ghi"
	require.Equal(t, "def", b3.ptr.Get().data)

	// copy assignment
	var b4, b5 base
	b4.ptr.Get().data = "abc"
	Assign(&b5, &b4)
	require.Equal(t, "abc", b5.ptr.Get().data)
	b4.ptr.Get().data = "def"
	require.Equal(t, "abc", b5.ptr.Get().data)

	// move assignment
	AssignMove(&b5, &b4)
	require.Equal(t, "def", b5.ptr.Get().data)
	b4.ptr.Get().data = "ghi"
	require.Equal(t, "def", b5.ptr.Get().data)
}

func TestMembersExample(t *testing.T) {
	type example struct {
		ptr Ptr[details]
	}
	newExample := func() example {
		return example{ptr: Make(details{data: "abc"})}
	}

	e1 := newExample()
	require.Equal(t, "abc", e1.ptr.Get().data)
	e1.ptr.Get().data = "xyz"

	e2 := Copy(&e1)
	assert.Equal(t, "xyz", e1.ptr.Get().data)
	assert.Equal(t, "xyz", e2.ptr.Get().data)
	e2.ptr.Get().data = "abc"
	assert.Equal(t, "xyz", e1.ptr.Get().data)
	assert.Equal(t, "abc", e2.ptr.Get().data)
}

func fillComposite(c *composite, prefix string) {
	c.ID = 7
	c.Tags = []string{"t"}
	c.head.Get().data = prefix + "head"
	c.parts[0].Get().data = prefix + "p0"
	c.parts[1].Get().data = prefix + "p1"
	c.nested.Label = "label"
	c.nested.inner.Get().data = prefix + "inner"
}

func payloads(c *composite) []*details {
	return []*details{c.head.Get(), c.parts[0].Get(), c.parts[1].Get(), c.nested.inner.Get()}
}

func TestMembersComposite(t *testing.T) {
	var src composite
	fillComposite(&src, "s-")

	cp := Copy(&src)
	assert.Equal(t, 7, cp.ID)
	assert.Equal(t, "label", cp.nested.Label)
	for i, p := range payloads(&cp) {
		assert.NotSame(t, payloads(&src)[i], p)
		assert.Equal(t, *payloads(&src)[i], *p)
	}
	// plain fields follow Go assignment
	cp.Tags[0] = "changed"
	assert.Equal(t, "changed", src.Tags[0])

	mv := Move(&src)
	for i, p := range payloads(&mv) {
		assert.Equal(t, *payloads(&cp)[i], *p)
		assert.Empty(t, payloads(&src)[i].data)
	}
	assert.Equal(t, 7, src.ID)
}

func TestMembersAssignReuses(t *testing.T) {
	var src, dst composite
	fillComposite(&src, "s-")
	fillComposite(&dst, "d-")
	dst.ID = 1
	before := payloads(&dst)

	Assign(&dst, &src)
	assert.Equal(t, 7, dst.ID)
	for i, p := range payloads(&dst) {
		assert.Same(t, before[i], p)
		assert.Equal(t, *payloads(&src)[i], *p)
	}

	AssignMove(&dst, &src)
	for i, p := range payloads(&dst) {
		assert.Same(t, before[i], p)
		assert.Empty(t, payloads(&src)[i].data)
	}
}

func TestMembersSelfAssign(t *testing.T) {
	var c composite
	fillComposite(&c, "x-")
	Assign(&c, &c)
	AssignMove(&c, &c)
	assert.Equal(t, "x-head", c.head.Get().data)
	assert.Equal(t, "x-inner", c.nested.inner.Get().data)
}

func TestMembersRelease(t *testing.T) {
	type owner struct {
		Name string
		a, b Ptr[ptrtest.Tracked]
	}
	var c ptrtest.Counter
	o := owner{Name: "o", a: New2(ptrtest.NewTracked, &c, "a"), b: New2(ptrtest.NewTracked, &c, "b")}
	cp := Copy(&o)
	mv := Move(&o)
	assert.EqualValues(t, 6, c.Live())

	Release(&o)
	Release(&cp)
	Release(&mv)
	Release(&mv)
	assert.Zero(t, c.Live())
	assert.EqualValues(t, 6, c.Counts().Destroyed)

	err := recoverErr(func() { o.a.Get() })
	assert.ErrorIs(t, err, ErrReleased)
}

func TestMembersWithoutPtr(t *testing.T) {
	type flat struct {
		A int
		B []int
	}
	src := flat{A: 1, B: []int{1}}
	cp := Copy(&src)
	assert.Equal(t, src, cp)

	var dst flat
	Assign(&dst, &src)
	assert.Equal(t, src, dst)
	Release(&dst)
}

func TestMembersPtrRoot(t *testing.T) {
	p := Make(details{data: "abc"})
	q := Copy(&p)
	q.Get().data = "def"
	assert.Equal(t, "abc", p.Get().data)
}

func TestMembersNotStruct(t *testing.T) {
	n := 3
	err := recoverErr(func() { Copy(&n) })
	require.ErrorIs(t, err, ErrNotStruct)
	assert.Contains(t, err.Error(), "int")
}

func TestMemberPlan(t *testing.T) {
	plan := planOf(typeOf[composite]())
	// head, parts[0], parts[1], nested.inner
	assert.Len(t, plan.members, 4)
	// ID, Tags, nested.Label
	assert.Len(t, plan.plain, 3)
	assert.Same(t, plan, planOf(typeOf[composite]()))
}

type labelled struct {
	Ptr[ptrtest.Tracked]
	Label string
	extra Ptr[ptrtest.Tracked]
}

func TestMembersEmbeddedPtr(t *testing.T) {
	assert.False(t, isMember(typeOf[labelled]()))
	assert.True(t, isMember(typeOf[Ptr[ptrtest.Tracked]]()))
	plan := planOf(typeOf[labelled]())
	assert.Len(t, plan.members, 2)
	assert.Len(t, plan.plain, 1)

	var c ptrtest.Counter
	src := labelled{
		Ptr:   New2(ptrtest.NewTracked, &c, "a"),
		Label: "x",
		extra: New2(ptrtest.NewTracked, &c, "b"),
	}
	cp := Copy(&src)
	assert.Equal(t, "x", cp.Label)
	assert.Equal(t, "a", cp.Get().Text)
	assert.Equal(t, "b", cp.extra.Get().Text)
	assert.NotSame(t, src.Get(), cp.Get())

	mv := Move(&src)
	assert.Equal(t, "a", mv.Get().Text)
	assert.Empty(t, src.Get().Text)

	var dst labelled
	Assign(&dst, &cp)
	assert.Equal(t, "x", dst.Label)
	assert.Equal(t, "a", dst.Get().Text)
	cp.Get().Text = "c"
	AssignMove(&dst, &cp)
	assert.Equal(t, "c", dst.Get().Text)
	assert.Empty(t, cp.Get().Text)

	for _, s := range []*labelled{&src, &cp, &mv, &dst} {
		Release(s)
	}
	assert.EqualValues(t, 8, c.Counts().Destroyed)
	assert.Zero(t, c.Live())
}

func TestMembersNestedPayload(t *testing.T) {
	type holder struct {
		impl Ptr[trackedPair]
	}
	var c ptrtest.Counter
	h := holder{impl: Make(newPair(&c, "h"))}
	cp := Copy(&h)
	assert.Equal(t, "h-r", cp.impl.Get().Right.Get().Text)
	assert.EqualValues(t, 4, c.Live())

	Release(&h)
	Release(&cp)
	assert.Zero(t, c.Live())
}
