package port

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckValue(t *testing.T) {
	i := NewInt("Value", false)
	ok, _ := i.CheckValue(5)
	assert.True(t, ok)
	ok, reason := i.CheckValue("nope")
	assert.False(t, ok)
	assert.NotEmpty(t, reason)
}

func TestCompoundDelegates(t *testing.T) {
	fields := NewCollection(NewInt("X", false), NewInt("Y", true))
	c := NewCompound("Point", false, fields)

	ok, _ := c.CheckValue(map[string]interface{}{"x": 1, "y": 2})
	assert.True(t, ok)

	ok, _ = c.CheckValue(map[string]interface{}{"x": 1})
	assert.True(t, ok, "optional field may be omitted")

	ok, reason := c.CheckValue(map[string]interface{}{"y": 2})
	assert.False(t, ok, "required field missing")
	assert.Contains(t, reason, "x")

	ok, _ = c.CheckValue("not a map")
	assert.False(t, ok)
}

func TestArrayDelegatesPerElement(t *testing.T) {
	a := NewArray("Values", false, NewInt("Value", false))
	ok, _ := a.CheckValue([]interface{}{1, 2, 3})
	assert.True(t, ok)

	ok, reason := a.CheckValue([]interface{}{1, "bad", 3})
	assert.False(t, ok)
	assert.Contains(t, reason, "element 1")
}

func TestCollectionDeepCopyIsolated(t *testing.T) {
	orig := NewCollection(NewInt("Value", false))
	cp := orig.DeepCopy()

	cp.Add(NewInt("Extra", true))

	assert.Equal(t, 1, orig.Len())
	assert.Equal(t, 2, cp.Len())
}

func TestContextualizeRekeysOnly(t *testing.T) {
	p := NewInt("Value", false)
	ctx := Contextualize(p, "Value A")

	assert.Equal(t, "value_a", ctx.Key())
	ok, _ := ctx.CheckValue(5)
	assert.True(t, ok, "validation behavior is preserved")
}

func TestPortEqual(t *testing.T) {
	a := NewInt("Value", false)
	b := NewInt("Value", true) // optional differs, key+type do not
	c := NewFloat("Value", false)

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}
