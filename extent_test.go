package vmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtentResolveLen(t *testing.T) {
	const max = uintptr(100)

	n, ok := ExtentEnd().resolveLen(max)
	assert.True(t, ok)
	assert.Equal(t, max, n)

	n, ok = ExtentExact(50).resolveLen(max)
	assert.True(t, ok)
	assert.Equal(t, uintptr(50), n)

	_, ok = ExtentExact(150).resolveLen(max)
	assert.False(t, ok)

	n, ok = ExtentMin(50).resolveLen(max)
	assert.True(t, ok)
	assert.Equal(t, max, n)

	_, ok = ExtentMin(150).resolveLen(max)
	assert.False(t, ok)

	n, ok = ExtentMax(50).resolveLen(max)
	assert.True(t, ok)
	assert.Equal(t, uintptr(50), n)

	n, ok = ExtentMax(150).resolveLen(max)
	assert.True(t, ok)
	assert.Equal(t, max, n)
}

func TestExtentResolveResize(t *testing.T) {
	const l = uintptr(100)

	assert.Equal(t, l, ExtentEnd().resolveResize(l))
	assert.Equal(t, uintptr(30), ExtentExact(30).resolveResize(l))
	assert.Equal(t, uintptr(200), ExtentMin(200).resolveResize(l))
	assert.Equal(t, l, ExtentMin(30).resolveResize(l))
	assert.Equal(t, uintptr(30), ExtentMax(30).resolveResize(l))
	assert.Equal(t, l, ExtentMax(200).resolveResize(l))
}
