// SPDX-License-Identifier: MIT
package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_ProducesDistinctNonNilIds(t *testing.T) {
	a := New()
	b := New()

	assert.False(t, a.IsNil())
	assert.False(t, b.IsNil())
	assert.NotEqual(t, a, b)
}

func TestNil_IsNilAndEqualToItself(t *testing.T) {
	assert.True(t, Nil.IsNil())
	assert.Equal(t, Nil, Nil)
}

func TestCompare_OrdersByCreationTime(t *testing.T) {
	a := New()
	b := New()

	assert.LessOrEqual(t, a.Compare(b), 0)
	assert.GreaterOrEqual(t, b.Compare(a), 0)
	assert.Equal(t, 0, a.Compare(a))
}

func TestString_IsNonEmptyAndDiffersBetweenIds(t *testing.T) {
	a := New()
	b := New()

	assert.NotEmpty(t, a.String())
	assert.NotEqual(t, a.String(), b.String())
}
