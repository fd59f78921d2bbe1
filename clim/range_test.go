package clim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRange(t *testing.T) {
	t.Run("auto flip", func(t *testing.T) {
		r := New(3, -1)
		assert.Equal(t, -1.0, r.Min)
		assert.Equal(t, 3.0, r.Max)
		assert.Equal(t, 4.0, r.Range())

		r.Set(10, 2)
		assert.Equal(t, Range{Min: 2, Max: 10}, r)
	})

	t.Run("normalize", func(t *testing.T) {
		r := New(2, 6)
		assert.Equal(t, 0.0, r.Normalize(2))
		assert.Equal(t, 0.5, r.Normalize(4))
		assert.Equal(t, 1.0, r.Normalize(6))
		assert.Equal(t, 0.0, New(1, 1).Normalize(5))
	})

	t.Run("containment", func(t *testing.T) {
		r := New(0, 1)
		assert.True(t, r.Contains(0))
		assert.True(t, r.Contains(1))
		assert.False(t, r.Contains(1.5))
		assert.True(t, New(0.2, 0.8).Within(r))
		assert.False(t, New(-0.2, 0.8).Within(r))
	})

	assert.Equal(t, "(0, 1.5)", New(1.5, 0).String())
}
