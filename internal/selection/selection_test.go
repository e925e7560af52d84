package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitSelection_AddRemoveContains(t *testing.T) {
	s := New()

	s.Add(3)
	s.Add(1)
	s.Add(3) // duplicate add is a no-op

	assert.True(t, s.Contains(3))
	assert.True(t, s.Contains(1))
	assert.False(t, s.Contains(2))
	assert.Equal(t, 2, s.Len())

	s.Remove(3)
	assert.False(t, s.Contains(3))

	s.Remove(99) // unknown id ignored
	assert.Equal(t, 1, s.Len())
}

func TestUnitSelection_IDs_Sorted(t *testing.T) {
	s := New()
	for _, id := range []UnitID{9, 2, 7, 1} {
		s.Add(id)
	}
	assert.Equal(t, []UnitID{1, 2, 7, 9}, s.IDs())
}

func TestUnitSelection_Clear(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(2)

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.IDs())
}
