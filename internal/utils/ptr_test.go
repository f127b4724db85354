package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSame(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	tests := []struct {
		name string
		x, y *uuid.UUID
		want bool
	}{
		{"equal ids", Ptr(a), Ptr(a), true},
		{"different ids", Ptr(a), Ptr(b), false},
		{"one empty slot", Ptr(a), nil, false},
		{"two empty slots", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Same(tt.x, tt.y))
		})
	}
}

func TestDerefAndIs(t *testing.T) {
	assert.Equal(t, 3, Deref(nil, 3))
	assert.Equal(t, 1, Deref(Ptr(1), 3))

	assert.True(t, Is(Ptr("x"), "x"))
	assert.False(t, Is(nil, "x"))
}

func TestNonBlank(t *testing.T) {
	assert.Nil(t, NonBlank("  \t"))
	assert.Equal(t, "a b", *NonBlank(" a b "))
}
