// Package utils holds the small pointer helpers shared by the bracket model
// and the services. Optional ids and slots are pointers throughout.
package utils

import "strings"

func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or fallback when p is nil.
func Deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Same reports whether both pointers are set and point at equal values. Two
// empty slots are not the same participant.
func Same[T comparable](a, b *T) bool {
	return a != nil && b != nil && *a == *b
}

// Is reports whether p is set to v.
func Is[T comparable](p *T, v T) bool {
	return p != nil && *p == v
}

// NonBlank trims s and returns nil when nothing is left.
func NonBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
