package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"Sesión con José", "sesion con jose"},
		{"  GARCÍA  ", "garcia"},
		{"ñoño", "nono"},
		{"already plain", "already plain"},
		{"", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestContainsNormalized(t *testing.T) {
	testCases := []struct {
		name     string
		haystack string
		needle   string
		expected bool
	}{
		{"accented needle in plain haystack", "sesion con jose garcia", "José García", true},
		{"plain needle in accented haystack", "Sesión con José García", "jose garcia", true},
		{"case insensitive", "SESIÓN CON ANA", "sesión con ana", true},
		{"no match", "Reunión de equipo", "José", false},
		{"empty needle never matches", "anything", "", false},
		{"whitespace needle never matches", "anything", "   ", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ContainsNormalized(tc.haystack, tc.needle))
		})
	}
}
