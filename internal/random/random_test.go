package random_test

import (
	"github.com/myrjola/deduce/internal/random"
	"github.com/stretchr/testify/require"
	"testing"
	"unicode"
)

func TestLetters(t *testing.T) {
	tests := []struct {
		name   string
		length uint
	}{
		{
			name:   "zero length",
			length: 0,
		},
		{
			name:   "32 length",
			length: 32,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := random.Letters(tt.length)
			require.NoError(t, err)
			require.Len(t, got, int(tt.length))
			for _, r := range got {
				require.True(t, unicode.IsLetter(r), "got %q", r)
			}
		})
	}
}

func TestLettersDiffer(t *testing.T) {
	a, err := random.Letters(20)
	require.NoError(t, err)
	b, err := random.Letters(20)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
