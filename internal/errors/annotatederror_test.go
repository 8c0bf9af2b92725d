package errors

import (
	"github.com/stretchr/testify/require"
	"log/slog"
	"slices"
	"testing"
)

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error", err.Error())

	// Assert that wrapping sentinel errors work as expected.
	sentinel := NewSentinel("test error")
	require.NotErrorIs(t, err, NewSentinel("test error"))
	wrapped := Wrap(sentinel, "context", slog.String("case_id", "case01"))
	require.ErrorIs(t, wrapped, sentinel)
	require.Equal(t, "context: test error", wrapped.Error())

	// Ensure log values are coming through.
	var annotated *AnnotatedError
	require.True(t, As(err, &annotated))
	group := annotated.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	source := group[sourceIdx]
	require.Contains(t, source.Value.String(), "annotatederror_test.go")
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil, "nothing to wrap"))
}

func TestSlogError(t *testing.T) {
	inner := Wrap(NewSentinel("not found"), "load dialogue", slog.String("dialogue_id", "d1"))
	outer := Wrap(inner, "start interrogation", slog.String("case_id", "case01"))

	attr := SlogError(outer)
	require.Equal(t, "error", attr.Key)
	group := attr.Value.Group()
	require.Contains(t, group, slog.String("message", "start interrogation: load dialogue: not found"))
	require.Contains(t, group, slog.String("case_id", "case01"))
	require.Contains(t, group, slog.String("dialogue_id", "d1"))

	sources := 0
	for _, a := range group {
		if a.Key == "source" {
			sources++
		}
	}
	require.Equal(t, 1, sources, "only the outermost source is logged")
}
