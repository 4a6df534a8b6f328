// Package seq checks that items appear in a given order among other items,
// for tests of concurrent output.
package seq

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func AssertStringContainsSequence(t *testing.T, str string, seq ...string) {
	t.Helper()
	assert.NoError(t, StringContainsSequence(str, seq...))
}

func AssertContainsSequence(t *testing.T, lines []string, seq ...string) {
	t.Helper()
	assert.NoError(t, ContainsSequence(lines, seq...))
}

func StringContainsSequence(str string, seq ...string) error {
	return ContainsSequence(strings.Split(str, "\n"), seq...)
}

// ContainsSequence returns an error unless every item of seq occurs in
// items, in order, exactly once. Items not in seq are ignored.
func ContainsSequence[T comparable](items []T, seq ...T) error {
	expected := make(map[T]bool, len(seq))
	for _, s := range seq {
		expected[s] = true
	}

	next := 0
	for i, item := range items {
		if !expected[item] {
			continue
		}
		if next < len(seq) && item == seq[next] {
			next++
			continue
		}
		if next == len(seq) {
			return mismatch(fmt.Sprintf("found %v at %d after the whole sequence", item, i), items, seq)
		}
		return mismatch(fmt.Sprintf("found %v at %d while looking for item %d, %v", item, i, next+1, seq[next]), items, seq)
	}
	if next < len(seq) {
		return mismatch(fmt.Sprintf("item %d, %v, not found", next+1, seq[next]), items, seq)
	}
	return nil
}

func mismatch[T any](msg string, items, seq []T) error {
	return fmt.Errorf("%s\n\nsequence:\n%s\n\nactual:\n%s", msg, join(seq), join(items))
}

func join[T any](items []T) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("  %v", item)
	}
	return strings.Join(lines, "\n")
}
