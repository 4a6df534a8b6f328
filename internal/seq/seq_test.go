package seq_test

import (
	"testing"

	"github.com/amonks/chore/internal/seq"
	"github.com/stretchr/testify/assert"
)

func TestContainsSequence(t *testing.T) {
	abcd := []string{"a", "b", "c", "d"}

	t.Run("in order", func(t *testing.T) {
		assert.NoError(t, seq.ContainsSequence(abcd, "b", "c"))
		assert.NoError(t, seq.ContainsSequence(abcd, "a", "d"))
		assert.NoError(t, seq.ContainsSequence(abcd))
	})

	t.Run("out of order", func(t *testing.T) {
		err := seq.ContainsSequence(abcd, "c", "b")
		assert.ErrorContains(t, err, "found b at 1 while looking for item 1, c")
	})

	t.Run("missing", func(t *testing.T) {
		err := seq.ContainsSequence(abcd, "a", "x")
		assert.ErrorContains(t, err, "item 2, x, not found")
	})

	t.Run("repeats", func(t *testing.T) {
		in := []string{"a", "-", "a", "-", "a", "a"}
		assert.NoError(t, seq.ContainsSequence(in, "-", "-"))
		assert.ErrorContains(t, seq.ContainsSequence(in, "a", "a"), "found a at 4 after the whole sequence")
	})

	t.Run("other types", func(t *testing.T) {
		assert.NoError(t, seq.ContainsSequence([]int{3, 1, 4, 1, 5}, 3, 4, 5))
	})

	t.Run("strings", func(t *testing.T) {
		assert.NoError(t, seq.StringContainsSequence("one\ntwo\nthree\n", "one", "three"))
	})
}
