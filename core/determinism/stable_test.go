package determinism

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureIgnoresMapOrder(t *testing.T) {
	a := map[string]any{"width": 200, "height": 100, "variant": "pvc"}
	b := map[string]any{"variant": "pvc", "height": 100, "width": 200}

	assert.Equal(t, SignatureOf(a), SignatureOf(b))
	assert.Len(t, string(SignatureOf(a)), 16)
	assert.NotEqual(t, SignatureOf(a), SignatureOf(map[string]any{"width": 201}))
}

func TestSignatureOfUnencodableIsEmpty(t *testing.T) {
	assert.Equal(t, Signature(""), SignatureOf(func() {}))
}

func TestSortSliceIsStable(t *testing.T) {
	type row struct {
		order int
		name  string
	}
	rows := []row{{2, "b"}, {1, "a"}, {2, "c"}, {1, "d"}}
	SortSlice(rows, func(x, y row) bool { return x.order < y.order })

	assert.Equal(t, []row{{1, "a"}, {1, "d"}, {2, "b"}, {2, "c"}}, rows)
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}
