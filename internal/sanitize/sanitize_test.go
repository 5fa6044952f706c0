package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "&lt;script&gt;", String("<script>"))
	assert.Equal(t, "it&#x27;s", String("it's"))
	assert.Equal(t, "a&quot;b&#x2F;c", String(`a"b/c`))
	assert.Equal(t, "plain text", String("plain text"))
}

func TestInput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "&lt;b&gt;", Input("<b>"))
	assert.Equal(t, 5, Input(5))
	assert.Equal(t, true, Input(true))
	assert.Nil(t, Input(nil))
}

func TestObject_NestedStructure(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"a": "<script>",
		"b": 5,
		"c": map[string]any{
			"d": "it's",
		},
	}

	got := Object(in)

	assert.Equal(t, map[string]any{
		"a": "&lt;script&gt;",
		"b": 5,
		"c": map[string]any{
			"d": "it&#x27;s",
		},
	}, got)
}

func TestObject_PreservesNonStringLeaves(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"n":    42.5,
		"flag": false,
		"nil":  nil,
		"list": []any{"<i>", 1, nil, map[string]any{"deep": ">"}},
	}

	got := Object(in)

	assert.Equal(t, map[string]any{
		"n":    42.5,
		"flag": false,
		"nil":  nil,
		"list": []any{"&lt;i&gt;", 1, nil, map[string]any{"deep": "&gt;"}},
	}, got)
}

// Sanitization is total: anything decodable produces an output, nothing errors.
func TestObject_ScalarRoot(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "&lt;", Object("<"))
	assert.Equal(t, 1, Object(1))
	assert.Nil(t, Object(nil))
}
