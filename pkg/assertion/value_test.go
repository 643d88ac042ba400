package assertion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	var document any
	err := json.Unmarshal([]byte(`{"a":{"b":[10,{"c":null}]},"1":"key"}`), &document)
	require.NoError(t, err)

	assert.Equal(t, Object, Resolve(document, "").Kind)
	assert.Equal(t, Array, Resolve(document, "a.b").Kind)
	assert.Equal(t, "10", Resolve(document, "a.b.0").String())
	assert.Equal(t, Null, Resolve(document, "a.b.1.c").Kind)
	assert.Equal(t, Absent, Resolve(document, "a.b.1.d").Kind)
	assert.Equal(t, Absent, Resolve(document, "a.b.2").Kind)
	assert.Equal(t, Absent, Resolve(document, "a.b.-1").Kind)
	assert.Equal(t, Absent, Resolve(document, "a.b.x").Kind)
	assert.Equal(t, Absent, Resolve(document, "a.b.0.c").Kind)
	assert.Equal(t, "key", Resolve(document, "1").String())
}

func TestValueEqual(t *testing.T) {
	assert.True(t, FromJSON("a").Equal(FromJSON("a")))
	assert.False(t, FromJSON("1").Equal(FromJSON(float64(1))))
	assert.True(t, FromJSON(1).Equal(FromJSON(float64(1))))
	assert.True(t, FromJSON(nil).Equal(FromJSON(nil)))
	assert.False(t, FromJSON(nil).Equal(Value{}))
	assert.True(t, FromJSON(map[string]any{"a": "b"}).Equal(FromJSON(map[string]any{"a": "b"})))
	assert.False(t, FromJSON([]any{"a"}).Equal(FromJSON([]any{"b"})))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "1.5", FromJSON(1.5).String())
	assert.Equal(t, "3", FromJSON(float64(3)).String())
	assert.Equal(t, "false", FromJSON(false).String())
	assert.Equal(t, "null", FromJSON(nil).String())
	assert.Equal(t, `["a",1]`, FromJSON([]any{"a", float64(1)}).String())
	assert.Equal(t, `"x"`, FromJSON("x").quoted())
}
