package assertion

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type Kind int

const (
	Absent Kind = iota
	Null
	String
	Number
	Bool
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Null:
		return "null"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "boolean"
	case Object:
		return "object"
	case Array:
		return "array"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a JSON value resolved from a response body. The zero Value is Absent.
type Value struct {
	Kind Kind
	raw  any
}

// FromJSON wraps a value produced by encoding/json (string, float64, bool, nil,
// map[string]any or []any).
func FromJSON(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{Kind: Null}
	case string:
		return Value{Kind: String, raw: t}
	case float64:
		return Value{Kind: Number, raw: t}
	case int:
		return Value{Kind: Number, raw: float64(t)}
	case int64:
		return Value{Kind: Number, raw: float64(t)}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{Kind: String, raw: t.String()}
		}
		return Value{Kind: Number, raw: f}
	case bool:
		return Value{Kind: Bool, raw: t}
	case map[string]any:
		return Value{Kind: Object, raw: t}
	case []any:
		return Value{Kind: Array, raw: t}
	}
	return Value{Kind: String, raw: fmt.Sprintf("%v", v)}
}

// Resolve walks a dot separated path through a decoded JSON document.
// Segments select object keys or array indices. An empty path selects the document itself.
func Resolve(document any, path string) Value {
	current := FromJSON(document)
	if path == "" {
		return current
	}
	for _, segment := range strings.Split(path, ".") {
		current = current.child(segment)
		if current.Kind == Absent {
			return current
		}
	}
	return current
}

func (v Value) child(segment string) Value {
	switch v.Kind {
	case Object:
		obj := v.raw.(map[string]any)
		child, ok := obj[segment]
		if !ok {
			return Value{}
		}
		return FromJSON(child)
	case Array:
		arr := v.raw.([]any)
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 || index >= len(arr) {
			return Value{}
		}
		return FromJSON(arr[index])
	}
	return Value{}
}

func (v Value) Present() bool {
	return v.Kind != Absent
}

// Equal reports whether both values have the same kind and the same content.
// Objects and arrays are compared deeply.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case Absent, Null:
		return true
	case Object, Array:
		return reflect.DeepEqual(v.raw, other.raw)
	}
	return v.raw == other.raw
}

func (v Value) String() string {
	switch v.Kind {
	case Absent:
		return "undefined"
	case Null:
		return "null"
	case String:
		return v.raw.(string)
	case Number:
		return strconv.FormatFloat(v.raw.(float64), 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(v.raw.(bool))
	}
	b, err := json.Marshal(v.raw)
	if err != nil {
		return fmt.Sprintf("%v", v.raw)
	}
	return string(b)
}

func (v Value) quoted() string {
	if v.Kind == String {
		return strconv.Quote(v.String())
	}
	return v.String()
}
