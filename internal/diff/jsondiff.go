package diff

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/tidwall/gjson"
)

// jsonDiff recursively compares two tool-call payloads and returns the
// leaf-level differences as RFC-6901 pointer paths, in the style of the
// teacher's gjson-based payload extraction.
func jsonDiff(payloadA, payloadB map[string]interface{}) ([]ParamChange, error) {
	rawA, err := json.Marshal(payloadA)
	if err != nil {
		return nil, fmt.Errorf("marshal payload a: %w", err)
	}
	rawB, err := json.Marshal(payloadB)
	if err != nil {
		return nil, fmt.Errorf("marshal payload b: %w", err)
	}

	return walkDiff("", gjson.ParseBytes(rawA), gjson.ParseBytes(rawB)), nil
}

func walkDiff(prefix string, a, b gjson.Result) []ParamChange {
	if valuesEqual(a, b) {
		return nil
	}

	if a.IsObject() && b.IsObject() {
		mapA := a.Map()
		mapB := b.Map()
		keys := make(map[string]struct{}, len(mapA)+len(mapB))
		for k := range mapA {
			keys[k] = struct{}{}
		}
		for k := range mapB {
			keys[k] = struct{}{}
		}

		var changes []ParamChange
		for key := range keys {
			path := prefix + "/" + escapePointerToken(key)
			changes = append(changes, walkDiff(path, mapA[key], mapB[key])...)
		}
		return changes
	}

	if a.IsArray() && b.IsArray() {
		arrA := a.Array()
		arrB := b.Array()
		maxLen := len(arrA)
		if len(arrB) > maxLen {
			maxLen = len(arrB)
		}

		var changes []ParamChange
		for i := 0; i < maxLen; i++ {
			var elemA, elemB gjson.Result
			if i < len(arrA) {
				elemA = arrA[i]
			}
			if i < len(arrB) {
				elemB = arrB[i]
			}
			changes = append(changes, walkDiff(fmt.Sprintf("%s/%d", prefix, i), elemA, elemB)...)
		}
		return changes
	}

	pointer := prefix
	if pointer == "" {
		pointer = "/"
	}
	return []ParamChange{{Pointer: pointer, ValueA: a.Value(), ValueB: b.Value()}}
}

func valuesEqual(a, b gjson.Result) bool {
	return reflect.DeepEqual(a.Value(), b.Value())
}

// escapePointerToken escapes a JSON object key per RFC 6901 ("~" -> "~0",
// "/" -> "~1").
func escapePointerToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	token = strings.ReplaceAll(token, "/", "~1")
	return token
}

// ResolvePointer looks up an RFC-6901 pointer path (as produced by
// ParamChange.Pointer) against a payload, for callers that only have the
// path string and need the underlying value back — e.g. rendering a diff
// summary for display.
func ResolvePointer(payload map[string]interface{}, pointer string) (interface{}, error) {
	if pointer == "" || pointer == "/" {
		return payload, nil
	}
	expr := "$" + strings.ReplaceAll(pointer, "/", ".")
	return jsonpath.Get(expr, payload)
}
