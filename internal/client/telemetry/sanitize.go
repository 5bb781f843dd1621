package telemetry

import (
	"encoding"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/dryerwatch/internal/common"
)

var sensitiveKeys = []string{"password", "token", "secret", "key", "auth"}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Sanitize returns a copy of v in which every value under a sensitive key is
// replaced by the redaction marker, at any depth. Other leaves are returned
// as they are. Structs, typed maps and typed slices are converted through
// JSON so that their field names can be checked.
func Sanitize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if isSensitive(k) {
				out[k] = common.RedactedMarker
				continue
			}
			out[k] = Sanitize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Sanitize(val)
		}
		return out
	case []byte, json.Number, encoding.TextMarshaler, error:
		return t
	}

	if !isContainer(v) {
		return v
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return common.RedactedMarker
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return common.RedactedMarker
	}
	return Sanitize(generic)
}

func isContainer(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// SanitizeMap is Sanitize for the common map case.
func SanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return Sanitize(m).(map[string]any)
}
