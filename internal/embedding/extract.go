package embedding

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"resumechat/internal/domain"
)

func formatError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrEmbeddingFormat, fmt.Sprintf(format, args...))
}

// Flatten reduces a raw embedding result to one flat vector. Lists of lists
// are treated as one row per input and only the first row is kept; nesting
// is unwrapped until a list of numbers is reached.
func Flatten(raw any) ([]float64, error) {
	switch v := raw.(type) {
	case nil:
		return nil, formatError("no result")
	case Tensor:
		return Flatten(v.ToList())
	case Buffer:
		return fromBuffer(v)
	case []float64:
		out := make([]float64, len(v))
		copy(out, v)
		return finite(out)
	case []float32:
		return finite(widen(v))
	}
	return flattenValue(reflect.ValueOf(raw))
}

func fromBuffer(b Buffer) ([]float64, error) {
	data := b.Data()
	dims := b.Dims()
	if len(dims) >= 2 && dims[0] > 0 {
		row := len(data) / dims[0]
		if row*dims[0] != len(data) {
			return nil, formatError("buffer of %d values does not match dims %v", len(data), dims)
		}
		data = data[:row]
	}
	if len(data) == 0 {
		return nil, formatError("empty buffer")
	}
	return finite(widen(data))
}

func flattenValue(rv reflect.Value) ([]float64, error) {
	rv = deref(rv)
	if !rv.IsValid() {
		return nil, formatError("no result")
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, formatError("unsupported result type %s", rv.Type())
	}
	if rv.Len() == 0 {
		return nil, formatError("empty result")
	}
	if first := deref(rv.Index(0)); isList(first) {
		return flattenValue(first)
	}
	out := make([]float64, rv.Len())
	for i := range out {
		x, ok := number(rv.Index(i))
		if !ok {
			return nil, formatError("non-numeric element at %d", i)
		}
		out[i] = x
	}
	return finite(out)
}

func deref(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func isList(rv reflect.Value) bool {
	return rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array)
}

func number(rv reflect.Value) (float64, bool) {
	rv = deref(rv)
	if !rv.IsValid() {
		return 0, false
	}
	if n, ok := rv.Interface().(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func finite(v []float64) ([]float64, error) {
	if len(v) == 0 {
		return nil, formatError("empty vector")
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, formatError("non-finite value at %d", i)
		}
	}
	return v, nil
}
