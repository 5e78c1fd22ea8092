package sandbox

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
)

// toStarlark converts a Go value into its Starlark representation. Values
// that already implement starlark.Value (including *starlark.Builtin for
// host callbacks) pass through unchanged.
func toStarlark(v any) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return val, nil
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int32:
		return starlark.MakeInt64(int64(val)), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case uint64:
		return starlark.MakeUint64(val), nil
	case float32:
		return starlark.Float(float64(val)), nil
	case float64:
		return starlark.Float(val), nil
	case string:
		return starlark.String(val), nil
	case []string:
		elems := make([]starlark.Value, len(val))
		for i, s := range val {
			elems[i] = starlark.String(s)
		}
		return starlark.NewList(elems), nil
	case []float64:
		elems := make([]starlark.Value, len(val))
		for i, f := range val {
			elems[i] = starlark.Float(f)
		}
		return starlark.NewList(elems), nil
	case []any:
		elems := make([]starlark.Value, len(val))
		for i, e := range val {
			sv, err := toStarlark(e)
			if err != nil {
				return nil, err
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil
	case map[string]string:
		d := starlark.NewDict(len(val))
		for _, k := range sortedKeys(val) {
			if err := d.SetKey(starlark.String(k), starlark.String(val[k])); err != nil {
				return nil, err
			}
		}
		return d, nil
	case map[string]any:
		d := starlark.NewDict(len(val))
		for _, k := range sortedKeys(val) {
			sv, err := toStarlark(val[k])
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported context value type %T", v)
	}
}

// fromStarlark converts a Starlark value back into a plain Go value.
func fromStarlark(v starlark.Value) any {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(val)
	case starlark.Int:
		if i, ok := val.Int64(); ok {
			return i
		}
		return val.String() // too large for int64
	case starlark.Float:
		return float64(val)
	case starlark.String:
		return string(val)
	case *starlark.List:
		out := make([]any, 0, val.Len())
		for i := 0; i < val.Len(); i++ {
			out = append(out, fromStarlark(val.Index(i)))
		}
		return out
	case starlark.Tuple:
		out := make([]any, 0, len(val))
		for _, e := range val {
			out = append(out, fromStarlark(e))
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				key = starlark.String(item[0].String())
			}
			out[string(key)] = fromStarlark(item[1])
		}
		return out
	default:
		return v.String()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
