package starfact

import (
	"fmt"
	"reflect"

	"go.starlark.net/starlark"

	"github.com/aspineon/factual/check"
	"github.com/aspineon/factual/fact"
)

// fromStarlark converts a Starlark value into the engine's value space.
// Callables become predicate checkers bound to the thread; checker and
// metavariable wrappers unwrap to their engine values.
func fromStarlark(thread *starlark.Thread, v starlark.Value) (interface{}, error) {
	switch x := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(x), nil
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			return i, nil
		}
		return x.BigInt(), nil
	case starlark.Float:
		return float64(x), nil
	case starlark.String:
		return x.GoString(), nil
	case *checkerValue:
		return x.c, nil
	case *metavarValue:
		return x.m, nil
	case starlark.Callable:
		return &starFunc{thread: thread, fn: x}, nil
	case starlark.IterableMapping:
		items := x.Items()
		m := make(map[interface{}]interface{}, len(items))
		for _, kv := range items {
			k, err := fromStarlark(thread, kv[0])
			if err != nil {
				return nil, err
			}
			// A hashable Starlark key (a tuple, say) may convert to a Go
			// value that cannot be a map key; storing it would panic.
			if k != nil && !reflect.ValueOf(k).Comparable() {
				return nil, fmt.Errorf("cannot use %s as a map key in a fact", kv[0].Type())
			}
			val, err := fromStarlark(thread, kv[1])
			if err != nil {
				return nil, err
			}
			m[k] = val
		}
		return m, nil
	case starlark.Iterable:
		var elems []interface{}
		iter := x.Iterate()
		defer iter.Done()
		var elem starlark.Value
		for iter.Next(&elem) {
			e, err := fromStarlark(thread, elem)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return elems, nil
	}
	return nil, fmt.Errorf("cannot use %s value in a fact", v.Type())
}

// toStarlark converts an engine value back into Starlark space.
func toStarlark(v interface{}) (starlark.Value, error) {
	switch x := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(x), nil
	case int:
		return starlark.MakeInt(x), nil
	case int64:
		return starlark.MakeInt64(x), nil
	case uint64:
		return starlark.MakeUint64(x), nil
	case float64:
		return starlark.Float(x), nil
	case string:
		return starlark.String(x), nil
	case *fact.Metavar:
		return &metavarValue{m: x}, nil
	case *starFunc:
		return x.fn, nil
	case check.Checker:
		return &checkerValue{c: x}, nil
	case []interface{}:
		elems := make([]starlark.Value, len(x))
		for i, e := range x {
			sv, err := toStarlark(e)
			if err != nil {
				return nil, err
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil
	case map[interface{}]interface{}:
		d := starlark.NewDict(len(x))
		for k, val := range x {
			sk, err := toStarlark(k)
			if err != nil {
				return nil, err
			}
			sv, err := toStarlark(val)
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(sk, sv); err != nil {
				return nil, err
			}
		}
		return d, nil
	case starlark.Value:
		return x, nil
	}
	return nil, fmt.Errorf("cannot convert %T into a Starlark value", v)
}
