package check

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// Render returns the representation of a value used in failure messages
// and by the duplicate counter. Strings are quoted so that 1 and "1"
// render distinctly; sequences and maps render recursively.
func Render(v interface{}) string {
	if v == nil {
		return "nil"
	}
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		var b strings.Builder
		b.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i != 0 {
				b.WriteString(", ")
			}
			b.WriteString(Render(rv.Index(i).Interface()))
		}
		b.WriteByte(']')
		return b.String()
	case reflect.Map:
		items := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			items = append(items, Render(iter.Key().Interface())+": "+Render(iter.Value().Interface()))
		}
		sort.Strings(items)
		return "{" + strings.Join(items, ", ") + "}"
	case reflect.Func:
		return funcName(v)
	}
	return fmt.Sprintf("%v", v)
}

// RenderAll renders each value, comma-separated.
func RenderAll(vs []interface{}) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = Render(v)
	}
	return strings.Join(parts, ", ")
}

func funcName(fn interface{}) string {
	pc := reflect.ValueOf(fn).Pointer()
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "<function>"
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
