package opbuilder

import (
	"reflect"
	"strings"
)

// Value is the normalized state of one form field.
type Value struct {
	Str  string
	Bool bool
	List []string
}

// Truthy reports whether the field is set at all.
func (v Value) Truthy() bool {
	return v.Bool || v.Str != "" || len(v.List) > 0
}

// Snapshot maps JSON field names to normalized values.
type Snapshot map[string]Value

// SnapshotOf reads string, bool and []string fields of a form struct,
// keyed by their json tag. Strings are trimmed, list elements are trimmed
// and empty elements dropped. Embedded structs are flattened. A nil form
// returns nil, which Build treats as create mode.
func SnapshotOf(form any) Snapshot {
	if form == nil {
		return nil
	}
	v := reflect.ValueOf(form)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	snap := Snapshot{}
	collect(v, snap)
	return snap
}

func collect(v reflect.Value, snap Snapshot) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)

		if sf.Anonymous && fv.Kind() == reflect.Struct {
			collect(fv, snap)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		name := JSONName(sf)
		if name == "" {
			continue
		}

		switch fv.Kind() {
		case reflect.String:
			snap[name] = Value{Str: strings.TrimSpace(fv.String())}
		case reflect.Bool:
			snap[name] = Value{Bool: fv.Bool()}
		case reflect.Slice:
			if fv.Type().Elem().Kind() != reflect.String {
				continue
			}
			items := make([]string, fv.Len())
			for j := range items {
				items[j] = fv.Index(j).String()
			}
			snap[name] = Value{List: CleanList(items)}
		}
	}
}

// JSONName returns the json name of a struct field, or "" when the field is
// excluded from JSON.
func JSONName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}

// CleanList trims elements, drops empties and collapses duplicates while
// keeping first-seen order.
func CleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
