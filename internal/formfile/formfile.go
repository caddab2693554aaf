// Package formfile fills entity forms from files and command-line
// assignments. Field names are the forms' json names in every format.
package formfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
)

// Format is a supported input encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported form file %q (use .yaml, .toml or .json)", path)
	}
}

// Decode reads path and overlays its values onto into, a pointer to a
// form. Fields absent from the file keep their current value.
func Decode(path string, into any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read form file: %w", err)
	}
	if err := DecodeBytes(data, format, into); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// DecodeBytes overlays data in the given format onto into. Values are
// normalized through JSON so only json tags matter, and unknown fields
// are rejected.
func DecodeBytes(data []byte, format Format, into any) error {
	var values map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("invalid YAML: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("invalid TOML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if len(values) == 0 {
		return nil
	}

	for k, v := range values {
		values[k] = normalize(v)
	}
	normalized, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to normalize form values: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(normalized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("invalid form values: %w", err)
	}
	return nil
}

// normalize turns the scalar types YAML and TOML produce for numbers and
// booleans into what a string-typed form field accepts. Booleans stay
// booleans so bool fields still decode.
func normalize(v any) any {
	switch t := v.(type) {
	case int, int64, uint64, float64:
		return fmt.Sprint(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			if _, isBool := e.(bool); isBool {
				out[i] = fmt.Sprint(e)
				continue
			}
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}

// Assign applies one "field=value" assignment to form, a pointer to a
// struct. Lists take comma-separated values; "field+=v" appends to a list
// and "field-=v" removes from it. Booleans accept strconv.ParseBool input,
// and an empty value clears the field.
func Assign(form any, assignment string) error {
	name, value, op, err := parseAssignment(assignment)
	if err != nil {
		return err
	}

	field, err := lookup(form, name)
	if err != nil {
		return err
	}

	switch field.Kind() {
	case reflect.String:
		if op != "=" {
			return fmt.Errorf("field %q is not a list (use %s=value)", name, name)
		}
		field.SetString(value)
	case reflect.Bool:
		if op != "=" {
			return fmt.Errorf("field %q is not a list (use %s=true|false)", name, name)
		}
		if value == "" {
			field.SetBool(false)
			return nil
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("field %q expects true or false, got %q", name, value)
		}
		field.SetBool(b)
	case reflect.Slice:
		current := make([]string, field.Len())
		for i := range current {
			current[i] = field.Index(i).String()
		}
		next := applyList(current, splitList(value), op)
		out := reflect.MakeSlice(field.Type(), len(next), len(next))
		for i, v := range next {
			out.Index(i).SetString(v)
		}
		if len(next) == 0 {
			out = reflect.Zero(field.Type())
		}
		field.Set(out)
	default:
		return fmt.Errorf("field %q has unsupported type %s", name, field.Type())
	}
	return nil
}

func parseAssignment(s string) (name, value, op string, err error) {
	eq := strings.Index(s, "=")
	if eq <= 0 {
		return "", "", "", fmt.Errorf("invalid assignment %q (expected field=value)", s)
	}
	name, value, op = s[:eq], strings.TrimSpace(s[eq+1:]), "="
	if strings.HasSuffix(name, "+") || strings.HasSuffix(name, "-") {
		op = name[len(name)-1:] + "="
		name = name[:len(name)-1]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", "", fmt.Errorf("invalid assignment %q (empty field name)", s)
	}
	return name, value, op, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return opbuilder.CleanList(strings.Split(value, ","))
}

func applyList(current, values []string, op string) []string {
	switch op {
	case "+=":
		return opbuilder.CleanList(append(current, values...))
	case "-=":
		drop := make(map[string]bool, len(values))
		for _, v := range values {
			drop[v] = true
		}
		var out []string
		for _, v := range current {
			if !drop[strings.TrimSpace(v)] {
				out = append(out, v)
			}
		}
		return out
	default:
		return values
	}
}

// lookup finds the settable field whose json name is name.
func lookup(form any, name string) (reflect.Value, error) {
	v := reflect.ValueOf(form)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("form must be a non-nil struct pointer, got %T", form)
	}
	v = v.Elem()

	for i := 0; i < v.NumField(); i++ {
		sf := v.Type().Field(i)
		if !sf.IsExported() {
			continue
		}
		if opbuilder.JSONName(sf) == name {
			f := v.Field(i)
			if f.Kind() == reflect.Slice && f.Type().Elem().Kind() != reflect.String {
				break
			}
			return f, nil
		}
	}
	return reflect.Value{}, fmt.Errorf("unknown field %q (known: %s)", name, strings.Join(Fields(form), ", "))
}

// Fields lists the assignable json field names of a form, sorted.
func Fields(form any) []string {
	t := reflect.TypeOf(form)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	var names []string
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		switch sf.Type.Kind() {
		case reflect.String, reflect.Bool, reflect.Slice:
		default:
			continue
		}
		if name := opbuilder.JSONName(sf); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
