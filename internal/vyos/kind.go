package vyos

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
)

// Key identifies one entity within its category, e.g.
// {"interface": "eth2"} or {"name": "PL-IN", "rule": "10"}.
type Key map[string]string

// String renders the key sorted by field name, e.g. "name=PL-IN rule=10".
func (k Key) String() string {
	names := make([]string, 0, len(k))
	for name := range k {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+k[name])
	}
	return strings.Join(parts, " ")
}

// KeyField describes one identifying field of a category.
type KeyField struct {
	Name    string
	Numeric bool
	Help    string
}

// Info is the type-independent description of a category.
type Info struct {
	Name         string
	Title        string
	Path         string
	Keys         []KeyField
	DeleteOp     string
	ListKey      string
	RuleKey      string
	Capabilities bool
	DocURL       string
	Fields       []opbuilder.FieldSpec
	Choices      []opbuilder.Choice
}

// Reorderable reports whether the category is a rule-numbered collection.
func (i Info) Reorderable() bool {
	return i.ListKey != "" && i.RuleKey != ""
}

// Deletable reports whether entities of this category can be removed.
func (i Info) Deletable() bool {
	return i.DeleteOp != ""
}

// Kind binds a device entity type E to its flat form F.
type Kind[E, F any] struct {
	Name  string
	Title string
	// Path is the API prefix, e.g. "/vyos/ethernet".
	Path string
	// Collection names the JSON field of the config response holding the
	// entity list. A bare JSON array is also accepted.
	Collection string
	Keys       []KeyField
	Spec       *opbuilder.Spec
	DeleteOp   string

	// ListKey and RuleKey are set for rule-numbered collections.
	ListKey string
	RuleKey string

	// Capabilities is false for categories without a capabilities endpoint;
	// their gated fields are never emitted.
	Capabilities bool
	DocURL       string

	KeyOf      func(e *E) Key
	Initialize func(e *E) F

	// BindKey, when set, copies key fields the form needs for validation.
	BindKey func(f *F, key Key)
}

// Info returns the type-independent description.
func (k *Kind[E, F]) Info() Info {
	return Info{
		Name:         k.Name,
		Title:        k.Title,
		Path:         k.Path,
		Keys:         k.Keys,
		DeleteOp:     k.DeleteOp,
		ListKey:      k.ListKey,
		RuleKey:      k.RuleKey,
		Capabilities: k.Capabilities,
		DocURL:       k.DocURL,
		Fields:       k.Spec.Fields,
		Choices:      k.Spec.Choices,
	}
}

// NewForm initializes the form for e (nil for create) under key.
func (k *Kind[E, F]) NewForm(e *E, key Key) F {
	f := k.Initialize(e)
	if k.BindKey != nil {
		k.BindKey(&f, key)
	}
	return f
}

// Decode parses a config response into entities.
func (k *Kind[E, F]) Decode(raw json.RawMessage) ([]E, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var items []E
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode %s config: %w", k.Name, err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", k.Name, err)
	}
	// Some endpoints wrap the payload in {"data": {...}}.
	if data, ok := envelope["data"]; ok {
		if _, direct := envelope[k.Collection]; !direct {
			return k.Decode(data)
		}
	}
	list, ok := envelope[k.Collection]
	if !ok {
		return nil, nil
	}
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", k.Name, k.Collection, err)
	}
	return items, nil
}

// Find returns the entity matching key, or nil.
func (k *Kind[E, F]) Find(items []E, key Key) *E {
	for i := range items {
		if k.matches(&items[i], key) {
			return &items[i]
		}
	}
	return nil
}

func (k *Kind[E, F]) matches(e *E, key Key) bool {
	got := k.KeyOf(e)
	for _, f := range k.Keys {
		if normalizeKey(f, got[f.Name]) != normalizeKey(f, key[f.Name]) {
			return false
		}
	}
	return true
}

func normalizeKey(f KeyField, v string) string {
	v = strings.TrimSpace(v)
	if f.Numeric {
		if n, err := strconv.Atoi(v); err == nil {
			return strconv.Itoa(n)
		}
	}
	return v
}

// ParseKey builds a key from "name=value" pairs and checks that every key
// field is present and numeric fields are integers.
func ParseKey(fields []KeyField, pairs []string) (Key, error) {
	key := Key{}
	known := map[string]KeyField{}
	for _, f := range fields {
		known[f.Name] = f
	}

	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid key %q (expected name=value)", pair)
		}
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("unknown key field %q (expected %s)", name, keyNames(fields))
		}
		key[name] = value
	}

	for _, f := range fields {
		v, ok := key[f.Name]
		if !ok || v == "" {
			return nil, fmt.Errorf("missing key field %q", f.Name)
		}
		if f.Numeric {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("key field %q must be a positive integer, got %q", f.Name, v)
			}
		}
	}
	return key, nil
}

func keyNames(fields []KeyField) string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return strings.Join(names, ", ")
}

// BatchKeys converts key into the identifying fields of a batch body.
// Numeric fields are sent as JSON numbers.
func (k *Kind[E, F]) BatchKeys(key Key) (map[string]any, error) {
	out := make(map[string]any, len(k.Keys))
	for _, f := range k.Keys {
		v, ok := key[f.Name]
		if !ok {
			return nil, fmt.Errorf("missing key field %q", f.Name)
		}
		if f.Numeric {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("key field %q: %w", f.Name, err)
			}
			out[f.Name] = n
			continue
		}
		out[f.Name] = v
	}
	return out, nil
}

// Rules returns the rules of one list of a rule-numbered collection, with
// each rule's full entity as its data.
func (k *Kind[E, F]) Rules(items []E, list string) ([]opbuilder.Rule[json.RawMessage], error) {
	if k.ListKey == "" || k.RuleKey == "" {
		return nil, fmt.Errorf("%s is not a rule-numbered collection", k.Name)
	}

	var rules []opbuilder.Rule[json.RawMessage]
	for i := range items {
		key := k.KeyOf(&items[i])
		if key[k.ListKey] != list {
			continue
		}
		n, err := strconv.Atoi(key[k.RuleKey])
		if err != nil {
			return nil, fmt.Errorf("%s %s: invalid rule number %q", k.Name, list, key[k.RuleKey])
		}
		data, err := json.Marshal(items[i])
		if err != nil {
			return nil, fmt.Errorf("encode rule %d: %w", n, err)
		}
		rules = append(rules, opbuilder.Rule[json.RawMessage]{Number: n, Data: data})
	}
	return rules, nil
}
