package config

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	strTag   = "!!str"
	intTag   = "!!int"
	floatTag = "!!float"
	boolTag  = "!!bool"
	nullTag  = "!!null"
)

// parseDocument returns the top-level mapping of a YAML document, or nil
// when the document is empty.
func parseDocument(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind == yaml.ScalarNode && root.ShortTag() == nullTag {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping, got %s", ErrSyntax, describe(root))
	}

	return root, nil
}

// parseOverrideValue reads a command-line value the way a YAML file would
// spell it. Text that is not valid YAML is taken as a plain string.
func parseOverrideValue(raw string) *yaml.Node {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil || len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: strTag, Value: raw}
	}
	return doc.Content[0]
}

func mergeMapping(dst reflect.Value, n *yaml.Node, prefix string) error {
	n = resolveAlias(n)
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: %s: expected a mapping, got %s", ErrTypeMismatch, prefix, describe(n))
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		path := joinPath(prefix, key.Value)

		field, ok := fieldByKey(dst, key.Value)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownKey, path)
		}

		if err := assign(field, val, path); err != nil {
			return err
		}
	}

	return nil
}

// assign overwrites field with n. A leaf is either fully replaced or left
// untouched.
func assign(field reflect.Value, n *yaml.Node, path string) error {
	n = resolveAlias(n)

	if field.Kind() == reflect.Struct {
		return mergeMapping(field, n, path)
	}

	if err := checkKind(field.Type(), n); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTypeMismatch, path, err)
	}

	tmp := reflect.New(field.Type())
	if err := n.Decode(tmp.Interface()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTypeMismatch, path, err)
	}
	field.Set(tmp.Elem())

	if DebugLog != nil {
		DebugLog("override %s = %v", path, tmp.Elem().Interface())
	}

	return nil
}

// checkKind compares the resolved YAML tag of n against the Go type of the
// schema default. Integers are accepted for float fields.
func checkKind(t reflect.Type, n *yaml.Node) error {
	if t.Kind() == reflect.Slice {
		if n.Kind != yaml.SequenceNode {
			return fmt.Errorf("expected a list, got %s", describe(n))
		}
		for _, item := range n.Content {
			if err := checkKind(t.Elem(), resolveAlias(item)); err != nil {
				return err
			}
		}
		return nil
	}

	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected %s, got %s", t.Kind(), describe(n))
	}

	tag := n.ShortTag()
	var ok bool
	switch t.Kind() {
	case reflect.String:
		ok = tag == strTag
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		ok = tag == intTag
	case reflect.Float32, reflect.Float64:
		ok = tag == floatTag || tag == intTag
	case reflect.Bool:
		ok = tag == boolTag
	}

	if !ok {
		return fmt.Errorf("expected %s, got %s", t.Kind(), describe(n))
	}
	return nil
}

func setPath(root reflect.Value, path string, n *yaml.Node) error {
	field, err := lookup(root, path)
	if err != nil {
		return err
	}
	return assign(field, n, path)
}

func lookup(root reflect.Value, path string) (reflect.Value, error) {
	cur := root
	for _, part := range strings.Split(path, ".") {
		if cur.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, path)
		}
		field, ok := fieldByKey(cur, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, path)
		}
		cur = field
	}
	return cur, nil
}

func fieldByKey(v reflect.Value, key string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if yamlKey(t.Field(i)) == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func yamlKey(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

func leafKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := joinPath(prefix, yamlKey(f))
		if f.Type.Kind() == reflect.Struct {
			keys = append(keys, leafKeys(f.Type, path)...)
			continue
		}
		keys = append(keys, path)
	}
	return keys
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		return fmt.Sprintf("%s %q", n.ShortTag(), n.Value)
	default:
		return "an unsupported node"
	}
}
