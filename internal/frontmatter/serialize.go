package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SerializeYAML renders Metadata as a YAML block (without delimiters).
//
// Recognised keys come first in a fixed order (title, weight, menu), followed
// by extra keys sorted by name, so output is stable across runs.
func SerializeYAML(meta Metadata, style Style) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		root.Content = append(root.Content, scalar("!!str", key), value)
	}

	if meta.Title != "" {
		add(KeyTitle, scalar("!!str", meta.Title))
	}
	if meta.Weight != 0 {
		add(KeyWeight, scalar("!!int", strconv.Itoa(meta.Weight)))
	}
	if menu := menuNode(meta); menu != nil {
		add(KeyMenu, menu)
	}

	keys := make([]string, 0, len(meta.Extra))
	for k := range meta.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var node yaml.Node
		if err := node.Encode(meta.Extra[k]); err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		add(k, &node)
	}

	if len(root.Content) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if style.Newline != "" && style.Newline != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(style.Newline))
	}
	return out, nil
}

// menuNode uses the short `menu: id` form when a single simple reference is
// present and the nested mapping form otherwise.
func menuNode(meta Metadata) *yaml.Node {
	switch {
	case len(meta.Menus) == 0:
		return nil
	case len(meta.Menus) == 1 && !meta.Menus[0].IsNamed() && meta.Menus[0].Weight == nil:
		return scalar("!!str", meta.Menus[0].Menu)
	}

	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, ref := range meta.Menus {
		opts := &yaml.Node{Kind: yaml.MappingNode}
		if ref.IsNamed() {
			opts.Content = append(opts.Content, scalar("!!str", "name"), scalar("!!str", ref.Name))
		}
		if ref.Weight != nil {
			opts.Content = append(opts.Content, scalar("!!str", "weight"), scalar("!!int", strconv.Itoa(*ref.Weight)))
		}
		if len(opts.Content) == 0 {
			opts = scalar("!!null", "null")
		}
		n.Content = append(n.Content, scalar("!!str", ref.Menu), opts)
	}
	return n
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
