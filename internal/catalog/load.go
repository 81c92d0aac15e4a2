package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// entry is one top-level key of a configuration file with its raw value,
// kept in file order.
type entry struct {
	key    string
	decode func(v any) error
}

// readEntries reads the top-level mapping of a JSON, YAML or TOML file in
// file order and validates the document against schema.
func readEntries(path string, schema documentSchema) ([]entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var entries []entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		entries, err = jsonEntries(data)
	case ".yaml", ".yml":
		entries, err = yamlEntries(data)
	case ".toml":
		entries, err = tomlEntries(data)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := schema.validate(entries); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return entries, nil
}

func jsonEntries(data []byte) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("top level must be an object")
	}

	var entries []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		entries = append(entries, entry{
			key:    key,
			decode: func(v any) error { return json.Unmarshal(raw, v) },
		})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return entries, nil
}

func yamlEntries(data []byte) ([]entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("top level must be a mapping")
	}

	entries := make([]entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		value := root.Content[i+1]
		entries = append(entries, entry{
			key:    root.Content[i].Value,
			decode: func(v any) error { return decodeYAMLNode(value, v) },
		})
	}
	return entries, nil
}

// decodeYAMLNode decodes a node. Untyped targets go through JSON so that
// nested mappings come out as map[string]any.
func decodeYAMLNode(n *yaml.Node, v any) error {
	if p, ok := v.(*any); ok {
		var tmp any
		if err := n.Decode(&tmp); err != nil {
			return err
		}
		return normalize(tmp, p)
	}
	return n.Decode(v)
}

func tomlEntries(data []byte) ([]entry, error) {
	var prims map[string]toml.Primitive
	md, err := toml.Decode(string(data), &prims)
	if err != nil {
		return nil, err
	}

	// md.Keys lists every key in file order; a top-level table may only show
	// up through its subtables, so order by first appearance of the head.
	var entries []entry
	seen := make(map[string]bool, len(prims))
	for _, key := range md.Keys() {
		if len(key) == 0 || seen[key[0]] {
			continue
		}
		seen[key[0]] = true
		prim, ok := prims[key[0]]
		if !ok {
			continue
		}
		entries = append(entries, entry{
			key: key[0],
			decode: func(v any) error {
				if p, ok := v.(*any); ok {
					var tmp any
					if err := md.PrimitiveDecode(prim, &tmp); err != nil {
						return err
					}
					return normalize(tmp, p)
				}
				return md.PrimitiveDecode(prim, v)
			},
		})
	}
	return entries, nil
}

// normalize round-trips v through JSON so it only holds JSON value types.
func normalize(v any, out *any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
