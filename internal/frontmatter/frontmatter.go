// Package frontmatter extracts, parses, and serializes the YAML metadata
// block prepended to rendered Markdown.
//
// A file's front matter is either a single mapping (separate-files mode) or
// a sequence of mappings (single-file mode, one entry per synced article).
// Records preserve key insertion order through yaml.Node marshaling so that
// repeated renders of unchanged input produce byte-identical output.
package frontmatter

import (
	"fmt"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	blockRe = regexp.MustCompile(`(?s)^---\n(.*?)\n---`)
	stripRe = regexp.MustCompile(`(?s)^---.*?---\n*`)
)

// Record is an insertion-ordered front matter mapping.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set stores a value, appending the key on first use and keeping its
// position on overwrite.
func (r *Record) Set(key string, v any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value for key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys.
func (r *Record) Len() int { return len(r.keys) }

// ID returns the record's id field rendered as a string, or "" when absent.
func (r *Record) ID() string {
	v, ok := r.values["id"]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// MarshalYAML emits the record as a mapping node in key insertion order.
func (r *Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range r.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valNode := &yaml.Node{}
		if err := valNode.Encode(r.values[k]); err != nil {
			return nil, fmt.Errorf("frontmatter: encode %q: %w", k, err)
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// UnmarshalYAML fills the record from a mapping node, preserving key order.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("frontmatter: expected a mapping, got %s", kindName(node.Kind))
	}
	if r.values == nil {
		r.values = make(map[string]any)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		v, err := decodeValue(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("frontmatter: decode %q: %w", key, err)
		}
		r.Set(key, v)
	}
	return nil
}

// decodeValue decodes a value node, keeping date-like scalars as their
// raw strings. Letting the YAML library turn them into time.Time would
// reformat them on the next serialize and break byte-stable round trips.
func decodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!timestamp" {
			return node.Value, nil
		}
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		if _, isTime := v.(time.Time); isTime {
			return node.Value, nil
		}
		return v, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		rec := NewRecord()
		if err := rec.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return rec, nil
	case yaml.AliasNode:
		return decodeValue(node.Alias)
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Value is front matter as a tagged variant: a single mapping or an
// ordered sequence of mappings.
type Value struct {
	Records  []*Record
	Sequence bool
}

// Single wraps one record as single-mapping front matter.
func Single(rec *Record) *Value {
	return &Value{Records: []*Record{rec}}
}

// SequenceOf wraps records as sequence front matter.
func SequenceOf(recs ...*Record) *Value {
	return &Value{Records: recs, Sequence: true}
}

// Serialize renders v as a front matter block: "---\n<yaml>---".
func Serialize(v *Value) (string, error) {
	var (
		data []byte
		err  error
	)
	if v.Sequence {
		data, err = yaml.Marshal(v.Records)
	} else {
		if len(v.Records) == 0 {
			return "", fmt.Errorf("frontmatter: empty value")
		}
		data, err = yaml.Marshal(v.Records[0])
	}
	if err != nil {
		return "", fmt.Errorf("frontmatter: marshal: %w", err)
	}
	return "---\n" + string(data) + "---", nil
}

// Extract detects a leading front matter block, parses it, and returns the
// parsed value alongside the document with the block removed. A document
// without front matter returns (nil, content, nil). Malformed YAML inside
// an existing block is an error.
func Extract(content string) (*Value, string, error) {
	m := blockRe.FindStringSubmatch(content)
	if m == nil {
		return nil, content, nil
	}
	remainder := stripRe.ReplaceAllString(content, "")

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(m[1]), &doc); err != nil {
		return nil, remainder, fmt.Errorf("frontmatter: parse: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, remainder, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		rec := NewRecord()
		if err := root.Decode(rec); err != nil {
			return nil, remainder, err
		}
		return Single(rec), remainder, nil
	case yaml.SequenceNode:
		v := &Value{Sequence: true}
		for _, item := range root.Content {
			rec := NewRecord()
			if err := item.Decode(rec); err != nil {
				return nil, remainder, err
			}
			v.Records = append(v.Records, rec)
		}
		return v, remainder, nil
	default:
		return nil, remainder, fmt.Errorf("frontmatter: unsupported front matter shape (%s)", kindName(root.Kind))
	}
}

// FindIndex returns the index of the record whose id equals id, or -1.
func FindIndex(records []*Record, id string) int {
	for i, rec := range records {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
