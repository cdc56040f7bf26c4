package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Machine control keys understood by the production document consumers.
const (
	KeyClassCode = "ClassCode"
	KeyBeanCode  = "BeanCode"
	KeyMilkCode  = "MilkCode"
	KeyCupCode   = "CupCode"
	KeyIceCode   = "IceCode"
	KeyShotCode  = "ShotCode"
)

// CodeEntry is one machine-control parameter. A document holds at most one
// entry per key.
type CodeEntry struct {
	Key   string
	Value string
}

// CodeDocument is the ordered production-code document the machine executes.
// It is deliberately a sequence of single-key pairs rather than a map: the
// machine wire format is an array of one-key objects, insertion order matters,
// and a key may legitimately be absent. The upsert methods keep the one-entry-
// per-key invariant.
type CodeDocument []CodeEntry

// TemplateError reports a stored production template that failed to parse.
type TemplateError struct {
	Reason string
	Err    error
}

func (e *TemplateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid production template: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid production template: %s", e.Reason)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// ParseTemplate parses a staff-entered template string into a document. An
// empty template is valid and yields an empty document. Duplicate keys in the
// stored template collapse to the first occurrence.
func ParseTemplate(template string) (CodeDocument, error) {
	if template == "" {
		return nil, nil
	}

	var raw []map[string]string
	decoder := json.NewDecoder(bytes.NewReader([]byte(template)))
	if err := decoder.Decode(&raw); err != nil {
		return nil, &TemplateError{Reason: "not a JSON array of objects", Err: err}
	}

	var doc CodeDocument
	for i, entry := range raw {
		if len(entry) != 1 {
			return nil, &TemplateError{Reason: fmt.Sprintf("entry %d must hold exactly one key", i)}
		}
		for key, value := range entry {
			if _, exists := doc.Get(key); !exists {
				doc = append(doc, CodeEntry{Key: key, Value: value})
			}
		}
	}
	return doc, nil
}

// Get returns the value for a key and whether it is present.
func (d CodeDocument) Get(key string) (string, bool) {
	for _, entry := range d {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return "", false
}

// Upsert replaces the value of an existing key in place, preserving its
// position, or appends a new entry at the end.
func (d CodeDocument) Upsert(key, value string) CodeDocument {
	for i, entry := range d {
		if entry.Key == key {
			d[i].Value = value
			return d
		}
	}
	return append(d, CodeEntry{Key: key, Value: value})
}

// UpsertFront replaces the value of an existing key in place, or inserts a new
// entry at the front. The class code is a primary field and leads the document
// when first introduced.
func (d CodeDocument) UpsertFront(key, value string) CodeDocument {
	for i, entry := range d {
		if entry.Key == key {
			d[i].Value = value
			return d
		}
	}
	return append(CodeDocument{{Key: key, Value: value}}, d...)
}

// Clone returns an independent copy so that templates are never mutated.
func (d CodeDocument) Clone() CodeDocument {
	if d == nil {
		return nil
	}
	out := make(CodeDocument, len(d))
	copy(out, d)
	return out
}

// MarshalJSON encodes the document in the machine wire shape: an ordered JSON
// array of single-key objects. Consumers must not collapse it into one map.
func (d CodeDocument) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, entry := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the machine wire shape back into a document.
func (d *CodeDocument) UnmarshalJSON(data []byte) error {
	doc, err := ParseTemplate(string(data))
	if err != nil {
		return err
	}
	*d = doc
	return nil
}
