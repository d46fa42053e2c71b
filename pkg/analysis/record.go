package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedRecord is returned by [DecodeRecord] for records that are not
// JSON objects or whose fields have unusable types.
var ErrMalformedRecord = errors.New("malformed record")

// Import is one import declared by a module.
type Import struct {
	Module     string `json:"module"`
	ImportType string `json:"import_type,omitempty"`
}

// UnmarshalJSON accepts either an object or a bare module string.
func (i *Import) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &i.Module)
	}
	type plain Import
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*i = Import(p)
	return nil
}

// IDList is a list of entity ids. Elements may be strings or objects with
// an "id" (falling back to "name"); unusable elements are dropped.
type IDList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(IDList, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		if obj.ID != "" {
			out = append(out, obj.ID)
		} else if obj.Name != "" {
			out = append(out, obj.Name)
		}
	}
	*l = out
	return nil
}

// Record is one decoded entity record of any kind. Fields that do not apply
// to a kind are simply empty.
type Record struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Module relations.
	Imports   []Import `json:"imports,omitempty"`
	Classes   IDList   `json:"classes,omitempty"`
	Functions IDList   `json:"functions,omitempty"`

	// Class relations.
	Methods IDList `json:"methods,omitempty"`
	Fields  IDList `json:"fields,omitempty"`

	// Declared owners.
	ModuleID string `json:"module_id,omitempty"`
	ClassID  string `json:"class_id,omitempty"`

	Line int `json:"line_number,omitempty"`
}

// DecodeRecord decodes one raw entity record. Non-object records and
// records with mistyped fields yield an error wrapping ErrMalformedRecord.
func DecodeRecord(raw json.RawMessage) (Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Record{}, fmt.Errorf("%w: not an object", ErrMalformedRecord)
	}
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return r, nil
}

// Relationship is a typed edge listed outside the entity records.
type Relationship struct {
	From string `json:"from_entity"`
	To   string `json:"to_entity"`
	Type string `json:"relationship_type"`
}

// DecodeRelationship decodes one raw relationship record.
func DecodeRelationship(raw json.RawMessage) (Relationship, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Relationship{}, fmt.Errorf("%w: not an object", ErrMalformedRecord)
	}
	var r Relationship
	if err := json.Unmarshal(raw, &r); err != nil {
		return Relationship{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if r.From == "" || r.To == "" {
		return Relationship{}, fmt.Errorf("%w: relationship without endpoints", ErrMalformedRecord)
	}
	return r, nil
}
