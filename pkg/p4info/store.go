// Package p4info holds the P4Info schema pushed to the device and resolves
// symbolic entity names (tables, actions, match fields) to the numeric IDs
// assigned by the P4 compiler.
package p4info

import (
	"fmt"

	"google.golang.org/protobuf/encoding/prototext"

	p4_config_v1 "github.com/p4lang/p4runtime/go/p4/config/v1"
)

// EntityKind identifies which collection of the P4Info a name was resolved
// against.
type EntityKind int

const (
	EntityTable EntityKind = iota
	EntityAction
	EntityMatchField
)

func (k EntityKind) String() string {
	switch k {
	case EntityTable:
		return "table"
	case EntityAction:
		return "action"
	case EntityMatchField:
		return "match field"
	default:
		return "unknown entity"
	}
}

// ParseError indicates the P4Info document could not be decoded. No partial
// schema is usable after a parse failure.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot decode P4Info message: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NotFoundError indicates that a referenced entity name does not exist in the
// loaded schema.
type NotFoundError struct {
	Kind EntityKind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %v named %q in P4Info", e.Kind, e.Name)
}

// AmbiguousFieldError indicates that a match-field name is declared by more
// than one table with conflicting IDs or bitwidths, so resolving it by name
// alone has no single correct answer.
type AmbiguousFieldError struct {
	Name   string
	Tables []string
}

func (e *AmbiguousFieldError) Error() string {
	return fmt.Sprintf("match field %q is declared with conflicting definitions by tables %v", e.Name, e.Tables)
}

// MatchFieldInfo is the result of resolving a match-field name: the ID the
// device expects in FieldMatch messages and the declared width used to size
// the value and mask bytestrings.
type MatchFieldInfo struct {
	TableID  uint32
	FieldID  uint32
	Bitwidth int32
}

// Store is an immutable view over a parsed P4Info. It is loaded once per
// session and shared by everything that needs name resolution.
type Store struct {
	info *p4_config_v1.P4Info
}

// New wraps an already-parsed P4Info.
func New(info *p4_config_v1.P4Info) *Store {
	return &Store{info: info}
}

// Load parses a P4Info text document, as produced by the P4 compiler
// alongside the device config binary.
func Load(p4infoBytes []byte) (*Store, error) {
	info := &p4_config_v1.P4Info{}
	if err := prototext.Unmarshal(p4infoBytes, info); err != nil {
		return nil, &ParseError{Err: err}
	}
	return New(info), nil
}

// P4Info returns the underlying protobuf, for embedding in a forwarding
// pipeline config request.
func (s *Store) P4Info() *p4_config_v1.P4Info {
	return s.info
}

func (s *Store) TableID(name string) (uint32, error) {
	for _, table := range s.info.Tables {
		if table.Preamble.Name == name {
			return table.Preamble.Id, nil
		}
	}
	return 0, &NotFoundError{Kind: EntityTable, Name: name}
}

func (s *Store) ActionID(name string) (uint32, error) {
	for _, action := range s.info.Actions {
		if action.Preamble.Name == name {
			return action.Preamble.Id, nil
		}
	}
	return 0, &NotFoundError{Kind: EntityAction, Name: name}
}

// MatchField resolves a match-field name by scanning every table's field
// list. If two tables declare the same name with different IDs or bitwidths,
// the lookup fails with AmbiguousFieldError rather than picking the first
// declaration encountered.
func (s *Store) MatchField(name string) (MatchFieldInfo, error) {
	var found *MatchFieldInfo
	var tables []string
	for _, table := range s.info.Tables {
		for _, field := range table.MatchFields {
			if field.Name != name {
				continue
			}
			tables = append(tables, table.Preamble.Name)
			if found == nil {
				found = &MatchFieldInfo{
					TableID:  table.Preamble.Id,
					FieldID:  field.Id,
					Bitwidth: field.Bitwidth,
				}
			} else if found.FieldID != field.Id || found.Bitwidth != field.Bitwidth {
				return MatchFieldInfo{}, &AmbiguousFieldError{Name: name, Tables: tables}
			}
		}
	}
	if found == nil {
		return MatchFieldInfo{}, &NotFoundError{Kind: EntityMatchField, Name: name}
	}
	return *found, nil
}
