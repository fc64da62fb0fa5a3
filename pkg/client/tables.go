package client

import (
	"context"
	"fmt"

	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"

	"github.com/sparknet/synwatch/pkg/util/conversion"
)

type MatchInterface interface {
	get(ID uint32, canonical bool) *p4_v1.FieldMatch
}

type ExactMatch struct {
	Value []byte
}

func (m *ExactMatch) get(ID uint32, canonical bool) *p4_v1.FieldMatch {
	value := m.Value
	if canonical {
		value = conversion.ToCanonicalBytestring(value)
	}
	exact := &p4_v1.FieldMatch_Exact{
		Value: value,
	}
	return &p4_v1.FieldMatch{
		FieldId:        ID,
		FieldMatchType: &p4_v1.FieldMatch_Exact_{Exact: exact},
	}
}

type TernaryMatch struct {
	Value []byte
	Mask  []byte
}

func (m *TernaryMatch) get(ID uint32, canonical bool) *p4_v1.FieldMatch {
	ternary := &p4_v1.FieldMatch_Ternary{
		Value: m.Value,
		Mask:  m.Mask,
	}
	return &p4_v1.FieldMatch{
		FieldId:        ID,
		FieldMatchType: &p4_v1.FieldMatch_Ternary_{Ternary: ternary},
	}
}

// NewTernaryMatchField resolves the named match field and packs value and
// mask into fixed-width big-endian bytestrings of ceil(bitwidth/8) bytes
// each. A set mask bit requires the corresponding packet bit to equal the
// value bit; clear mask bits are wildcards. Ternary values are not
// canonicalized: the device expects value and mask lengths to agree with the
// declared field width.
func (c *Client) NewTernaryMatchField(field string, value uint64, mask uint64) (*p4_v1.FieldMatch, error) {
	if c.store == nil {
		return nil, fmt.Errorf("no pipeline config set, cannot resolve %q", field)
	}
	mf, err := c.store.MatchField(field)
	if err != nil {
		return nil, err
	}
	numBytes := int(mf.Bitwidth+7) / 8
	valueBytes, err := conversion.UInt64ToBinary(value, numBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot encode value for field %q: %w", field, err)
	}
	maskBytes, err := conversion.UInt64ToBinary(mask, numBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot encode mask for field %q: %w", field, err)
	}
	m := &TernaryMatch{Value: valueBytes, Mask: maskBytes}
	return m.get(mf.FieldID, false), nil
}

// NewTableActionDirect resolves the named action and wraps it with its
// parameters as a direct table action.
func (c *Client) NewTableActionDirect(action string, params [][]byte) (*p4_v1.TableAction, error) {
	if c.store == nil {
		return nil, fmt.Errorf("no pipeline config set, cannot resolve %q", action)
	}
	actionID, err := c.store.ActionID(action)
	if err != nil {
		return nil, err
	}
	directAction := &p4_v1.Action{
		ActionId: actionID,
	}
	for idx, p := range params {
		directAction.Params = append(directAction.Params, &p4_v1.Action_Param{
			ParamId: uint32(idx + 1),
			Value:   p,
		})
	}
	return &p4_v1.TableAction{
		Type: &p4_v1.TableAction_Action{Action: directAction},
	}, nil
}

// NewTableEntry builds a table entry for the named table. A nil mfs slice
// produces a wildcard entry matching every packet, to be disambiguated from
// overlapping entries by priority alone.
func (c *Client) NewTableEntry(
	table string,
	mfs []*p4_v1.FieldMatch,
	action *p4_v1.TableAction,
	priority int32,
) (*p4_v1.TableEntry, error) {
	if c.store == nil {
		return nil, fmt.Errorf("no pipeline config set, cannot resolve %q", table)
	}
	tableID, err := c.store.TableID(table)
	if err != nil {
		return nil, err
	}
	return &p4_v1.TableEntry{
		TableId:  tableID,
		Match:    mfs,
		Action:   action,
		Priority: priority,
	}, nil
}

// InsertTableEntry wraps the entry in a single INSERT update and writes it.
// Inserting an entry the device already holds fails with a *WriteError
// carrying an ALREADY_EXISTS classification; the caller decides what to do
// with it.
func (c *Client) InsertTableEntry(ctx context.Context, entry *p4_v1.TableEntry) error {
	update := &p4_v1.Update{
		Type: p4_v1.Update_INSERT,
		Entity: &p4_v1.Entity{
			Entity: &p4_v1.Entity_TableEntry{TableEntry: entry},
		},
	}
	return c.WriteUpdate(ctx, update)
}
