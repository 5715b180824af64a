package payloadDecoder

import (
	"encoding/json"
	"math/big"
)

// ValueNode mirrors the shape of a signatureParser.TypeNode with decoded values.
// A scalar with neither Int nor Str set is absent and renders as null.
type ValueNode struct {
	IsList bool
	Items  []*ValueNode
	Int    *big.Int
	Str    *string
}

func Absent() *ValueNode {
	return &ValueNode{}
}

func IntValue(v *big.Int) *ValueNode {
	return &ValueNode{Int: v}
}

func StringValue(s string) *ValueNode {
	return &ValueNode{Str: &s}
}

func List(items ...*ValueNode) *ValueNode {
	if items == nil {
		items = []*ValueNode{}
	}
	return &ValueNode{IsList: true, Items: items}
}

func (v *ValueNode) IsAbsent() bool {
	return v == nil || (!v.IsList && v.Int == nil && v.Str == nil)
}

// MarshalJSON writes integers as JSON numbers of arbitrary precision.
func (v *ValueNode) MarshalJSON() ([]byte, error) {
	switch {
	case v == nil:
		return []byte("null"), nil
	case v.IsList:
		return json.Marshal(v.Items)
	case v.Int != nil:
		return []byte(v.Int.String()), nil
	case v.Str != nil:
		return json.Marshal(*v.Str)
	}
	return []byte("null"), nil
}
