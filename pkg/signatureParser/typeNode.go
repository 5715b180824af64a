package signatureParser

import (
	"encoding/json"
	"strings"
)

type NodeKind int

const (
	NodeKind_Leaf NodeKind = iota
	NodeKind_Tuple
	NodeKind_DynamicArray
)

// TypeNode is one parameter type in a parsed signature.
//
// A leaf carries the type name, a tuple its ordered children and a dynamic array
// its element type.
type TypeNode struct {
	Kind     NodeKind
	Name     string
	Children []*TypeNode
	Element  *TypeNode
}

func Leaf(name string) *TypeNode {
	return &TypeNode{Kind: NodeKind_Leaf, Name: name}
}

func Tuple(children ...*TypeNode) *TypeNode {
	if children == nil {
		children = []*TypeNode{}
	}
	return &TypeNode{Kind: NodeKind_Tuple, Children: children}
}

func DynamicArray(element *TypeNode) *TypeNode {
	return &TypeNode{Kind: NodeKind_DynamicArray, Element: element}
}

func (n *TypeNode) IsLeaf() bool {
	return n != nil && n.Kind == NodeKind_Leaf
}

func (n *TypeNode) IsTuple() bool {
	return n != nil && n.Kind == NodeKind_Tuple
}

func (n *TypeNode) IsDynamicArray() bool {
	return n != nil && n.Kind == NodeKind_DynamicArray
}

// MarshalJSON renders the node in the nested list form used by the action tree output:
// a leaf is its name, a tuple a list of children, a leaf array "name[]" and a tuple
// array a list starting with "[]".
func (n *TypeNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJsonValue())
}

func (n *TypeNode) toJsonValue() interface{} {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case NodeKind_Tuple:
		return childrenToJson(n.Children)
	case NodeKind_DynamicArray:
		if n.Element.IsTuple() {
			return append([]interface{}{"[]"}, childrenToJson(n.Element.Children)...)
		}
		if n.Element.IsLeaf() {
			return n.Element.Name + "[]"
		}
		return []interface{}{"[]", n.Element.toJsonValue()}
	}
	return n.Name
}

func childrenToJson(children []*TypeNode) []interface{} {
	out := make([]interface{}, 0, len(children))
	for _, c := range children {
		out = append(out, c.toJsonValue())
	}
	return out
}

// String renders the node back into signature text.
func (n *TypeNode) String() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case NodeKind_Tuple:
		parts := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			parts = append(parts, c.String())
		}
		return "(" + strings.Join(parts, ",") + ")"
	case NodeKind_DynamicArray:
		return n.Element.String() + "[]"
	}
	return n.Name
}
