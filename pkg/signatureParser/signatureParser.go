// Package signatureParser turns textual function and event signatures such as
// "transfer(address,uint256)" into a tree of parameter types.
package signatureParser

import (
	"strings"
)

const tupleArrayMarker = ")[]"

// Signature is a parsed text signature. Params is nil when the text carries no
// parameter list, which is how unresolved selectors look.
type Signature struct {
	Name    string
	Params  *TypeNode
	Ignored bool
}

// SplitSignature splits at the first "(". Text without one is all name.
func SplitSignature(text string) (string, string) {
	idx := strings.Index(text, "(")
	if idx < 0 {
		return text, ""
	}
	return text[:idx], text[idx:]
}

// ParseSignature splits and parses a full signature.
func ParseSignature(text string) *Signature {
	name, params := SplitSignature(text)
	if params == "" {
		return &Signature{Name: name}
	}
	node, ignored := ParseParameters(params)
	return &Signature{
		Name:    name,
		Params:  node,
		Ignored: ignored,
	}
}

// ParseParameters parses a parenthesized parameter list in a single pass.
//
// Tuple arrays are recognised but their values cannot be decoded reliably, so any
// list containing one is reported as ignored.
func ParseParameters(params string) (*TypeNode, bool) {
	ignored := strings.Contains(params, tupleArrayMarker)

	stack := [][]*TypeNode{{}}
	var token strings.Builder

	flush := func() {
		text := strings.TrimSpace(token.String())
		token.Reset()
		if text == "" {
			return
		}
		top := len(stack) - 1
		stack[top] = append(stack[top], leafFromToken(text))
	}

	for i := 0; i < len(params); i++ {
		switch c := params[i]; c {
		case '(':
			flush()
			stack = append(stack, []*TypeNode{})
		case ')':
			flush()
			if len(stack) == 1 {
				continue
			}
			node := Tuple(stack[len(stack)-1]...)
			stack = stack[:len(stack)-1]
			if strings.HasPrefix(params[i+1:], "[]") {
				node = DynamicArray(node)
				i += 2
			}
			top := len(stack) - 1
			stack[top] = append(stack[top], node)
		case ',':
			flush()
		default:
			token.WriteByte(c)
		}
	}
	flush()

	// unclosed tuples fold into their parents
	for len(stack) > 1 {
		node := Tuple(stack[len(stack)-1]...)
		stack = stack[:len(stack)-1]
		top := len(stack) - 1
		stack[top] = append(stack[top], node)
	}

	topLevel := stack[0]
	if len(topLevel) == 1 && topLevel[0].IsTuple() {
		return topLevel[0], ignored
	}
	return Tuple(topLevel...), ignored
}

func leafFromToken(text string) *TypeNode {
	if strings.HasSuffix(text, "[]") {
		return DynamicArray(Leaf(strings.TrimSuffix(text, "[]")))
	}
	return Leaf(text)
}

// HeadWords is the number of head words a node occupies in call data: one per direct
// child for a tuple, one otherwise.
func HeadWords(node *TypeNode) int {
	if node.IsTuple() {
		return len(node.Children)
	}
	return 1
}
