// Package payloadDecoder decodes 32-byte hex words of call data and event topics
// against a parsed parameter tree.
//
// Decoding is best effort. Structural problems (missing words, bad array offsets or
// lengths) produce absent values for the affected part and never an error.
package payloadDecoder

import (
	"math/big"
	"strings"

	"github.com/Layr-Labs/actiontree/pkg/signatureParser"
)

const wordBytes = 32

// Decode decodes words against params.
//
// Parameters:
//   - params: the parsed parameter list of the resolved signature
//   - words: the hex words following the selector
//   - isEvent: events pad missing words with absent values; calls with too few words
//     decode to a single absent value
//
// Returns a list value with one entry per top-level parameter.
func Decode(params *signatureParser.TypeNode, words []string, isEvent bool) *ValueNode {
	if params == nil {
		return List(Absent())
	}
	if len(words) == 0 {
		return List()
	}

	children := params.Children
	if !params.IsTuple() {
		children = []*signatureParser.TypeNode{params}
	}

	slots := make([]*string, len(words), max(len(words), len(children)))
	for i := range words {
		w := normalizeWord(words[i])
		slots[i] = &w
	}

	if len(slots) < len(children) {
		if !isEvent {
			return List(Absent())
		}
		for len(slots) < len(children) {
			slots = append(slots, nil)
		}
	}

	return List(decodeTuple(children, slots, 0)...)
}

func normalizeWord(w string) string {
	return strings.TrimPrefix(strings.TrimPrefix(w, "0x"), "0X")
}

func wordAt(words []*string, pos int) *string {
	if pos < 0 || pos >= len(words) {
		return nil
	}
	return words[pos]
}

// decodeTuple decodes children whose heads start at start. A nested tuple reads its
// own children from its head position and shifts the following siblings by the
// extra head words it consumed.
func decodeTuple(children []*signatureParser.TypeNode, words []*string, start int) []*ValueNode {
	values := make([]*ValueNode, 0, len(children))
	p := 0
	for i, child := range children {
		pos := start + i + p
		values = append(values, decodeNode(child, words, pos))
		if child.IsTuple() && len(child.Children) > 0 {
			p += len(child.Children) - 1
		}
	}
	return values
}

func decodeNode(node *signatureParser.TypeNode, words []*string, pos int) *ValueNode {
	switch {
	case node.IsTuple():
		return List(decodeTuple(node.Children, words, pos)...)
	case node.IsDynamicArray():
		return decodeArray(node.Element, words, pos)
	}
	return DecodeScalar(node.Name, wordAt(words, pos))
}

// decodeArray follows the offset at pos. The offset is in bytes from the start of the
// whole word array; the word it points at is the element count.
func decodeArray(element *signatureParser.TypeNode, words []*string, pos int) *ValueNode {
	failed := List(Absent())

	offsetWord := wordAt(words, pos)
	if offsetWord == nil {
		return failed
	}
	offset, ok := parseWord(*offsetWord)
	if !ok {
		return failed
	}
	index := new(big.Int).Quo(offset, big.NewInt(wordBytes))
	if !index.IsInt64() || index.Int64() >= int64(len(words)) {
		return failed
	}
	idx := int(index.Int64())

	lengthWord := wordAt(words, idx)
	if lengthWord == nil {
		return failed
	}
	length, ok := parseWord(*lengthWord)
	if !ok || length.Sign() < 0 || !length.IsInt64() || int64(idx)+length.Int64() >= int64(len(words)) {
		return failed
	}

	n := int(length.Int64())
	items := make([]*ValueNode, 0, n)
	for j := 0; j < n; j++ {
		items = append(items, decodeNode(element, words, idx+1+j))
	}
	return List(items...)
}

func parseWord(word string) (*big.Int, bool) {
	if word == "" {
		return nil, false
	}
	return new(big.Int).SetString(word, 16)
}

// DecodeScalar interprets one word by type name: unsigned integers become numbers,
// addresses lose their leading zeros, anything else is passed through.
//
// The leading-zero strip does not re-pad to 20 bytes, so an address whose first
// nibble is zero comes out shorter than 42 characters.
func DecodeScalar(typeName string, word *string) *ValueNode {
	if word == nil {
		return Absent()
	}
	switch {
	case strings.Contains(typeName, "uint"):
		v, ok := parseWord(*word)
		if !ok {
			return StringValue(*word)
		}
		return IntValue(v)
	case strings.Contains(typeName, "address"):
		return StringValue("0x" + strings.TrimLeft(*word, "0"))
	}
	return StringValue(*word)
}
