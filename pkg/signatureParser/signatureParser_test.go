package signatureParser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func toJson(t *testing.T, n *TypeNode) string {
	data, err := json.Marshal(n)
	assert.Nil(t, err)
	return string(data)
}

func Test_SplitSignature(t *testing.T) {
	t.Run("Should split at the first parenthesis", func(t *testing.T) {
		name, params := SplitSignature("swap((address,uint256),bytes)")
		assert.Equal(t, "swap", name)
		assert.Equal(t, "((address,uint256),bytes)", params)
	})
	t.Run("Should treat text without parameters as a name", func(t *testing.T) {
		name, params := SplitSignature("0x12345678")
		assert.Equal(t, "0x12345678", name)
		assert.Equal(t, "", params)
	})
}

func Test_ParseParameters(t *testing.T) {
	t.Run("Should parse a flat list", func(t *testing.T) {
		node, ignored := ParseParameters("(address,uint256)")
		assert.False(t, ignored)
		assert.Equal(t, Tuple(Leaf("address"), Leaf("uint256")), node)
		assert.Equal(t, `["address","uint256"]`, toJson(t, node))
	})
	t.Run("Should ignore tuple arrays", func(t *testing.T) {
		node, ignored := ParseParameters("(address,(uint256)[])")
		assert.True(t, ignored)
		assert.Equal(t, Tuple(Leaf("address"), DynamicArray(Tuple(Leaf("uint256")))), node)
		assert.Equal(t, `["address",["[]","uint256"]]`, toJson(t, node))
	})
	t.Run("Should parse nested tuples and leaf arrays", func(t *testing.T) {
		node, ignored := ParseParameters("(address, (uint256,bytes32[]), uint8[])")
		assert.False(t, ignored)
		assert.Equal(t, Tuple(
			Leaf("address"),
			Tuple(Leaf("uint256"), DynamicArray(Leaf("bytes32"))),
			DynamicArray(Leaf("uint8")),
		), node)
		assert.Equal(t, `["address",["uint256","bytes32[]"],"uint8[]"]`, toJson(t, node))
		assert.Equal(t, "(address,(uint256,bytes32[]),uint8[])", node.String())
	})
	t.Run("Should strip one array level from leaves", func(t *testing.T) {
		node, _ := ParseParameters("(uint256[][])")
		assert.Equal(t, Tuple(DynamicArray(Leaf("uint256[]"))), node)
	})
	t.Run("Should parse an empty list", func(t *testing.T) {
		node, ignored := ParseParameters("()")
		assert.False(t, ignored)
		assert.Equal(t, Tuple(), node)
		assert.Equal(t, `[]`, toJson(t, node))
	})
	t.Run("Should wrap text that is not one tuple", func(t *testing.T) {
		node, _ := ParseParameters("address,uint256")
		assert.Equal(t, Tuple(Leaf("address"), Leaf("uint256")), node)

		node, _ = ParseParameters("(address)(uint256)")
		assert.Equal(t, Tuple(Tuple(Leaf("address")), Tuple(Leaf("uint256"))), node)
	})
	t.Run("Should tolerate unbalanced parentheses", func(t *testing.T) {
		node, _ := ParseParameters("(address))")
		assert.Equal(t, Tuple(Leaf("address")), node)

		node, _ = ParseParameters("(address,(uint256")
		assert.Equal(t, Tuple(Leaf("address"), Tuple(Leaf("uint256"))), node)
	})
	t.Run("Should not share state between calls", func(t *testing.T) {
		first, _ := ParseParameters("(address)")
		second, _ := ParseParameters("(uint256)")
		assert.Equal(t, Tuple(Leaf("address")), first)
		assert.Equal(t, Tuple(Leaf("uint256")), second)
	})
}

func Test_ParseSignature(t *testing.T) {
	t.Run("Should parse a full signature", func(t *testing.T) {
		sig := ParseSignature("transfer(address,uint256)")
		assert.Equal(t, "transfer", sig.Name)
		assert.Equal(t, Tuple(Leaf("address"), Leaf("uint256")), sig.Params)
		assert.False(t, sig.Ignored)
	})
	t.Run("Should leave unresolved selectors unparsed", func(t *testing.T) {
		sig := ParseSignature("0xdeadbeef")
		assert.Equal(t, "0xdeadbeef", sig.Name)
		assert.Nil(t, sig.Params)
		assert.Equal(t, "null", toJson(t, sig.Params))
	})
}

func Test_HeadWords(t *testing.T) {
	assert.Equal(t, 3, HeadWords(Tuple(Leaf("a"), Tuple(Leaf("b"), Leaf("c")), DynamicArray(Leaf("d")))))
	assert.Equal(t, 1, HeadWords(Leaf("uint256")))
	assert.Equal(t, 1, HeadWords(DynamicArray(Leaf("uint256"))))
	assert.Equal(t, 0, HeadWords(Tuple()))
}
