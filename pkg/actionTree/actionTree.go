// Package actionTree turns the merged action list of a transaction into a tree rooted
// at the entry call, and renders it for output.
package actionTree

import (
	"github.com/Layr-Labs/actiontree/pkg/traceRecords"
	"github.com/pkg/errors"
)

var ErrNoRootNode = errors.New("no root call with an empty path id")

// Build attaches every node of actions to its parent and returns the root.
//
// A function node's parent is the node whose id is its own id without the last
// segment; when that node does not exist the nearest existing ancestor is used, and
// the root when there is none. An event belongs to the function node placed right
// before it in actions.
func Build(actions []*ActionNode) (*ActionNode, error) {
	var root *ActionNode
	functions := make(map[string]*ActionNode)
	for _, node := range actions {
		if !node.IsFunction() {
			continue
		}
		if _, exists := functions[node.Id]; exists {
			continue
		}
		functions[node.Id] = node
		if node.Id == "" {
			root = node
		}
	}
	if root == nil {
		return nil, ErrNoRootNode
	}

	root.Children = []*ActionNode{}
	for _, node := range actions {
		if node != root {
			node.Children = []*ActionNode{}
		}
	}

	current := root
	for _, node := range actions {
		if node == root {
			current = root
			continue
		}
		if node.IsEvent() {
			current.Children = append(current.Children, node)
			continue
		}
		parent := findParent(functions, node, root)
		parent.Children = append(parent.Children, node)
		current = node
	}
	return root, nil
}

func findParent(functions map[string]*ActionNode, node *ActionNode, root *ActionNode) *ActionNode {
	id, ok := traceRecords.ParentPathId(node.Id)
	for ok {
		if parent, found := functions[id]; found && parent != node {
			return parent
		}
		id, ok = traceRecords.ParentPathId(id)
	}
	return root
}

// TraversalContext describes where a node sits in a preorder walk.
type TraversalContext struct {
	// Index is the node's position in preorder, starting at 0 for the root.
	Index  int
	Depth  int
	Parent *ActionNode
}

type Visitor func(node *ActionNode, tc TraversalContext) error

// Walk visits root and its descendants in preorder. A visitor error stops the walk
// and is returned.
func Walk(root *ActionNode, visit Visitor) error {
	if root == nil {
		return nil
	}
	index := 0
	var walk func(node *ActionNode, depth int, parent *ActionNode) error
	walk = func(node *ActionNode, depth int, parent *ActionNode) error {
		tc := TraversalContext{Index: index, Depth: depth, Parent: parent}
		index++
		if err := visit(node, tc); err != nil {
			return err
		}
		for _, child := range node.Children {
			if err := walk(child, depth+1, node); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root, 0, nil)
}

// RawWordLengths returns the number of raw words of every node in preorder.
func RawWordLengths(root *ActionNode) []int {
	lengths := make([]int, 0)
	_ = Walk(root, func(node *ActionNode, _ TraversalContext) error {
		lengths = append(lengths, len(node.RawWords))
		return nil
	})
	return lengths
}
