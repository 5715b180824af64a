package actionTree

import (
	"strconv"
)

// Document is the persisted action tree of one transaction. The root call's fields
// are flattened into it.
type Document struct {
	TransactionHash string          `json:"transaction_hash"`
	Type            ActionKind      `json:"type"`
	Action          string          `json:"action"`
	Ignored         bool            `json:"ignored"`
	Parameters      interface{}     `json:"parameters"`
	Values          interface{}     `json:"values"`
	ValuesRaw       []string        `json:"values_raw"`
	Sender          string          `json:"sender"`
	Receiver        *string         `json:"receiver"`
	Hex             string          `json:"hex"`
	Nodes           []*DocumentNode `json:"nodes"`
}

type DocumentNode struct {
	Id         string          `json:"id"`
	Type       ActionKind      `json:"type"`
	CallType   string          `json:"call_type,omitempty"`
	LogIndex   *uint64         `json:"log_index,omitempty"`
	Action     string          `json:"action"`
	Ignored    bool            `json:"ignored"`
	Parameters interface{}     `json:"parameters"`
	Values     interface{}     `json:"values"`
	ValuesRaw  []string        `json:"values_raw"`
	Sender     string          `json:"sender"`
	Receiver   *string         `json:"receiver"`
	Hex        string          `json:"hex"`
	Nodes      []*DocumentNode `json:"nodes"`
}

// parametersValue renders an unparsed parameter list as [null].
func parametersValue(node *ActionNode) interface{} {
	if node.Params == nil {
		return []interface{}{nil}
	}
	return node.Params
}

func valuesValue(node *ActionNode) interface{} {
	if node.Values == nil {
		return []interface{}{}
	}
	return node.Values
}

func rawWords(words []string) []string {
	if words == nil {
		return []string{}
	}
	return words
}

func NewDocument(transactionHash string, root *ActionNode) *Document {
	return &Document{
		TransactionHash: transactionHash,
		Type:            root.Kind,
		Action:          root.Name,
		Ignored:         root.Ignored,
		Parameters:      parametersValue(root),
		Values:          valuesValue(root),
		ValuesRaw:       rawWords(root.RawWords),
		Sender:          root.Sender,
		Receiver:        root.Receiver,
		Hex:             root.Selector,
		Nodes:           newDocumentNodes(root.Children),
	}
}

func newDocumentNodes(children []*ActionNode) []*DocumentNode {
	nodes := make([]*DocumentNode, 0, len(children))
	for _, child := range children {
		nodes = append(nodes, &DocumentNode{
			Id:         child.Id,
			Type:       child.Kind,
			CallType:   string(child.CallKind),
			LogIndex:   child.LogIndex,
			Action:     child.Name,
			Ignored:    child.Ignored,
			Parameters: parametersValue(child),
			Values:     valuesValue(child),
			ValuesRaw:  rawWords(child.RawWords),
			Sender:     child.Sender,
			Receiver:   child.Receiver,
			Hex:        child.Selector,
			Nodes:      newDocumentNodes(child.Children),
		})
	}
	return nodes
}

// ToActionTree rebuilds the node structure of a loaded document. Parameters and
// values are not decoded back.
func (d *Document) ToActionTree() *ActionNode {
	return &ActionNode{
		Id:       "",
		Kind:     d.Type,
		Name:     d.Action,
		Ignored:  d.Ignored,
		RawWords: rawWords(d.ValuesRaw),
		Sender:   d.Sender,
		Receiver: d.Receiver,
		Selector: d.Hex,
		Children: documentNodesToActions(d.Nodes),
	}
}

func documentNodesToActions(nodes []*DocumentNode) []*ActionNode {
	actions := make([]*ActionNode, 0, len(nodes))
	for _, n := range nodes {
		action := &ActionNode{
			Id:       n.Id,
			Kind:     n.Type,
			Name:     n.Action,
			Ignored:  n.Ignored,
			RawWords: rawWords(n.ValuesRaw),
			Sender:   n.Sender,
			Receiver: n.Receiver,
			Selector: n.Hex,
			LogIndex: n.LogIndex,
			Children: documentNodesToActions(n.Nodes),
		}
		if n.Type == ActionKind_Event && action.LogIndex == nil {
			if li, err := strconv.ParseUint(n.Id, 10, 64); err == nil {
				action.LogIndex = &li
			}
		}
		actions = append(actions, action)
	}
	return actions
}
