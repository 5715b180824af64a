package actionTree

import (
	"github.com/Layr-Labs/actiontree/pkg/payloadDecoder"
	"github.com/Layr-Labs/actiontree/pkg/signatureParser"
	"github.com/Layr-Labs/actiontree/pkg/traceRecords"
)

type ActionKind string

const (
	ActionKind_Function ActionKind = "function"
	ActionKind_Event    ActionKind = "event"
)

// ActionNode is one decoded call or event.
//
// Function ids are path ids with "" for the entry call. Event ids are the decimal log
// index and are never used to find a parent.
type ActionNode struct {
	Id       string
	Kind     ActionKind
	CallKind traceRecords.CallKind
	Name     string
	Ignored  bool
	// Params is nil when the signature has no parseable parameter list.
	Params   *signatureParser.TypeNode
	Values   *payloadDecoder.ValueNode
	RawWords []string
	Sender   string
	// Receiver is nil for events.
	Receiver *string
	Selector string
	LogIndex *uint64
	Children []*ActionNode
}

func (n *ActionNode) IsFunction() bool {
	return n.Kind == ActionKind_Function
}

func (n *ActionNode) IsEvent() bool {
	return n.Kind == ActionKind_Event
}
