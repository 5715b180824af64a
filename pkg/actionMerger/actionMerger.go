// Package actionMerger interleaves the calls of a transaction, in path order, with its
// events, in log-index order, decoding every record as it is emitted.
//
// Events carry no position in the call tree. Each one is placed right after the
// nearest call, at or after the last matched call, whose sender is the event's
// emitting contract. Events no call can account for are orphaned.
package actionMerger

import (
	"strconv"
	"strings"

	"github.com/Layr-Labs/actiontree/pkg/actionTree"
	"github.com/Layr-Labs/actiontree/pkg/payloadDecoder"
	"github.com/Layr-Labs/actiontree/pkg/selectorResolver"
	"github.com/Layr-Labs/actiontree/pkg/signatureParser"
	"github.com/Layr-Labs/actiontree/pkg/traceRecords"
	"github.com/Layr-Labs/actiontree/pkg/utils"
)

const unknownParams = "(unknown)"

// OrphanedEvent is an event no call could be matched to, in its output form.
type OrphanedEvent struct {
	LogIndex uint64   `json:"index"`
	Hex      string   `json:"hex"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Inputs   []string `json:"inputs"`
}

type MergeResult struct {
	Actions  []*actionTree.ActionNode
	Orphaned []*OrphanedEvent

	TotalNodes    int
	ResolvedNames int
	Ignored       int

	FoundCreate  bool
	FoundEther   bool
	FoundSuicide bool
}

// decodedSignature is a resolved name split into what the output needs.
type decodedSignature struct {
	name     string
	params   *signatureParser.TypeNode
	ignored  bool
	resolved bool
	parsed   bool
}

// describe resolves the display name and parameter tree of a selector. Unresolved
// selectors keep their literal hex as the name.
func describe(selector string, names map[string]string) *decodedSignature {
	text, found := names[selector]
	if !found || text == "" {
		text = selector
	}
	name, params := signatureParser.SplitSignature(text)

	ds := &decodedSignature{name: name}
	if params == "" || params == unknownParams {
		if params == unknownParams {
			ds.name = selector
		}
		return ds
	}
	ds.resolved = true
	if selectorResolver.IsSpecialSignature(text) {
		ds.ignored = true
		return ds
	}
	if strings.TrimSpace(params) == "()" {
		return ds
	}

	node, ignored := signatureParser.ParseParameters(params)
	ds.params = node
	ds.ignored = ignored
	ds.parsed = true
	return ds
}

func (ds *decodedSignature) decode(words []string, isEvent bool) *payloadDecoder.ValueNode {
	if !ds.parsed || ds.ignored {
		return payloadDecoder.List()
	}
	return payloadDecoder.Decode(ds.params, words, isEvent)
}

type merger struct {
	calls         []*traceRecords.CallRecord
	functionNames map[string]string
	eventNames    map[string]string
	result        *MergeResult
}

func (m *merger) count(node *actionTree.ActionNode, ds *decodedSignature) {
	m.result.TotalNodes++
	if ds.resolved {
		m.result.ResolvedNames++
	}
	if node.Ignored {
		m.result.Ignored++
	}
	m.result.Actions = append(m.result.Actions, node)
}

func (m *merger) emitCall(call *traceRecords.CallRecord) {
	ds := describe(call.Selector, m.functionNames)
	receiver := call.To

	node := &actionTree.ActionNode{
		Id:       call.PathId,
		Kind:     actionTree.ActionKind_Function,
		CallKind: call.CallKind,
		Name:     ds.name,
		Ignored:  ds.ignored,
		Params:   ds.params,
		Values:   ds.decode(call.Words, false),
		RawWords: call.Words,
		Sender:   call.From,
		Receiver: &receiver,
		Selector: call.Selector,
		Children: []*actionTree.ActionNode{},
	}

	switch m.functionNames[call.Selector] {
	case selectorResolver.SpecialCreate:
		m.result.FoundCreate = true
	case selectorResolver.SpecialEtherTransfer:
		m.result.FoundEther = true
	case selectorResolver.SpecialSuicide:
		m.result.FoundSuicide = true
	}
	m.count(node, ds)
}

func (m *merger) emitEvent(event *traceRecords.EventRecord) {
	ds := describe(event.Selector, m.eventNames)
	logIndex := event.LogIndex

	node := &actionTree.ActionNode{
		Id:       strconv.FormatUint(event.LogIndex, 10),
		Kind:     actionTree.ActionKind_Event,
		Name:     ds.name,
		Ignored:  ds.ignored,
		Params:   ds.params,
		Values:   ds.decode(event.TopicWords, true),
		RawWords: event.TopicWords,
		Sender:   event.Address,
		Selector: event.Selector,
		LogIndex: &logIndex,
		Children: []*actionTree.ActionNode{},
	}
	m.count(node, ds)
}

// findSender returns the index of the first call at or after from sent by address.
func (m *merger) findSender(from int, address string) int {
	for i := from; i < len(m.calls); i++ {
		if utils.AreAddressesEqual(m.calls[i].From, address) {
			return i
		}
	}
	return -1
}

// Merge produces the ordered action list of one transaction.
//
// Parameters:
//   - calls: sorted by path id
//   - events: sorted by log index
//   - functionNames, eventNames: resolved signatures by selector
func Merge(
	calls []*traceRecords.CallRecord,
	events []*traceRecords.EventRecord,
	functionNames map[string]string,
	eventNames map[string]string,
) *MergeResult {
	m := &merger{
		calls:         calls,
		functionNames: functionNames,
		eventNames:    eventNames,
		result: &MergeResult{
			Actions:  make([]*actionTree.ActionNode, 0, len(calls)+len(events)),
			Orphaned: make([]*OrphanedEvent, 0),
		},
	}

	nextCall := 0
	lastMatched := 0
	unmatchable := make(map[string]bool)

	for _, event := range events {
		address := strings.ToLower(event.Address)
		if unmatchable[address] {
			m.orphan(event)
			continue
		}

		i := m.findSender(lastMatched, event.Address)
		if i < 0 {
			unmatchable[address] = true
			m.orphan(event)
			continue
		}

		for ; nextCall <= i; nextCall++ {
			m.emitCall(calls[nextCall])
		}
		m.emitEvent(event)
		lastMatched = i
	}

	for ; nextCall < len(calls); nextCall++ {
		m.emitCall(calls[nextCall])
	}
	return m.result
}

func (m *merger) orphan(event *traceRecords.EventRecord) {
	name := event.Selector
	if text, found := m.eventNames[event.Selector]; found {
		name = text
	}
	m.result.Orphaned = append(m.result.Orphaned, &OrphanedEvent{
		LogIndex: event.LogIndex,
		Hex:      event.Selector,
		Name:     name,
		Address:  event.Address,
		Inputs:   event.TopicWords,
	})
}
