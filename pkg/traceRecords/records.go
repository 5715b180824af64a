// Package traceRecords defines the validated call and event records a transaction
// is rebuilt from, and the conversion from the raw per-transaction query rows.
package traceRecords

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

type CallKind string

const (
	CallKind_Call         CallKind = "call"
	CallKind_StaticCall   CallKind = "staticcall"
	CallKind_DelegateCall CallKind = "delegatecall"
	CallKind_CallCode     CallKind = "callcode"
	CallKind_Create       CallKind = "create"
	CallKind_Suicide      CallKind = "suicide"
)

func (k CallKind) IsValid() bool {
	switch k {
	case CallKind_Call, CallKind_StaticCall, CallKind_DelegateCall, CallKind_CallCode, CallKind_Create, CallKind_Suicide:
		return true
	}
	return false
}

const (
	// SelectorNull marks a record without a selector (self-destructs, anonymous logs).
	// It is also the key such records use in the persisted selector cache.
	SelectorNull = "null"
	// SelectorEtherTransfer is the selector of a call with empty input.
	SelectorEtherTransfer = "0x"
	// SelectorCreate is assigned to contract creations.
	SelectorCreate = "0xff"

	// WordHexLength is the number of hex characters in one 32-byte word.
	WordHexLength = 64

	selectorLength = 10
)

var (
	ErrUnknownTracePrefix = errors.New("unknown trace id prefix")
	ErrMissingAddress     = errors.New("record is missing an address")
	ErrInvalidCallKind    = errors.New("invalid call kind")
)

// CallRecord is one internal call, create or self-destruct of a transaction.
type CallRecord struct {
	// PathId is the trace id with the per-transaction prefix removed; "" is the entry call.
	PathId   string
	CallKind CallKind
	From     string
	To       string
	Selector string
	Words    []string
}

func NewCallRecord(pathId string, kind CallKind, from string, to string, selector string, words []string) (*CallRecord, error) {
	if !kind.IsValid() {
		return nil, errors.Wrapf(ErrInvalidCallKind, "'%s' for path '%s'", kind, pathId)
	}
	if from == "" {
		return nil, errors.Wrapf(ErrMissingAddress, "call '%s' has no from address", pathId)
	}
	if selector == "" {
		selector = SelectorNull
	}
	if words == nil {
		words = []string{}
	}
	return &CallRecord{
		PathId:   pathId,
		CallKind: kind,
		From:     from,
		To:       to,
		Selector: selector,
		Words:    words,
	}, nil
}

// EventRecord is one emitted log of a transaction.
type EventRecord struct {
	LogIndex   uint64
	Selector   string
	Address    string
	TopicWords []string
}

func NewEventRecord(logIndex uint64, selector string, address string, topicWords []string) (*EventRecord, error) {
	if address == "" {
		return nil, errors.Wrapf(ErrMissingAddress, "event at log index %d", logIndex)
	}
	if selector == "" {
		selector = SelectorNull
	}
	if topicWords == nil {
		topicWords = []string{}
	}
	return &EventRecord{
		LogIndex:   logIndex,
		Selector:   selector,
		Address:    address,
		TopicWords: topicWords,
	}, nil
}

// RawTraceRow is a call trace row as exported by the bulk trace query.
type RawTraceRow struct {
	TraceId     string `json:"trace_id"`
	Input       string `json:"input"`
	CallType    string `json:"call_type"`
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
}

// RawEventRow is a log row as exported by the bulk log query.
type RawEventRow struct {
	LogIndex LogIndex `json:"log_index"`
	Event    *string  `json:"event"`
	Address  string   `json:"address"`
}

// RawEventInputRow carries the topic words of a log, keyed by log index.
type RawEventInputRow struct {
	LogIndex          LogIndex `json:"log_index"`
	TopicsExceptFirst []string `json:"topics_except_first"`
}

// LogIndex accepts both JSON numbers and numeric strings; CSV exports quote everything.
type LogIndex uint64

func (li *LogIndex) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "log_index is neither a number nor a string")
		}
		n = json.Number(s)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(n.String()), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid log_index '%s'", n.String())
	}
	*li = LogIndex(v)
	return nil
}

// CallRecordFromRow strips the transaction-scoped prefix from the trace id and splits
// the input into a selector and 32-byte words.
func CallRecordFromRow(row *RawTraceRow, transactionHash string) (*CallRecord, error) {
	callPrefix := fmt.Sprintf("call_%s_", transactionHash)
	createPrefix := fmt.Sprintf("create_%s_", transactionHash)
	suicidePrefix := fmt.Sprintf("suicide_%s_", transactionHash)

	switch {
	case strings.HasPrefix(row.TraceId, callPrefix):
		selector, words := SplitInput(row.Input)
		return NewCallRecord(
			strings.TrimPrefix(row.TraceId, callPrefix),
			CallKind(strings.ToLower(row.CallType)),
			row.FromAddress,
			row.ToAddress,
			selector,
			words,
		)
	case strings.HasPrefix(row.TraceId, createPrefix):
		return NewCallRecord(strings.TrimPrefix(row.TraceId, createPrefix), CallKind_Create, row.FromAddress, row.ToAddress, SelectorCreate, nil)
	case strings.HasPrefix(row.TraceId, suicidePrefix):
		return NewCallRecord(strings.TrimPrefix(row.TraceId, suicidePrefix), CallKind_Suicide, row.FromAddress, row.ToAddress, SelectorNull, nil)
	}
	return nil, errors.Wrapf(ErrUnknownTracePrefix, "trace id '%s'", row.TraceId)
}

// SplitInput splits call input into its selector ("0x" plus four bytes, or shorter when
// the input is shorter) and the remaining 64-character words. A trailing partial word
// is kept as is.
func SplitInput(input string) (string, []string) {
	if input == "" {
		return SelectorEtherTransfer, []string{}
	}
	if len(input) <= selectorLength {
		return input, []string{}
	}
	selector := input[:selectorLength]
	rest := input[selectorLength:]

	words := make([]string, 0, (len(rest)+WordHexLength-1)/WordHexLength)
	for i := 0; i < len(rest); i += WordHexLength {
		end := i + WordHexLength
		if end > len(rest) {
			end = len(rest)
		}
		words = append(words, rest[i:end])
	}
	return selector, words
}

// EventRecordFromRow builds an event with the topic words found for its log index.
func EventRecordFromRow(row *RawEventRow, topics map[uint64][]string) (*EventRecord, error) {
	selector := SelectorNull
	if row.Event != nil && *row.Event != "" {
		selector = *row.Event
		if _, err := hexutil.Decode(selector); err != nil {
			return nil, errors.Wrapf(err, "invalid event selector '%s' at log index %d", selector, row.LogIndex)
		}
	}
	return NewEventRecord(uint64(row.LogIndex), selector, row.Address, topics[uint64(row.LogIndex)])
}

// SortEvents orders events by log index.
func SortEvents(events []*EventRecord) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].LogIndex < events[j].LogIndex
	})
}
