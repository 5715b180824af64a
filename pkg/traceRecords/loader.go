package traceRecords

import (
	"fmt"
	"path/filepath"

	"github.com/Layr-Labs/actiontree/pkg/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrTraceFileNotFound = errors.New("call trace file not found")
	ErrEventFileNotFound = errors.New("event file not found")
)

// Transaction is the validated input of one transaction: calls in path order and
// events in log-index order.
type Transaction struct {
	Hash   string
	Calls  []*CallRecord
	Events []*EventRecord
}

type LoaderConfig struct {
	TracePath      string
	EventPath      string
	EventInputPath string
	// Eventless tolerates missing event files.
	Eventless bool
}

// Loader reads <dir>/<hash>.json from the trace, event and event-input directories.
type Loader struct {
	config *LoaderConfig
	logger *zap.Logger
}

func NewLoader(cfg *LoaderConfig, l *zap.Logger) *Loader {
	return &Loader{
		config: cfg,
		logger: l,
	}
}

func transactionFile(dir string, hash string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.json", hash))
}

func (l *Loader) Load(transactionHash string) (*Transaction, error) {
	var traceRows []*RawTraceRow
	found, err := utils.ReadJsonFile(transactionFile(l.config.TracePath, transactionHash), &traceRows)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(ErrTraceFileNotFound, "transaction %s", transactionHash)
	}

	calls := make([]*CallRecord, 0, len(traceRows))
	for _, row := range traceRows {
		call, err := CallRecordFromRow(row, transactionHash)
		if err != nil {
			l.logger.Sugar().Warnw("Skipping invalid trace row",
				zap.String("transactionHash", transactionHash),
				zap.String("traceId", row.TraceId),
				zap.Error(err),
			)
			continue
		}
		calls = append(calls, call)
	}
	SortCalls(calls)

	events, err := l.loadEvents(transactionHash)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		Hash:   transactionHash,
		Calls:  calls,
		Events: events,
	}, nil
}

func (l *Loader) loadEvents(transactionHash string) ([]*EventRecord, error) {
	events := make([]*EventRecord, 0)

	var eventRows []*RawEventRow
	eventsFound, err := utils.ReadJsonFile(transactionFile(l.config.EventPath, transactionHash), &eventRows)
	if err != nil {
		return nil, err
	}
	var inputRows []*RawEventInputRow
	inputsFound, err := utils.ReadJsonFile(transactionFile(l.config.EventInputPath, transactionHash), &inputRows)
	if err != nil {
		return nil, err
	}

	if !eventsFound || !inputsFound {
		if l.config.Eventless {
			l.logger.Sugar().Debugw("No event files, building from calls only",
				zap.String("transactionHash", transactionHash),
			)
			return events, nil
		}
		return nil, errors.Wrapf(ErrEventFileNotFound, "transaction %s", transactionHash)
	}

	topics := make(map[uint64][]string, len(inputRows))
	for _, row := range inputRows {
		topics[uint64(row.LogIndex)] = row.TopicsExceptFirst
	}

	for _, row := range eventRows {
		event, err := EventRecordFromRow(row, topics)
		if err != nil {
			l.logger.Sugar().Warnw("Skipping invalid event row",
				zap.String("transactionHash", transactionHash),
				zap.Uint64("logIndex", uint64(row.LogIndex)),
				zap.Error(err),
			)
			continue
		}
		if !common.IsHexAddress(event.Address) {
			l.logger.Sugar().Debugw("Event address is not a hex address",
				zap.String("transactionHash", transactionHash),
				zap.String("address", event.Address),
			)
		}
		events = append(events, event)
	}
	SortEvents(events)
	return events, nil
}
