package runStats

import (
	"context"
	"path/filepath"

	"github.com/Layr-Labs/actiontree/pkg/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type CounterName string

const (
	CounterName_Create  CounterName = "create"
	CounterName_Ether   CounterName = "ether"
	CounterName_Suicide CounterName = "suicide"
)

var AllCounters = []CounterName{CounterName_Create, CounterName_Ether, CounterName_Suicide}

const failedHashesFile = "failed_hashes.json"

var ErrUnknownCounter = errors.New("unknown counter")

type countFile struct {
	Count int `json:"count"`
}

type counter struct {
	path string
	lock *utils.FileLock
}

// Counters are the run-wide <name>_count.json files under the output directory.
// Separate processes writing to the same directory share them through lock files.
type Counters struct {
	outputPath   string
	counters     map[CounterName]*counter
	failedHashes *counter
	logger       *zap.Logger
}

func NewCounters(outputPath string, l *zap.Logger) *Counters {
	c := &Counters{
		outputPath: outputPath,
		counters:   make(map[CounterName]*counter),
		logger:     l,
	}
	for _, name := range AllCounters {
		path := filepath.Join(outputPath, string(name)+"_count.json")
		c.counters[name] = &counter{path: path, lock: utils.NewFileLock(path + ".lock")}
	}
	failedPath := filepath.Join(outputPath, failedHashesFile)
	c.failedHashes = &counter{path: failedPath, lock: utils.NewFileLock(failedPath + ".lock")}
	return c
}

func (c *Counters) get(name CounterName) (*counter, error) {
	ct, ok := c.counters[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownCounter, "%s", name)
	}
	return ct, nil
}

// Reset sets every counter back to 0.
func (c *Counters) Reset(ctx context.Context) error {
	for _, name := range AllCounters {
		ct := c.counters[name]
		err := ct.lock.With(ctx, func() error {
			return utils.WriteJsonFile(ct.path, &countFile{Count: 0})
		})
		if err != nil {
			return errors.Wrapf(err, "failed to reset %s counter", name)
		}
	}
	return nil
}

func (c *Counters) Increment(ctx context.Context, name CounterName) error {
	ct, err := c.get(name)
	if err != nil {
		return err
	}
	return ct.lock.With(ctx, func() error {
		var cf countFile
		if _, err := utils.ReadJsonFile(ct.path, &cf); err != nil {
			return err
		}
		cf.Count++
		return utils.WriteJsonFile(ct.path, &cf)
	})
}

func (c *Counters) Read(ctx context.Context, name CounterName) (int, error) {
	ct, err := c.get(name)
	if err != nil {
		return 0, err
	}
	var cf countFile
	err = ct.lock.With(ctx, func() error {
		_, err := utils.ReadJsonFile(ct.path, &cf)
		return err
	})
	return cf.Count, err
}

// RecordFailedHashes appends hashes to failed_hashes.json.
func (c *Counters) RecordFailedHashes(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}
	err := c.failedHashes.lock.With(ctx, func() error {
		failed := make([]string, 0)
		if _, err := utils.ReadJsonFile(c.failedHashes.path, &failed); err != nil {
			return err
		}
		failed = append(failed, hashes...)
		return utils.WriteJsonFile(c.failedHashes.path, failed)
	})
	if err != nil {
		return err
	}
	c.logger.Sugar().Infow("Recorded failed transactions",
		zap.String("path", c.failedHashes.path),
		zap.Int("count", len(hashes)),
	)
	return nil
}

func (c *Counters) FailedHashes(ctx context.Context) ([]string, error) {
	failed := make([]string, 0)
	err := c.failedHashes.lock.With(ctx, func() error {
		_, err := utils.ReadJsonFile(c.failedHashes.path, &failed)
		return err
	})
	return failed, err
}
