package selectorResolver

import (
	"context"
	"os"

	"github.com/Layr-Labs/actiontree/pkg/utils"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// SelectorMap is the persisted selector to signature mapping, kept in insertion order.
type SelectorMap = orderedmap.OrderedMap[string, string]

func NewSelectorMap() *SelectorMap {
	return orderedmap.New[string, string]()
}

// Store is the selector cache file shared by every worker and process of a run.
// Every read-modify-write happens under a sibling ".lock" file.
type Store struct {
	path   string
	lock   *utils.FileLock
	logger *zap.Logger
}

func NewStore(path string, l *zap.Logger) *Store {
	return &Store{
		path:   path,
		lock:   utils.NewFileLock(path + ".lock"),
		logger: l,
	}
}

func (s *Store) Path() string {
	return s.path
}

func readSelectorMap(path string) (*SelectorMap, error) {
	m := NewSelectorMap()
	if _, err := utils.ReadJsonFile(path, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Load returns a snapshot of the cache. A missing file is an empty cache.
func (s *Store) Load(ctx context.Context) (*SelectorMap, error) {
	var snapshot *SelectorMap
	err := s.lock.With(ctx, func() error {
		m, err := readSelectorMap(s.path)
		if err != nil {
			return err
		}
		snapshot = m
		return nil
	})
	return snapshot, err
}

// Merge adds entries that are not in the cache yet. Existing entries are never
// overwritten. Returns the number of entries added.
func (s *Store) Merge(ctx context.Context, entries *SelectorMap) (int, error) {
	added := 0
	err := s.lock.With(ctx, func() error {
		current, err := readSelectorMap(s.path)
		if err != nil {
			return err
		}
		for pair := entries.Oldest(); pair != nil; pair = pair.Next() {
			if _, found := current.Get(pair.Key); found {
				continue
			}
			current.Set(pair.Key, pair.Value)
			added++
		}
		if added == 0 {
			return nil
		}
		return utils.WriteJsonFile(s.path, current)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Sugar().Debugw("Merged selector cache entries",
		zap.String("path", s.path),
		zap.Int("added", added),
		zap.Int("offered", entries.Len()),
	)
	return added, nil
}

// MergeFile merges a scratch cache file into the store and deletes it.
func (s *Store) MergeFile(ctx context.Context, scratchPath string) (int, error) {
	entries, err := readSelectorMap(scratchPath)
	if err != nil {
		return 0, err
	}
	added, err := s.Merge(ctx, entries)
	if err != nil {
		return 0, err
	}
	if err := os.Remove(scratchPath); err != nil && !os.IsNotExist(err) {
		return added, errors.Wrapf(err, "failed to remove scratch cache %s", scratchPath)
	}
	return added, nil
}

// Reset replaces the cache with an empty one.
func (s *Store) Reset(ctx context.Context) error {
	return s.lock.With(ctx, func() error {
		return utils.WriteJsonFile(s.path, NewSelectorMap())
	})
}
