package selectorResolver

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/Layr-Labs/actiontree/pkg/utils"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const functionSelectorBytes = 4

// SelectorForSignature computes the selector of a canonical text signature: the first
// four bytes of its keccak256 hash for functions, the whole hash for events.
func SelectorForSignature(kind SignatureKind, signature string) string {
	hash := crypto.Keccak256([]byte(signature))
	if kind == SignatureKind_Event {
		return hexutil.Encode(hash)
	}
	return hexutil.Encode(hash[:functionSelectorBytes])
}

// SeedFromDatabase merges a JSON object of selector to signature into the store.
// Selectors are lowercased; existing cache entries win.
func (s *Store) SeedFromDatabase(ctx context.Context, path string) (int, error) {
	loaded := NewSelectorMap()
	found, err := utils.ReadJsonFile(path, loaded)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, errors.Errorf("selector database %s not found", path)
	}

	entries := NewSelectorMap()
	for pair := loaded.Oldest(); pair != nil; pair = pair.Next() {
		entries.Set(strings.ToLower(pair.Key), pair.Value)
	}
	return s.Merge(ctx, entries)
}

// SeedFromSignatures computes the selector of every signature and merges them into
// the store. Blank lines and lines starting with "#" are skipped.
func (s *Store) SeedFromSignatures(ctx context.Context, kind SignatureKind, signatures []string) (int, error) {
	entries := NewSelectorMap()
	for _, sig := range signatures {
		sig = strings.TrimSpace(sig)
		if sig == "" || strings.HasPrefix(sig, "#") {
			continue
		}
		if !strings.Contains(sig, "(") || !strings.HasSuffix(sig, ")") {
			s.logger.Sugar().Warnw("Skipping malformed signature", zap.String("signature", sig))
			continue
		}
		selector := SelectorForSignature(kind, sig)
		if _, found := entries.Get(selector); !found {
			entries.Set(selector, sig)
		}
	}
	return s.Merge(ctx, entries)
}

// ReadSignatureList reads one text signature per line.
func ReadSignatureList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	signatures := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		signatures = append(signatures, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return signatures, nil
}
