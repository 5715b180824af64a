package tests

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Layr-Labs/actiontree/internal/config"
)

// SampleTransactionHash is the transaction whose trace, event and event input files
// are in testdata.
const SampleTransactionHash = "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"

// MissingTransactionHash is listed in testdata/hashes.json but has no input files.
const MissingTransactionHash = "0x00000000000000000000000000000000000000000000000000000000deadbeef"

func GetConfig() *config.Config {
	return config.NewConfig()
}

func ReplaceEnv(newValues map[string]string, previousValues *map[string]string) {
	for k, v := range newValues {
		(*previousValues)[k] = os.Getenv(k)
		os.Setenv(k, v)
	}
}

func RestoreEnv(previousValues map[string]string) {
	for k, v := range previousValues {
		os.Setenv(k, v)
	}
}

//go:embed testdata
var testData embed.FS

// Fixtures are the testdata files copied into a writable directory.
type Fixtures struct {
	Root           string
	TracePath      string
	EventPath      string
	EventInputPath string
	HashPath       string
	SelectorsPath  string
	SignaturesPath string
}

// WriteFixtures copies the embedded testdata tree into dir.
func WriteFixtures(dir string) (*Fixtures, error) {
	err := fs.WalkDir(testData, "testdata", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("testdata", path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		contents, err := testData.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, contents, 0o644)
	})
	if err != nil {
		return nil, err
	}
	return &Fixtures{
		Root:           dir,
		TracePath:      filepath.Join(dir, "trace"),
		EventPath:      filepath.Join(dir, "event"),
		EventInputPath: filepath.Join(dir, "event_input"),
		HashPath:       filepath.Join(dir, "hashes.json"),
		SelectorsPath:  filepath.Join(dir, "selectors.json"),
		SignaturesPath: filepath.Join(dir, "signatures.txt"),
	}, nil
}

// RemoveEventFiles deletes the event and event input files of a transaction.
func (f *Fixtures) RemoveEventFiles(transactionHash string) error {
	for _, dir := range []string{f.EventPath, f.EventInputPath} {
		if err := os.Remove(filepath.Join(dir, transactionHash+".json")); err != nil {
			return err
		}
	}
	return nil
}
