package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Helpers(t *testing.T) {
	t.Run("Should compare addresses case-insensitively", func(t *testing.T) {
		assert.True(t, AreAddressesEqual("0xAbC0000000000000000000000000000000000001", "0xabc0000000000000000000000000000000000001"))
		assert.False(t, AreAddressesEqual("0xabc", "0xabd"))
	})
	t.Run("Should report a missing json file without error", func(t *testing.T) {
		var v map[string]string
		found, err := ReadJsonFile(filepath.Join(t.TempDir(), "missing.json"), &v)
		assert.Nil(t, err)
		assert.False(t, found)
	})
	t.Run("Should round trip a json file into nested directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a", "b", "data.json")
		assert.Nil(t, WriteJsonFile(path, map[string]int{"count": 3}))

		var v map[string]int
		found, err := ReadJsonFile(path, &v)
		assert.Nil(t, err)
		assert.True(t, found)
		assert.Equal(t, 3, v["count"])
	})
	t.Run("Should treat an empty file as missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.json")
		assert.Nil(t, os.WriteFile(path, []byte(" \n"), 0o644))

		var v map[string]int
		found, err := ReadJsonFile(path, &v)
		assert.Nil(t, err)
		assert.False(t, found)
	})
	t.Run("Should map with indices", func(t *testing.T) {
		out := Map([]string{"a", "b"}, func(s string, i uint64) string {
			return s + string(rune('0'+i))
		})
		assert.Equal(t, []string{"a0", "b1"}, out)
	})
}
