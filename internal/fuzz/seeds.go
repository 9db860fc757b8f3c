package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10 // 64 KiB: ограничение для тестового корпуса

var notationSeeds = []string{
	"i32",
	"_",
	"!",
	"{int}",
	"{float}",
	"*This",
	"$x",
	"(i32, bool)",
	"(u8,)",
	"()",
	"core::ops::Add<i32>",
	"Map<str, *Vec<T>>",
	"a :: b :: c",
	"Vec<>",
	"(i32",
	"$",
	"日本::語",
}

func addNotationSeeds(f *testing.F) {
	for _, s := range notationSeeds {
		f.Add(s)
	}
}

func addManifestSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err == nil {
		// проходим по testdata, добавляем все *.toml файлы
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".toml" {
				return nil
			}
			// #nosec G304 -- path comes from repository testdata walk
			src, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			f.Add(clampSeed(src))
			return nil
		})
	}
	f.Add([]byte{})
	f.Add([]byte("[[package]]\nname = \"app\"\n"))
	f.Add([]byte("[[package]]\nname = \"a\"\ndependencies = [\"a\"]\n"))
}

func clampSeed(src []byte) []byte {
	if len(src) > maxSeedBytes {
		src = src[:maxSeedBytes]
	}
	return append([]byte(nil), src...)
}
