package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/wordsift/wordsift/internal/checkers"
	"github.com/wordsift/wordsift/internal/normalize"
	"github.com/wordsift/wordsift/internal/types"
)

func BenchmarkScan(b *testing.B) {
	d := checkers.NewDictionary(checkers.DictionaryOptions{Normalize: normalize.DefaultOptions()})
	var terms []string
	for i := 0; i < 2000; i++ {
		terms = append(terms, fmt.Sprintf("term%04d", i))
	}
	d.LoadTerms(append(terms, "二货"), []string{"二货车"})
	reg, err := checkers.Build(checkers.IDs(), d, checkers.DefaultOptions())
	if err != nil {
		b.Fatal(err)
	}

	sizes := []int{256, 4096, 65536}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("text_%d", size), func(b *testing.B) {
			unit := "some ordinary text 二货车 with term0042 and http://example.com/x "
			text := strings.Repeat(unit, size/len(unit)+1)[:size]
			text = strings.ToValidUTF8(text, "")
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Scan(text, types.CollectAll, reg, normalize.DefaultOptions()); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
