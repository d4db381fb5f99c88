package analyzer

import (
	"fmt"
	"strings"
	"testing"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Typhoon Gaemi made landfall on the east coast of Taiwan on Wednesday night,
        forcing the evacuation of thousands of residents and the closure of schools
        and offices. Officials warned of torrential rain and landslides in mountainous
        areas while the military prepared relief operations.`,
	"long": strings.Repeat(`Information retrieval systems rank documents by comparing weighted
        term vectors. Term frequency counts occurrences inside a document while inverse
        document frequency discounts terms that appear everywhere. Cosine similarity
        ignores document length and Euclidean distance does not. `, 20),
}

func BenchmarkEnglishNormalize(b *testing.B) {
	a := NewEnglish()
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for b.Loop() {
				_ = Tokens(a, text)
			}
		})
	}
}

func BenchmarkEnglishNormalizeParallel(b *testing.B) {
	a := NewEnglish()
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = Tokens(a, text)
		}
	})
}

func BenchmarkEnglishNormalizeVaryingSize(b *testing.B) {
	a := NewEnglish()
	base := "typhoon taiwan war election campaign storms "
	for _, size := range []int{10, 100, 500, 1000, 5000} {
		text := strings.Repeat(base, size/len(base)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for b.Loop() {
				_ = Tokens(a, text)
			}
		})
	}
}
