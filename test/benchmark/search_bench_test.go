package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/ausdata/internal/keyword"
	"github.com/hyperjump/ausdata/internal/matcher"
	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/internal/query"
)

func benchDatasets(n int) []models.Dataset {
	words := []string{"rainfall", "census", "school", "hospital", "tram", "solar", "koala", "crime", "water", "tourism"}
	out := make([]models.Dataset, n)
	for i := range out {
		w := words[i%len(words)]
		out[i] = models.Dataset{
			ID:          fmt.Sprintf("ds-%04d", i),
			Title:       fmt.Sprintf("%s statistics %d", w, i),
			Description: fmt.Sprintf("Quarterly %s observations published for every state and territory.", w),
			Owner:       "Australian Bureau of Statistics",
			Topic:       "Statistics",
			Year:        2000 + i%25,
		}
	}
	return out
}

func BenchmarkScoreOverlap(b *testing.B) {
	candidates := benchDatasets(1000)
	q, _ := query.Normalize("quarterly rainfall observations for each state", 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = matcher.ScoreOverlap(q, candidates)
	}
}

func BenchmarkParseResponse(b *testing.B) {
	known := make(map[string]struct{})
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("ds-%04d", i)
		known[id] = struct{}{}
		fmt.Fprintf(&sb, "%d. %s | 0.%02d | relevant to the question\n", i+1, id, 99-i)
	}
	reply := sb.String()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = matcher.ParseResponse(reply, known)
	}
}

func BenchmarkTokenize(b *testing.B) {
	text := "Weekly storage levels for major dams in the Murray-Darling Basin, reported by the Bureau of Meteorology."
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = keyword.Tokenize(text)
	}
}

func BenchmarkCatalogueIndexSearch(b *testing.B) {
	idx, err := keyword.NewCatalogueIndex(benchDatasets(1000))
	if err != nil {
		b.Fatal(err)
	}
	defer idx.Close()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search("koala observations")
	}
}
