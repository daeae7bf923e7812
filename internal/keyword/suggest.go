package keyword

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/ausdata/internal/models"
)

// Vocabulary maps each catalogue word to the number of datasets whose title,
// description or topic contains it. Words are tokenized the same way the
// fallback scorer tokenizes them.
type Vocabulary struct {
	freq  map[string]int
	terms []string // sorted
}

// NewVocabulary builds the vocabulary of datasets.
func NewVocabulary(datasets []models.Dataset) *Vocabulary {
	v := &Vocabulary{freq: make(map[string]int)}
	for _, ds := range datasets {
		for term := range TokenSet(ds.Title + " " + ds.Description + " " + ds.Topic) {
			v.freq[term]++
		}
	}
	v.terms = make([]string, 0, len(v.freq))
	for term := range v.freq {
		v.terms = append(v.terms, term)
	}
	sort.Strings(v.terms)
	return v
}

// Contains reports whether term occurs in the catalogue.
func (v *Vocabulary) Contains(term string) bool {
	_, ok := v.freq[term]
	return ok
}

// Frequency returns the number of datasets containing term.
func (v *Vocabulary) Frequency(term string) int {
	return v.freq[term]
}

// Len returns the number of distinct words.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Suggester proposes catalogue words for query words the catalogue does not contain.
type Suggester struct {
	vocab       *Vocabulary
	maxDistance int
	minLength   int
}

// SuggesterOption is a functional option for configuring Suggester.
type SuggesterOption func(*Suggester)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SuggesterOption {
	return func(s *Suggester) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinTermLength sets the shortest word (in characters) that is corrected.
func WithMinTermLength(n int) SuggesterOption {
	return func(s *Suggester) {
		if n > 0 {
			s.minLength = n
		}
	}
}

// NewSuggester creates a Suggester over vocab.
func NewSuggester(vocab *Vocabulary, opts ...SuggesterOption) *Suggester {
	s := &Suggester{vocab: vocab, maxDistance: 2, minLength: 4}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest returns the closest catalogue word to term. Candidates are ranked by
// edit distance, then dataset frequency (higher first), then alphabetically.
// Known words, words shorter than the minimum length and words with no
// candidate within the maximum distance yield false.
func (s *Suggester) Suggest(term string) (string, bool) {
	term = strings.ToLower(term)
	n := utf8.RuneCountInString(term)
	if n < s.minLength || s.vocab.Contains(term) {
		return "", false
	}
	best, bestDist, bestFreq := "", s.maxDistance+1, 0
	for _, cand := range s.vocab.terms {
		diff := utf8.RuneCountInString(cand) - n
		if diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		d := EditDistance(term, cand)
		if d > s.maxDistance {
			continue
		}
		freq := s.vocab.Frequency(cand)
		if d < bestDist || (d == bestDist && freq > bestFreq) {
			best, bestDist, bestFreq = cand, d, freq
		}
	}
	return best, best != ""
}

// CorrectQuery replaces each whitespace-separated query word that is a single
// unknown token with its suggestion. It reports whether any word changed.
func (s *Suggester) CorrectQuery(text string) (string, bool) {
	fields := strings.Fields(text)
	changed := false
	for i, f := range fields {
		tokens := Tokenize(f)
		if len(tokens) != 1 {
			continue
		}
		if sugg, ok := s.Suggest(tokens[0]); ok {
			fields[i] = sugg
			changed = true
		}
	}
	if !changed {
		return text, false
	}
	return strings.Join(fields, " "), true
}

// EditDistance returns the optimal string alignment distance between a and b:
// the minimum number of single-character insertions, deletions, substitutions
// and adjacent transpositions turning a into b. It compares runes.
func EditDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Three rolling rows: two back for transpositions.
	prev2 := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				curr[j] = min(curr[j], prev2[j-2]+1)
			}
		}
		prev2, prev, curr = prev, curr, prev2
	}
	return prev[len(rb)]
}
