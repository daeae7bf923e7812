package matcher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/pkg/utils"
)

// defaultRationale is used when the model names a dataset without a reason.
const defaultRationale = "selected by language model"

var (
	// listMarker matches bullets and numbering such as "-", "*", "1.", "2)" or "#3".
	listMarker = regexp.MustCompile(`^(?:[-*•]+|#?\d+[.)]|\(\d+\))\s+`)
	// fieldSep splits "<id> | <score> | <reason>" and the ":", " - " and
	// whitespace separated variants.
	fieldSep = regexp.MustCompile(`\s*(?:\||:|\s-\s|\t|\s)\s*`)
	// idLabel strips "ID:", "Dataset #" and "Dataset 17" style prefixes.
	idLabel = regexp.MustCompile(`(?i)^(?:dataset\s*id|dataset|id)(?:\s*[:#=]\s*|\s+)`)
)

// noneReply is the reply the prompt asks for when no candidate is relevant.
const noneReply = "none"

// ParseResponse extracts matches from a model reply. Only ids present in known
// are accepted; repeated ids keep the first occurrence. Lines without a score
// get a rank-derived one. Matches are returned in reply order. A reply that
// names no known id yields ErrBackendParse; a bare NONE reply yields
// ErrNoneRelevant.
func ParseResponse(text string, known map[string]struct{}) ([]models.Match, error) {
	if isNoneReply(text) {
		return nil, ErrNoneRelevant
	}
	type parsed struct {
		id        string
		score     float64
		hasScore  bool
		rationale string
	}
	var (
		items []parsed
		seen  = make(map[string]struct{})
	)
	for _, line := range strings.Split(stripFences(text), "\n") {
		line = strings.TrimSpace(line)
		line = listMarker.ReplaceAllString(line, "")
		line = strings.Trim(line, "*`\"' ")
		line = idLabel.ReplaceAllString(line, "")
		if line == "" {
			continue
		}
		fields := fieldSep.Split(line, 3)
		id := cleanID(fields[0])
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		p := parsed{id: id, rationale: defaultRationale}
		rest := fields[1:]
		if len(rest) > 0 {
			if score, ok := parseScore(rest[0]); ok {
				p.score, p.hasScore = score, true
				rest = rest[1:]
			}
		}
		if len(rest) > 0 {
			if reason := strings.TrimSpace(strings.Join(rest, " ")); reason != "" {
				p.rationale = reason
			}
		}
		items = append(items, p)
	}
	if len(items) == 0 {
		return nil, ErrBackendParse
	}

	n := float64(len(items))
	matches := make([]models.Match, len(items))
	for i, p := range items {
		score := p.score
		if !p.hasScore {
			score = 1 - float64(i)/(n+1)
		}
		matches[i] = models.Match{
			DatasetID: p.id,
			Score:     utils.Clamp(score, 0, 1),
			Rationale: p.rationale,
		}
	}
	return matches, nil
}

func isNoneReply(text string) bool {
	reply := strings.Trim(strings.TrimSpace(stripFences(text)), "*`\"'.!")
	return strings.EqualFold(reply, noneReply)
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func cleanID(s string) string {
	s = strings.Trim(s, "[]()<>*`\"'.,; ")
	return s
}

// parseScore accepts "0.85", "85%", and "score 0.85" / "score=0.85" forms.
// Values outside [0,1] are clamped.
func parseScore(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "score")
	s = strings.TrimLeft(s, " :=")
	s = strings.Trim(s, "()[] ")
	s = strings.TrimRight(s, " .,;")
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	if percent {
		v /= 100
	}
	return utils.Clamp(v, 0, 1), true
}
