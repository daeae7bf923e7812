// Package matcher ranks candidate datasets against a query using a language
// model, with a deterministic keyword-overlap scorer as the fallback.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ausdata/internal/backend"
	"github.com/hyperjump/ausdata/internal/llm"
	"github.com/hyperjump/ausdata/internal/metrics"
	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/internal/query"
	"github.com/hyperjump/ausdata/pkg/utils"
)

var (
	// ErrNoCandidates is returned when Match is called with an empty candidate set.
	ErrNoCandidates = errors.New("no candidate datasets")
	// ErrBackendParse is returned when a model reply names no known dataset id.
	ErrBackendParse = errors.New("model reply contains no known dataset id")
	// ErrNoneRelevant is returned when the model replies that no candidate is
	// relevant. It is not a backend failure.
	ErrNoneRelevant = errors.New("model found no relevant dataset")
)

const (
	DefaultTimeout             = 15 * time.Second
	DefaultLimit               = 10
	DefaultMaxPromptCandidates = 40
	DefaultMaxTokens           = 256

	// scorePlaces is the precision scores are rounded to before ordering.
	scorePlaces = 4
)

// Config controls model calls and result size.
type Config struct {
	Timeout             time.Duration
	DefaultLimit        int
	MaxPromptCandidates int
	MaxTokens           int
	Temperature         float64
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	if c.MaxPromptCandidates <= 0 {
		c.MaxPromptCandidates = DefaultMaxPromptCandidates
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

// Matcher answers relevance queries. It is safe for concurrent use.
type Matcher struct {
	gen    llm.Generator
	state  *backend.State
	cfg    Config
	logger *zap.Logger
}

// New returns a matcher calling gen while state reports a model mode. gen may be
// nil, in which case every request is answered by the fallback scorer.
func New(gen llm.Generator, state *backend.State, cfg Config, logger *zap.Logger) *Matcher {
	cfg.applyDefaults()
	if state == nil {
		state = backend.NewState(backend.ModeFallback, 0)
	}
	return &Matcher{gen: gen, state: state, cfg: cfg, logger: utils.OrNop(logger)}
}

// State returns the backend state the matcher consults.
func (m *Matcher) State() *backend.State {
	return m.state
}

// Match ranks candidates against q and returns at most limit matches sorted by
// score descending, then id ascending. limit <= 0 uses the configured default.
// Model failures are never returned: the fallback scorer answers instead.
func (m *Matcher) Match(ctx context.Context, q query.Query, candidates []models.Dataset, limit int) (*models.MatchResult, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if limit <= 0 {
		limit = m.cfg.DefaultLimit
	}

	mode := m.state.Mode()
	if mode != backend.ModeFallback && m.gen != nil {
		matches, err := m.matchWithModel(ctx, q, candidates)
		switch {
		case err == nil:
			m.state.RecordSuccess()
			return m.finish(matches, sourceFor(mode), limit), nil
		case errors.Is(err, ErrNoneRelevant):
			m.state.RecordSuccess()
			m.logger.Debug("model found nothing relevant, answering with fallback scorer",
				zap.String("mode", mode.String()), zap.String("query", q.String()))
		default:
			m.recordFailure(ctx, mode, q, err)
		}
	}
	return m.finish(ScoreOverlap(q, candidates), models.SourceFallback, limit), nil
}

func (m *Matcher) matchWithModel(ctx context.Context, q query.Query, candidates []models.Dataset) ([]models.Match, error) {
	sent := m.promptCandidates(q, candidates)
	prompt, err := renderPrompt(q, sent)
	if err != nil {
		return nil, err
	}
	text, err := m.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(sent))
	for _, ds := range sent {
		known[ds.ID] = struct{}{}
	}
	matches, err := ParseResponse(text, known)
	if errors.Is(err, ErrNoneRelevant) {
		return nil, err
	}
	if err != nil {
		m.logger.Debug("unparseable model reply", zap.String("backend", m.gen.Name()), zap.String("reply", utils.Truncate(text, 200)))
		return nil, err
	}
	return matches, nil
}

// promptCandidates bounds the prompt: beyond MaxPromptCandidates, the datasets
// with the best keyword overlap are sent (ties by id), padded in source order.
func (m *Matcher) promptCandidates(q query.Query, candidates []models.Dataset) []models.Dataset {
	n := m.cfg.MaxPromptCandidates
	if len(candidates) <= n {
		return candidates
	}
	byID := make(map[string]models.Dataset, len(candidates))
	for _, ds := range candidates {
		byID[ds.ID] = ds
	}
	ranked := ScoreOverlap(q, candidates)
	sortMatches(ranked)

	out := make([]models.Dataset, 0, n)
	picked := make(map[string]struct{}, n)
	for _, mt := range ranked {
		if len(out) == n {
			break
		}
		out = append(out, byID[mt.DatasetID])
		picked[mt.DatasetID] = struct{}{}
	}
	for _, ds := range candidates {
		if len(out) == n {
			break
		}
		if _, ok := picked[ds.ID]; !ok {
			out = append(out, ds)
		}
	}
	return out
}

// generate runs one model call under the configured timeout. On expiry the
// call's goroutine is left to finish on its own and its reply is discarded.
func (m *Matcher) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	start := time.Now()
	go func() {
		text, err := m.gen.Generate(callCtx, prompt, llm.Options{
			Temperature: m.cfg.Temperature,
			MaxTokens:   m.cfg.MaxTokens,
		})
		done <- reply{text: text, err: err}
	}()

	select {
	case r := <-done:
		metrics.BackendDuration.WithLabelValues(m.gen.Name()).Observe(time.Since(start).Seconds())
		if r.err == nil {
			return r.text, nil
		}
		if ctx.Err() == nil && errors.Is(r.err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", llm.ErrBackendTimeout, m.cfg.Timeout)
		}
		if errors.Is(r.err, llm.ErrBackendCall) || ctx.Err() != nil {
			return "", r.err
		}
		return "", fmt.Errorf("%w: %v", llm.ErrBackendCall, r.err)
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w after %s", llm.ErrBackendTimeout, m.cfg.Timeout)
	}
}

// recordFailure counts a model failure against the backend state. A request
// abandoned by its caller is not the backend's fault and is not counted.
func (m *Matcher) recordFailure(ctx context.Context, mode backend.Mode, q query.Query, err error) {
	if ctx.Err() != nil {
		m.logger.Debug("request cancelled, answering with fallback scorer", zap.Error(ctx.Err()))
		return
	}
	metrics.BackendFailures.WithLabelValues(m.gen.Name(), failureKind(err)).Inc()
	m.logger.Warn("model backend failed, answering with fallback scorer",
		zap.String("mode", mode.String()),
		zap.String("query", q.String()),
		zap.Int("consecutive_failures", m.state.Failures()+1),
		zap.Error(err))
	if m.state.RecordFailure() {
		metrics.BackendMode.Set(float64(backend.ModeFallback))
		m.logger.Error("model backend failed repeatedly, switching to fallback scorer for the rest of the process",
			zap.String("mode", mode.String()),
			zap.Int("threshold", m.state.Threshold()))
	}
}

func (m *Matcher) finish(matches []models.Match, source models.MatchSource, limit int) *models.MatchResult {
	for i := range matches {
		matches[i].Score = utils.Round(matches[i].Score, scorePlaces)
	}
	sortMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []models.Match{}
	}
	metrics.MatchesTotal.WithLabelValues(string(source)).Inc()
	return &models.MatchResult{Matches: matches, Source: source}
}

func sortMatches(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].DatasetID < matches[j].DatasetID
	})
}

func sourceFor(mode backend.Mode) models.MatchSource {
	switch mode {
	case backend.ModeLocalModel:
		return models.SourceLocalModel
	case backend.ModeRemoteAPI:
		return models.SourceRemoteAPI
	default:
		return models.SourceFallback
	}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, llm.ErrBackendTimeout):
		return "timeout"
	case errors.Is(err, ErrBackendParse):
		return "parse"
	default:
		return "call"
	}
}
