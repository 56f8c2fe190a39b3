// Package intelligence provides the LLM-backed analysis used by the memory
// engine: importance scoring of memory content and reflection synthesis over
// recent conversation turns.
package intelligence

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/warmroom/memstream-go/pkg/llm"
)

// NeutralImportance is the score substituted by callers when analysis fails.
const NeutralImportance = 5.0

var numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// ImportanceAnalyzer scores how important a piece of memory content is on a
// 1-10 scale using an LLM judgment.
//
// Evaluation criteria (carried in the prompt):
//   - emotional intensity
//   - information density
//   - event significance
//   - relationship impact
//
// Analyze returns an error on any call or parse failure so the caller can
// apply its documented fallback (NeutralImportance).
type ImportanceAnalyzer struct {
	llm    llm.Provider
	logger *zap.Logger
}

// NewImportanceAnalyzer creates an analyzer using the given LLM provider.
// logger may be nil.
func NewImportanceAnalyzer(provider llm.Provider, logger *zap.Logger) *ImportanceAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportanceAnalyzer{
		llm:    provider,
		logger: logger,
	}
}

// Analyze scores the content on a 1-10 scale (1 least important, 10 most).
// The result is clamped to [1, 10].
func (a *ImportanceAnalyzer) Analyze(ctx context.Context, content string) (float64, error) {
	prompt := fmt.Sprintf(`Rate how important the following statement from a conversation is for understanding the speaker, on a scale from 1 to 10 (1 = least important, 10 = most important).
Reply with the number only. Criteria:
- emotional intensity
- information density
- event significance
- relationship impact

Statement: %s`, content)

	response, err := a.llm.Generate(ctx, prompt,
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(10),
	)
	if err != nil {
		return 0, fmt.Errorf("importance analysis: %w", err)
	}

	score, err := parseScore(response)
	if err != nil {
		a.logger.Warn("unparseable importance response",
			zap.String("response", response))
		return 0, err
	}

	return clampScore(score), nil
}

// parseScore extracts the first numeric value from an LLM response.
func parseScore(response string) (float64, error) {
	trimmed := strings.TrimSpace(response)
	if score, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return score, nil
	}

	match := numberPattern.FindString(trimmed)
	if match == "" {
		return 0, fmt.Errorf("importance analysis: no score in response %q", response)
	}
	return strconv.ParseFloat(match, 64)
}

func clampScore(score float64) float64 {
	return math.Min(math.Max(score, 1), 10)
}
