package intelligence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warmroom/memstream-go/pkg/llm"
)

// Insight is the outcome of one reflection pass: the salient questions the
// model raised about the recent turns and the condensed answer it produced.
type Insight struct {
	Questions string
	Answer    string
}

// Content renders the insight as the text stored in a reflection memory.
func (i *Insight) Content() string {
	return fmt.Sprintf("[Reflection]\nQuestions:\n%s\n\nInsight:\n%s", i.Questions, i.Answer)
}

// Reflector synthesizes a higher-level insight from recent conversation
// turns in two LLM steps: first it derives the most salient high-level
// questions about the turns, then it answers them in condensed form.
type Reflector struct {
	llm    llm.Provider
	logger *zap.Logger
}

// NewReflector creates a reflector using the given LLM provider. logger may
// be nil.
func NewReflector(provider llm.Provider, logger *zap.Logger) *Reflector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reflector{
		llm:    provider,
		logger: logger,
	}
}

// Reflect produces an insight over the given turns. An error from either LLM
// step aborts the pass; the caller decides whether that is fatal (the memory
// engine treats it as fire-and-forget).
func (r *Reflector) Reflect(ctx context.Context, turns []string) (*Insight, error) {
	questions, err := r.generateQuestions(ctx, turns)
	if err != nil {
		return nil, fmt.Errorf("reflection questions: %w", err)
	}

	answer, err := r.generateAnswer(ctx, questions, turns)
	if err != nil {
		return nil, fmt.Errorf("reflection insight: %w", err)
	}

	r.logger.Debug("reflection produced",
		zap.Int("turns", len(turns)),
		zap.Int("answer_len", len(answer)))

	return &Insight{
		Questions: questions,
		Answer:    answer,
	}, nil
}

func (r *Reflector) generateQuestions(ctx context.Context, turns []string) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("Given only the statements below, what are the 2 most salient high-level questions we can ask about the person making them?\n\n")
	for _, turn := range turns {
		prompt.WriteString("- ")
		prompt.WriteString(turn)
		prompt.WriteString("\n")
	}

	return r.llm.Generate(ctx, prompt.String(),
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(1000),
	)
}

func (r *Reflector) generateAnswer(ctx context.Context, questions string, turns []string) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("Based on the questions below and the person's statement history, extract the key insight about them and reply in condensed language.\n\nQuestions:\n")
	prompt.WriteString(questions)
	prompt.WriteString("\n\nStatement history:\n")
	for _, turn := range turns {
		prompt.WriteString("- ")
		prompt.WriteString(turn)
		prompt.WriteString("\n")
	}

	return r.llm.Generate(ctx, prompt.String(),
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(1000),
	)
}
