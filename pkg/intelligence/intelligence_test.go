package intelligence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warmroom/memstream-go/pkg/intelligence"
	"github.com/warmroom/memstream-go/pkg/llm"
)

// scriptedLLM returns canned responses in order, or an error once the script
// is exhausted.
type scriptedLLM struct {
	responses []string
	err       error
	prompts   []string
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("script exhausted")
	}
	response := s.responses[0]
	s.responses = s.responses[1:]
	return response, nil
}

func (s *scriptedLLM) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return s.Generate(ctx, messages[len(messages)-1].Content, opts...)
}

func (s *scriptedLLM) Close() error { return nil }

func TestAnalyzeParsesScore(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
	}{
		{name: "bare number", response: "7", want: 7},
		{name: "decimal", response: "6.5", want: 6.5},
		{name: "padded", response: "  8 \n", want: 8},
		{name: "embedded", response: "I would rate this 9 out of 10", want: 9},
		{name: "clamped high", response: "15", want: 10},
		{name: "clamped low", response: "0", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := intelligence.NewImportanceAnalyzer(&scriptedLLM{responses: []string{tt.response}}, nil)
			got, err := analyzer.Analyze(context.Background(), "some content")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAnalyzeCallFailure(t *testing.T) {
	analyzer := intelligence.NewImportanceAnalyzer(&scriptedLLM{err: errors.New("timeout")}, nil)
	_, err := analyzer.Analyze(context.Background(), "some content")
	assert.Error(t, err)
}

func TestAnalyzeUnparseableResponse(t *testing.T) {
	analyzer := intelligence.NewImportanceAnalyzer(&scriptedLLM{responses: []string{"no idea"}}, nil)
	_, err := analyzer.Analyze(context.Background(), "some content")
	assert.Error(t, err)
}

func TestReflectTwoSteps(t *testing.T) {
	fake := &scriptedLLM{responses: []string{
		"1. What drives them?\n2. What do they value?",
		"They value family above all.",
	}}
	reflector := intelligence.NewReflector(fake, nil)

	insight, err := reflector.Reflect(context.Background(), []string{
		"I moved to Beijing in the 80s.",
		"My mother raised four of us alone.",
	})
	require.NoError(t, err)

	assert.Contains(t, insight.Questions, "What drives them?")
	assert.Equal(t, "They value family above all.", insight.Answer)

	// Both turns feed the question prompt, and the questions feed the
	// insight prompt.
	require.Len(t, fake.prompts, 2)
	assert.Contains(t, fake.prompts[0], "I moved to Beijing in the 80s.")
	assert.Contains(t, fake.prompts[1], "What drives them?")
	assert.Contains(t, fake.prompts[1], "My mother raised four of us alone.")
}

func TestReflectContentFormat(t *testing.T) {
	insight := &intelligence.Insight{
		Questions: "Q1\nQ2",
		Answer:    "A condensed insight.",
	}

	content := insight.Content()
	assert.Contains(t, content, "[Reflection]")
	assert.Contains(t, content, "Q1\nQ2")
	assert.Contains(t, content, "A condensed insight.")
}

func TestReflectFailurePropagates(t *testing.T) {
	reflector := intelligence.NewReflector(&scriptedLLM{err: errors.New("unavailable")}, nil)
	_, err := reflector.Reflect(context.Background(), []string{"turn"})
	assert.Error(t, err)
}

func TestReflectSecondStepFailure(t *testing.T) {
	// One response scripted: the question step succeeds, the insight step
	// hits an exhausted script.
	reflector := intelligence.NewReflector(&scriptedLLM{responses: []string{"questions"}}, nil)
	_, err := reflector.Reflect(context.Background(), []string{"turn"})
	assert.Error(t, err)
}
