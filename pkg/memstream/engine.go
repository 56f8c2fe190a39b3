package memstream

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warmroom/memstream-go/pkg/embedder"
	"github.com/warmroom/memstream-go/pkg/intelligence"
	"github.com/warmroom/memstream-go/pkg/llm"
	"github.com/warmroom/memstream-go/pkg/snapshot"
)

// ImportanceScorer rates a memory's importance on a 1-10 scale.
// *intelligence.ImportanceAnalyzer is the production implementation.
type ImportanceScorer interface {
	Analyze(ctx context.Context, content string) (float64, error)
}

// InsightGenerator condenses recent dialogue turns into a reflection
// insight. *intelligence.Reflector is the production implementation.
type InsightGenerator interface {
	Reflect(ctx context.Context, turns []string) (*intelligence.Insight, error)
}

// Engine is the retrieval engine's public surface. It ties together the
// embedding service, the memory stream, the dialogue window, and the
// LLM-backed importance and reflection steps.
//
// Conversational operations never block on the LLM: dialogue memories enter
// the stream with a neutral importance and are revised in the background,
// and reflection runs as a background job once enough dialogue accumulates.
type Engine struct {
	logger    *zap.Logger
	embed     *embedder.Service
	scorer    ImportanceScorer
	reflector InsightGenerator
	scheduler Scheduler
	stream    *Stream
	node      *snowflake.Node

	llmProvider llm.Provider

	// mu guards the window and the unprocessed counter so the
	// count-and-schedule step of reflection is atomic.
	mu                  sync.Mutex
	window              *DialogueWindow
	unprocessed         int
	reflectionThreshold int
	windowSize          int

	streamOpts []StreamOption
}

// NewEngine creates an engine around an embedding service and an optional
// LLM provider. Without an LLM provider, importance stays at the neutral
// score and reflection is disabled; embedding and retrieval still work.
func NewEngine(embed *embedder.Service, llmProvider llm.Provider, opts ...EngineOption) (*Engine, error) {
	if embed == nil {
		return nil, NewStreamError("NewEngine", errors.New("embedding service is required"))
	}

	e := &Engine{
		logger:              zap.NewNop(),
		embed:               embed,
		llmProvider:         llmProvider,
		scheduler:           NewGoScheduler(),
		reflectionThreshold: DefaultReflectionThreshold,
		windowSize:          DefaultWindowSize,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.scorer == nil && llmProvider != nil {
		e.scorer = intelligence.NewImportanceAnalyzer(llmProvider, e.logger)
	}
	if e.reflector == nil && llmProvider != nil {
		e.reflector = intelligence.NewReflector(llmProvider, e.logger)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewStreamError("NewEngine", err)
	}
	e.node = node

	streamOpts := append([]StreamOption{WithStreamLogger(e.logger)}, e.streamOpts...)
	stream, err := NewStream(embed.Dimensions(), streamOpts...)
	if err != nil {
		return nil, err
	}
	e.stream = stream
	e.window = NewDialogueWindow(e.windowSize)

	return e, nil
}

// AddDialogueMemory records one conversational turn.
//
// The turn is embedded (with a zero-vector fallback on provider failure),
// stored at the neutral importance, and appended to the dialogue window. Two
// background jobs may be scheduled: an importance revision for this memory,
// and a reflection once the unprocessed dialogue count reaches the
// reflection threshold.
func (e *Engine) AddDialogueMemory(ctx context.Context, content string) (*Memory, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewStreamError("AddDialogueMemory", errors.New("empty content"))
	}

	embedding := e.embed.GetEmbedding(ctx, content)

	memory := &Memory{
		ID:         e.node.Generate().Int64(),
		Content:    content,
		Embedding:  embedding,
		Importance: NeutralImportance,
		Kind:       KindDialogue,
	}
	e.stream.Add(memory)

	// Counter reset must be atomic with the scheduling decision so rapid
	// sequential turns cannot double-fire one batch.
	e.mu.Lock()
	e.window.Append(content)
	e.unprocessed++
	fire := e.unprocessed >= e.reflectionThreshold
	if fire {
		e.unprocessed = 0
	}
	e.mu.Unlock()

	if e.scorer != nil {
		e.scheduler.Schedule(func() {
			e.reviseImportance(memory)
		})
	}
	if fire && e.reflector != nil {
		e.logger.Info("reflection threshold reached")
		e.scheduler.Schedule(e.runReflection)
	}

	return memory, nil
}

// AddReflectionMemory stores an insight as a first-class memory. Unlike the
// dialogue path, the importance score is resolved before the memory enters
// the stream; embedding and scoring run concurrently. A scoring failure
// falls back to the neutral importance.
func (e *Engine) AddReflectionMemory(ctx context.Context, content string) (*Memory, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewStreamError("AddReflectionMemory", errors.New("empty content"))
	}

	var (
		g          errgroup.Group
		embedding  []float32
		importance = NeutralImportance
	)
	g.Go(func() error {
		embedding = e.embed.GetEmbedding(ctx, content)
		return nil
	})
	g.Go(func() error {
		if e.scorer == nil {
			return nil
		}
		score, err := e.scorer.Analyze(ctx, content)
		if err != nil {
			e.logger.Warn("importance scoring failed, using neutral score",
				zap.Error(err))
			return nil
		}
		importance = score
		return nil
	})
	_ = g.Wait()

	memory := &Memory{
		ID:         e.node.Generate().Int64(),
		Content:    content,
		Embedding:  embedding,
		Importance: importance,
		Kind:       KindReflection,
	}
	e.stream.Add(memory)

	return memory, nil
}

// Retrieve returns the memories most relevant to the query text, ranked by
// the composite recency/importance/relevance score. Defaults: DefaultTopK
// results, DefaultWeights.
func (e *Engine) Retrieve(ctx context.Context, query string, opts ...RetrieveOption) []*Memory {
	if strings.TrimSpace(query) == "" {
		return []*Memory{}
	}

	params := retrieveParams{
		topK:    DefaultTopK,
		weights: DefaultWeights,
	}
	for _, opt := range opts {
		opt(&params)
	}

	embedding := e.embed.GetEmbedding(ctx, query)
	return e.stream.Retrieve(embedding, params.topK, params.weights)
}

// RecentTurns returns up to n most recent dialogue turns, for prompt
// assembly by callers.
func (e *Engine) RecentTurns(n int) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.window.Last(n)
}

// Stream exposes the underlying memory stream.
func (e *Engine) Stream() *Stream {
	return e.stream
}

// Len returns the number of tracked memories.
func (e *Engine) Len() int {
	return e.stream.Len()
}

// Clear discards all memories, the dialogue window, and the unprocessed
// dialogue count. In-flight background jobs against discarded memories may
// still complete; they mutate objects the stream no longer references.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.window.Reset()
	e.unprocessed = 0
	e.mu.Unlock()

	e.stream.Clear()
}

// SaveSnapshot persists all tracked memories to the store, replacing any
// previous snapshot.
func (e *Engine) SaveSnapshot(ctx context.Context, store *snapshot.Store) error {
	if store == nil {
		return NewStreamError("SaveSnapshot", errors.New("nil snapshot store"))
	}

	records := memoriesToRecords(e.stream.Snapshot())
	if err := store.Save(ctx, records); err != nil {
		return NewStreamError("SaveSnapshot", err)
	}

	e.logger.Info("snapshot saved", zap.Int("memories", len(records)))
	return nil
}

// LoadSnapshot replaces the engine's memories with the store's snapshot,
// rebuilding the vector index. The dialogue window and reflection counter
// reset; retrieval state (timestamps, importances) survives the round trip.
func (e *Engine) LoadSnapshot(ctx context.Context, store *snapshot.Store) error {
	if store == nil {
		return NewStreamError("LoadSnapshot", errors.New("nil snapshot store"))
	}

	records, err := store.Load(ctx)
	if err != nil {
		return NewStreamError("LoadSnapshot", err)
	}

	e.mu.Lock()
	e.window.Reset()
	e.unprocessed = 0
	e.mu.Unlock()

	e.stream.Restore(recordsToMemories(records))

	e.logger.Info("snapshot loaded", zap.Int("memories", len(records)))
	return nil
}

// Wait blocks until all scheduled background jobs finish.
func (e *Engine) Wait() {
	e.scheduler.Wait()
}

// Close waits for background jobs, then closes the embedding service and
// the LLM provider.
func (e *Engine) Close() error {
	e.Wait()

	var firstErr error
	if err := e.embed.Close(); err != nil {
		firstErr = err
	}
	if e.llmProvider != nil {
		if err := e.llmProvider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return NewStreamError("Close", firstErr)
	}
	return nil
}

// reviseImportance rescores a dialogue memory in the background. Failures
// leave the neutral score in place.
func (e *Engine) reviseImportance(memory *Memory) {
	score, err := e.scorer.Analyze(context.Background(), memory.Content)
	if err != nil {
		e.logger.Warn("importance revision failed, keeping neutral score",
			zap.Int64("memory_id", memory.ID),
			zap.Error(err))
		return
	}

	e.stream.ReviseImportance(memory, score)
	e.logger.Debug("importance revised",
		zap.Int64("memory_id", memory.ID),
		zap.Float64("importance", score))
}

// runReflection distills the most recent turns into an insight and stores it
// as a reflection memory. The turns are read when the job runs, not when it
// was scheduled: if Clear emptied the window in between, the job is a no-op.
// All failures are logged and swallowed: reflection is an enhancement, never
// a source of caller-visible errors.
func (e *Engine) runReflection() {
	e.mu.Lock()
	turns := e.window.Last(e.reflectionThreshold)
	e.mu.Unlock()

	if len(turns) < e.reflectionThreshold {
		e.logger.Debug("not enough turns for reflection",
			zap.Int("turns", len(turns)))
		return
	}

	insight, err := e.reflector.Reflect(context.Background(), turns)
	if err != nil {
		e.logger.Warn("reflection failed", zap.Error(err))
		return
	}

	memory, err := e.AddReflectionMemory(context.Background(), insight.Content())
	if err != nil {
		e.logger.Warn("storing reflection failed", zap.Error(err))
		return
	}

	e.logger.Info("reflection memory added",
		zap.Int64("memory_id", memory.ID),
		zap.Float64("importance", memory.Importance))
}
