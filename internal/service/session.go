// Package service runs a resume chat session: it loads and indexes the
// resume once, then answers one question at a time by retrieving the most
// similar chunks and asking the language model.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"resumechat/internal/answer"
	"resumechat/internal/conversation"
	"resumechat/internal/document"
	"resumechat/internal/domain"
	"resumechat/internal/embedding"
	"resumechat/internal/generation"
	"resumechat/internal/prompt"
	"resumechat/internal/ranking"
)

const defaultTimeout = 60 * time.Second

// Deps are the components a session is assembled from. Memory, Prompt,
// Answer and Summarizer are optional.
type Deps struct {
	Source     document.Source
	Location   string
	Chunker    domain.Chunker
	Embedder   *embedding.Extractor
	Store      domain.VectorStore
	Generator  generation.Generator
	Prompt     *prompt.Builder
	Memory     *conversation.Memory
	Answer     *answer.Extractor
	Summarizer domain.Summarizer
}

// Options tune retrieval and generation.
type Options struct {
	TopK             int
	Concurrency      int
	SummarySentences int
	Generation       generation.Options
	Timeout          time.Duration
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = ranking.DefaultTopK
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.Generation.MaxTokens <= 0 {
		o.Generation.MaxTokens = generation.DefaultMaxTokens
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return o
}

// Session owns the chunks, their vectors (inside the store) and the
// conversation memory of one resume.
type Session struct {
	deps Deps
	opts Options
	id   string
	log  zerolog.Logger

	chunks   []domain.Chunk
	rejected int
	summary  string

	busy  sync.Mutex
	state atomic.Int32
}

// Status is a snapshot of a session for display.
type Status struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	Chunks    int    `json:"chunks"`
	Rejected  int    `json:"rejected"`
	Dimension int    `json:"dimension"`
	Turns     int    `json:"turns"`
	Summary   string `json:"summary,omitempty"`
	Ready     bool   `json:"ready"`
}

// Open loads, chunks and embeds the resume. On failure no session is
// returned and sink receives the init failure status.
func Open(ctx context.Context, deps Deps, opts Options, sink Sink) (*Session, error) {
	if sink == nil {
		sink = NopSink{}
	}
	s, err := open(ctx, deps, opts.withDefaults(), sink)
	if err != nil {
		log.Error().Err(err).Str("document", deps.Location).Msg("session startup failed")
		sink.OnStatus(InitFailure(err))
		return nil, err
	}
	return s, nil
}

func open(ctx context.Context, deps Deps, opts Options, sink Sink) (*Session, error) {
	if deps.Source == nil || deps.Chunker == nil || deps.Embedder == nil || deps.Store == nil || deps.Generator == nil {
		return nil, fmt.Errorf("%w: session is missing a component", domain.ErrConfiguration)
	}
	if deps.Memory == nil {
		deps.Memory = conversation.NewMemory(conversation.DefaultCapacity)
	}
	if deps.Prompt == nil {
		deps.Prompt = prompt.NewBuilder("")
	}
	if deps.Answer == nil {
		deps.Answer = answer.NewExtractor(answer.DefaultMinLength)
	}
	deps.Memory.Reset()

	id := uuid.NewString()
	s := &Session{deps: deps, opts: opts, id: id, log: log.With().Str("session", id).Logger()}
	s.setState(StateStarting)

	sink.OnStatus(StatusLoading)
	sink.OnProgress(0)
	doc, err := document.Load(ctx, deps.Source, deps.Location)
	if err != nil {
		return nil, err
	}
	sink.OnProgress(10)

	chunks, err := deps.Chunker.Chunk(doc)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s has no usable text", domain.ErrDocumentUnavailable, deps.Location)
	}
	s.chunks = chunks
	s.log.Info().Int("chunks", len(chunks)).Int("text_len", len(doc.Content)).Msg("resume chunked")
	sink.OnProgress(20)

	sink.OnStatus(StatusEmbedding)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	svc := deps.Embedder.Service()
	if err := svc.Prepare(texts); err != nil {
		return nil, fmt.Errorf("prepare %s embedder: %w", svc.Name(), err)
	}
	vectors, rejected, err := deps.Embedder.EmbedAll(ctx, texts, opts.Concurrency)
	if err != nil {
		return nil, err
	}
	s.rejected = len(rejected)
	sink.OnProgress(90)

	if err := deps.Store.Init(deps.Embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	if err := deps.Store.Upsert(chunks, vectors); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}

	if deps.Summarizer != nil {
		summary, err := deps.Summarizer.Summarize(doc.Content, opts.SummarySentences)
		if err != nil {
			s.log.Warn().Err(err).Msg("summary failed")
		}
		s.summary = summary
	}

	s.log.Info().
		Str("embedder", svc.Name()).
		Str("generator", deps.Generator.Name()).
		Int("dimension", deps.Embedder.Dimension()).
		Int("rejected", s.rejected).
		Msg("session ready")
	s.setState(StateIdle)
	sink.OnProgress(100)
	sink.OnStatus(StatusReady)
	sink.OnMessage(SenderAssistant, Greeting, false)
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	if st != StateStarting && st != StateIdle {
		s.log.Debug().Str("state", st.String()).Msg("state")
	}
}

// Chunks returns a copy of the indexed chunks.
func (s *Session) Chunks() []domain.Chunk {
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

func (s *Session) Summary() string { return s.summary }

// Memory returns the recent turns, oldest first.
func (s *Session) Memory() []domain.Turn { return s.deps.Memory.Recent() }

func (s *Session) Status() Status {
	st := s.State()
	return Status{
		ID:        s.id,
		State:     st.String(),
		Chunks:    len(s.chunks),
		Rejected:  s.rejected,
		Dimension: s.deps.Embedder.Dimension(),
		Turns:     s.deps.Memory.Len(),
		Summary:   s.summary,
		Ready:     !st.Busy(),
	}
}

// Search ranks the chunks against question without generating an answer.
func (s *Session) Search(ctx context.Context, question string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = s.opts.TopK
	}
	vec, err := s.deps.Embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	return s.deps.Store.Search(vec, topK)
}

// Ask answers question, reporting progress and the answer to sink. Only one
// question is answered at a time; a concurrent call gets domain.ErrBusy.
// Failures are shown to the user as answer.Failure and returned; the memory
// is left untouched in that case.
func (s *Session) Ask(ctx context.Context, question string, sink Sink) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil
	}
	if sink == nil {
		sink = NopSink{}
	}
	if !s.busy.TryLock() {
		return "", domain.ErrBusy
	}
	defer s.busy.Unlock()

	started := time.Now()
	sink.OnMessage(SenderUser, question, false)
	sink.OnStatus(StatusThinking)

	var handle MessageHandle
	final, err := s.answer(ctx, question, sink, &handle)
	if err != nil {
		s.setState(StateErrored)
		s.log.Error().Err(err).Str("question", question).Msg("answering failed")
		final = answer.Failure
	}
	if handle != nil {
		handle.Finish(final)
	} else {
		sink.OnMessage(SenderAssistant, final, false)
	}
	s.setState(StateIdle)
	sink.OnStatus(StatusReady)
	s.log.Info().Dur("took", time.Since(started)).Bool("failed", err != nil).Int("answer_len", len(final)).Msg("question answered")
	return final, err
}

func (s *Session) answer(ctx context.Context, question string, sink Sink, handle *MessageHandle) (string, error) {
	s.setState(StateEmbedding)
	vec, err := s.deps.Embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	s.setState(StateRanking)
	results, err := s.deps.Store.Search(vec, s.opts.TopK)
	if err != nil {
		return "", fmt.Errorf("rank chunks: %w", err)
	}
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
		s.log.Debug().Int("rank", i).Int("chunk", r.Chunk.Index).Float64("score", r.Score).Msg("retrieved")
	}

	s.setState(StatePrompting)
	p := s.deps.Prompt.Build(question, texts, s.deps.Memory.Recent())

	s.setState(StateGenerating)
	gctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	resp, err := s.deps.Generator.Generate(gctx, p, s.opts.Generation)
	if err != nil {
		if !errors.Is(err, domain.ErrGeneration) {
			err = fmt.Errorf("%w: %w", domain.ErrGeneration, err)
		}
		return "", err
	}
	raw, err := generation.Collect(gctx, resp, func(delta string) {
		if *handle == nil {
			*handle = sink.OnMessage(SenderAssistant, delta, true)
			return
		}
		(*handle).Append(delta)
	})
	if err != nil {
		return "", err
	}

	s.setState(StateFinalizing)
	top := ""
	if len(results) > 0 {
		top = results[0].Chunk.Text
	}
	final := s.deps.Answer.Extract(raw, top)
	s.deps.Memory.Record(question, final)
	return final, nil
}
