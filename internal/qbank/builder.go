// Package qbank turns a source document into a typed, ordered question bank,
// either in a single generation call or through a sequential multi-batch
// pipeline that keeps every batch on one question kind.
package qbank

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pavelanni/proctor/internal/llm"
	"github.com/pavelanni/proctor/internal/llm/prompts"
	"github.com/pavelanni/proctor/internal/model"
	"github.com/pavelanni/proctor/internal/store"
)

// BatchSize caps one generation unit. Counts above it run the batched
// pipeline.
const BatchSize = 20

// Result is the resolved question bank. Every question's Kind equals Kind.
type Result struct {
	Questions []model.Question `json:"questions"`
	Kind      model.Kind       `json:"kind"`
}

// ProgressFunc reports batch sub-progress to the caller.
type ProgressFunc func(batch, totalBatches, built int)

// Builder derives question banks from documents via the text-generation
// service and caches the outcome per document.
type Builder struct {
	llm llm.Client
	kv  store.KV
	log *slog.Logger
}

// NewBuilder creates a Builder. kv may be nil to disable caching.
func NewBuilder(client llm.Client, kv store.KV) *Builder {
	return &Builder{llm: client, kv: kv, log: slog.Default()}
}

// Build returns the question bank for doc, reusing the cached result when the
// same document was already built. progress may be nil.
func (b *Builder) Build(ctx context.Context, doc model.Document, cfg model.BuildConfig, progress ProgressFunc) (*Result, error) {
	if cached := b.cached(ctx, doc.ID); cached != nil {
		b.log.Info("question bank cache hit", "document", doc.ID, "questions", len(cached.Questions))
		return cached, nil
	}

	var (
		res *Result
		err error
	)
	if cfg.QuestionCount <= BatchSize {
		res, err = b.buildSinglePass(ctx, doc, cfg)
	} else {
		res, err = b.buildBatched(ctx, doc, cfg, progress)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Shuffle && res.Kind != model.KindEssay {
		res.Questions = ShuffleQuestions(res.Questions)
	}
	if cfg.ShuffleOptions && res.Kind == model.KindMultipleChoice {
		for i, q := range res.Questions {
			res.Questions[i] = ShuffleOptions(q)
		}
	}

	b.cache(ctx, doc.ID, res)
	return res, nil
}

// ClearCache drops the cached bank for a document. Called after a successful
// submission so a fresh attempt regenerates.
func (b *Builder) ClearCache(ctx context.Context, documentID string) {
	if b.kv == nil {
		return
	}
	if err := b.kv.Delete(ctx, store.QuestionsKey(documentID)); err != nil {
		b.log.Warn("clear question cache", "document", documentID, "error", err)
	}
}

func (b *Builder) buildSinglePass(ctx context.Context, doc model.Document, cfg model.BuildConfig) (*Result, error) {
	raw, err := b.llm.Generate(ctx, llm.Request{
		Prompt:     prompts.BuildSinglePass(doc, cfg),
		System:     prompts.GenerationSystem,
		Attachment: doc.Attachment,
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	rawQs, ok, err := parseQuestionArray(raw)
	if err != nil {
		b.log.Warn("unparsable question array, falling back to essay", "document", doc.ID, "error", err)
	}
	if !ok || len(rawQs) == 0 {
		// No discrete questions: the essay flow presents the raw document.
		return &Result{Kind: model.KindEssay}, nil
	}

	kind := inferKind(rawQs)
	return &Result{Questions: b.materialize(rawQs, kind, 1), Kind: kind}, nil
}

func (b *Builder) buildBatched(ctx context.Context, doc model.Document, cfg model.BuildConfig, progress ProgressFunc) (*Result, error) {
	total := (cfg.QuestionCount + BatchSize - 1) / BatchSize
	res := &Result{}

	for batch := 0; batch < total; batch++ {
		size := BatchSize
		if batch == total-1 {
			size = cfg.QuestionCount - batch*BatchSize
		}

		raw, err := b.llm.Generate(ctx, llm.Request{
			Prompt:     prompts.BuildBatch(doc, cfg, batch, size, res.Kind, res.Questions),
			System:     prompts.GenerationSystem,
			Attachment: doc.Attachment,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A failed batch contributes nothing; the pipeline moves on.
			b.log.Warn("batch generation failed, skipping", "document", doc.ID, "batch", batch+1, "error", err)
			b.report(progress, batch+1, total, len(res.Questions))
			continue
		}

		rawQs, ok, err := parseQuestionArray(raw)
		if err != nil || !ok {
			b.log.Warn("unparsable batch, skipping", "document", doc.ID, "batch", batch+1, "error", err)
			b.report(progress, batch+1, total, len(res.Questions))
			continue
		}

		if res.Kind == "" || res.Kind == model.KindEssay {
			res.Kind = inferKind(rawQs)
		}
		res.Questions = append(res.Questions, b.materialize(rawQs, res.Kind, batch+1)...)
		b.report(progress, batch+1, total, len(res.Questions))
	}

	if len(res.Questions) == 0 {
		res.Kind = model.KindEssay
	}
	return res, nil
}

// materialize converts raw questions to the pinned kind and namespaces their
// IDs per batch so accumulated IDs never collide.
func (b *Builder) materialize(rawQs []rawQuestion, kind model.Kind, batch int) []model.Question {
	out := make([]model.Question, 0, len(rawQs))
	for i, rq := range rawQs {
		q := model.Question{
			ID:            fmt.Sprintf("q%d_%d", batch, i+1),
			Text:          rq.Text,
			Options:       rq.Options,
			CorrectAnswer: rq.CorrectAnswer,
			Passage:       rq.Passage,
			GroupID:       rq.Group,
			Kind:          kind,
		}
		out = append(out, Normalize(q, kind))
	}
	return out
}

func (b *Builder) report(progress ProgressFunc, batch, total, built int) {
	if progress != nil {
		progress(batch, total, built)
	}
}

func (b *Builder) cached(ctx context.Context, documentID string) *Result {
	if b.kv == nil || documentID == "" {
		return nil
	}
	data, err := b.kv.Get(ctx, store.QuestionsKey(documentID))
	if err != nil {
		b.log.Warn("read question cache", "document", documentID, "error", err)
		return nil
	}
	if data == nil {
		return nil
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		b.log.Warn("decode question cache", "document", documentID, "error", err)
		return nil
	}
	return &res
}

func (b *Builder) cache(ctx context.Context, documentID string, res *Result) {
	if b.kv == nil || documentID == "" {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := b.kv.Set(ctx, store.QuestionsKey(documentID), data); err != nil {
		b.log.Warn("write question cache", "document", documentID, "error", err)
	}
}
