// Package grading converts learner answers into per-question results and a
// bounded session score, using the external text-generation service as the
// judge.
package grading

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/pavelanni/proctor/internal/llm"
	"github.com/pavelanni/proctor/internal/model"
)

// Outcome is a graded session: one result per question plus the session's
// raw score in [0, 10]. JudgeTotal is the judge's self-reported total, -1
// when the judge did not state one.
type Outcome struct {
	Results    []model.GradingResult
	RawScore   float64
	JudgeTotal float64
}

// Strategy grades every question of one kind in a single pass.
type Strategy interface {
	Grade(ctx context.Context, questions []model.Question, answers map[string]string) (*Outcome, error)
}

// Engine routes a session to the strategy for its question kind.
type Engine struct {
	strategies map[model.Kind]Strategy
}

// NewEngine installs the built-in strategies: a closed-form matcher for
// multiple-choice and a partial-credit judge for written and essay.
func NewEngine(client llm.Client) *Engine {
	log := slog.Default()
	open := &openFormStrategy{llm: client, log: log}
	return &Engine{
		strategies: map[model.Kind]Strategy{
			model.KindMultipleChoice: &mcqStrategy{llm: client, log: log},
			model.KindWritten:        open,
			model.KindEssay:          open,
		},
	}
}

// Grade grades the session's answers. Every question is guaranteed a result;
// absent answers are treated as empty strings.
func (e *Engine) Grade(ctx context.Context, kind model.Kind, questions []model.Question, answers map[string]string) (*Outcome, error) {
	if len(questions) == 0 {
		return &Outcome{JudgeTotal: -1}, nil
	}
	s, ok := e.strategies[kind]
	if !ok {
		return nil, fmt.Errorf("no grading strategy for kind %q", kind)
	}
	if answers == nil {
		answers = map[string]string{}
	}
	return s.Grade(ctx, questions, answers)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
