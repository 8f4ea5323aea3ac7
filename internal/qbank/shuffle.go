package qbank

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/pavelanni/proctor/internal/model"
)

var optionLetters = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

// ShuffleQuestions permutes the standalone questions while keeping every
// passage-grouped question in its original slot, so grouped questions stay
// next to their passage.
func ShuffleQuestions(qs []model.Question) []model.Question {
	out := make([]model.Question, len(qs))
	copy(out, qs)

	var pool []int
	for i, q := range out {
		if q.GroupID == "" {
			pool = append(pool, i)
		}
	}

	// Fisher-Yates over the standalone slots only.
	for i := len(pool) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		out[pool[i]], out[pool[j]] = out[pool[j]], out[pool[i]]
	}
	return out
}

// ShuffleOptions permutes a multiple-choice question's options, re-lettering
// the prefixes and keeping CorrectAnswer pointed at the same option body.
// Open-form kinds are returned unchanged.
func ShuffleOptions(q model.Question) model.Question {
	if q.Kind != model.KindMultipleChoice || len(q.Options) < 2 {
		return q
	}

	correctBody := optionBody(q.CorrectAnswer)
	bodies := make([]string, len(q.Options))
	for i, opt := range q.Options {
		bodies[i] = optionBody(opt)
	}
	rand.Shuffle(len(bodies), func(i, j int) {
		bodies[i], bodies[j] = bodies[j], bodies[i]
	})

	opts := make([]string, len(bodies))
	for i, body := range bodies {
		letter := fmt.Sprintf("%d", i+1)
		if i < len(optionLetters) {
			letter = optionLetters[i]
		}
		opts[i] = letter + ". " + body
		if body == correctBody && correctBody != "" {
			q.CorrectAnswer = opts[i]
		}
	}
	q.Options = opts
	return q
}

// optionBody strips a leading option-letter prefix like "C. " or "b)".
func optionBody(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first := s[0]
		isLetter := (first >= 'A' && first <= 'Z') || (first >= 'a' && first <= 'z')
		if isLetter && (s[1] == '.' || s[1] == ')' || s[1] == ':') {
			return strings.TrimSpace(s[2:])
		}
	}
	return s
}
