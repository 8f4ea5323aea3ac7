package grading

import (
	"regexp"
	"strconv"
	"strings"
)

// Judge output is semi-structured text; these parsers recover it with
// permissive scanning, indexed by expected question number rather than by
// order of appearance. A question the judge omitted or mangled simply stays
// unmatched and defaults to unanswered upstream.

// mcqVerdict is one parsed line of closed-form judge output.
type mcqVerdict struct {
	Matched bool
	Verdict string // correct | incorrect | unanswered
	Answer  string
	Reason  string
}

// openVerdict is one parsed block of open-form judge output.
type openVerdict struct {
	Matched     bool
	PercentOnly bool // fallback NN% scan, no full block
	Percent     float64
	Score       float64
	Max         float64
	Level       string
	Answer      string
	Breakdown   string
}

var (
	mcqLineRe   = regexp.MustCompile(`(?im)^\s*(?:question|q)\s*(\d+)\s*[:.)\-]\s*(correct|incorrect|unanswered)\b(.*)$`)
	answerRe    = regexp.MustCompile(`(?i)answer\s*[:=]\s*([^|\n]+)`)
	reasonRe    = regexp.MustCompile(`(?i)reason\s*[:=]\s*([^|\n]+)`)
	totalRe     = regexp.MustCompile(`(?i)total\s*[:=]?\s*(\d+(?:[.,]\d+)?)\s*(?:/\s*10)?`)
	headingRe   = regexp.MustCompile(`(?im)^\s*(?:question|q)\s*(\d+)\s*[:.]`)
	scoreRe     = regexp.MustCompile(`(?i)score\s*[:=]\s*(\d+(?:[.,]\d+)?)\s*/\s*(\d+(?:[.,]\d+)?)`)
	percentRe   = regexp.MustCompile(`(?i)percent\s*[:=]\s*(\d+(?:[.,]\d+)?)\s*%`)
	anyPctRe    = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	levelRe     = regexp.MustCompile(`(?i)level\s*[:=]\s*([^\n]+)`)
	breakdownRe = regexp.MustCompile(`(?i)breakdown\s*[:=]\s*([^\n]+)`)
)

// parseMCQJudgment extracts one verdict per expected question number from
// raw judge text, plus the judge's self-reported total (-1 when absent).
func parseMCQJudgment(raw string, count int) ([]mcqVerdict, float64) {
	verdicts := make([]mcqVerdict, count)

	for _, m := range mcqLineRe.FindAllStringSubmatch(raw, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > count || verdicts[n-1].Matched {
			continue
		}
		v := mcqVerdict{
			Matched: true,
			Verdict: strings.ToLower(m[2]),
		}
		tail := m[3]
		if am := answerRe.FindStringSubmatch(tail); am != nil {
			v.Answer = strings.TrimSpace(am[1])
		}
		if rm := reasonRe.FindStringSubmatch(tail); rm != nil {
			v.Reason = strings.TrimSpace(rm[1])
		}
		verdicts[n-1] = v
	}

	return verdicts, parseJudgeTotal(raw)
}

// parseOpenFormJudgment extracts one block per expected question number. If
// the primary block pattern fails for a question, any NN% token inside that
// question's segment is used instead.
func parseOpenFormJudgment(raw string, count int) ([]openVerdict, float64) {
	verdicts := make([]openVerdict, count)

	headings := headingRe.FindAllStringSubmatchIndex(raw, -1)
	for i, h := range headings {
		numStr := raw[h[2]:h[3]]
		n, err := strconv.Atoi(numStr)
		if err != nil || n < 1 || n > count || verdicts[n-1].Matched {
			continue
		}
		end := len(raw)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		segment := raw[h[1]:end]
		verdicts[n-1] = parseOpenSegment(segment)
	}

	return verdicts, parseJudgeTotal(raw)
}

func parseOpenSegment(segment string) openVerdict {
	v := openVerdict{}

	if sm := scoreRe.FindStringSubmatch(segment); sm != nil {
		v.Score = parseNum(sm[1])
		v.Max = parseNum(sm[2])
		v.Matched = true
	}
	if pm := percentRe.FindStringSubmatch(segment); pm != nil {
		v.Percent = parseNum(pm[1])
		v.Matched = true
	} else if v.Matched && v.Max > 0 {
		v.Percent = v.Score / v.Max * 100
	}
	if lm := levelRe.FindStringSubmatch(segment); lm != nil {
		v.Level = strings.TrimSpace(lm[1])
	}
	if am := answerRe.FindStringSubmatch(segment); am != nil {
		v.Answer = strings.TrimSpace(am[1])
	}
	if bm := breakdownRe.FindStringSubmatch(segment); bm != nil {
		v.Breakdown = strings.TrimSpace(bm[1])
	}

	if !v.Matched {
		// Fallback: any percentage token near the question heading.
		if pm := anyPctRe.FindStringSubmatch(segment); pm != nil {
			v.Percent = parseNum(pm[1])
			v.Matched = true
			v.PercentOnly = true
		}
	}
	return v
}

// parseJudgeTotal finds the judge's self-reported grand total, or -1.
func parseJudgeTotal(raw string) float64 {
	if tm := totalRe.FindStringSubmatch(raw); tm != nil {
		return parseNum(tm[1])
	}
	return -1
}

func parseNum(s string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return f
}
