package grading

import "testing"

func TestParseMCQJudgment(t *testing.T) {
	raw := `Here is my assessment of the answers:

Question 1: Correct | Answer: B. TCP | Reason: matches the canonical choice
Question 2: Incorrect | Answer: A. UDP | Reason: learner chose C
Q3: Unanswered
Question 4: Correct

Total: 5/10`

	verdicts, total := parseMCQJudgment(raw, 4)
	if total != 5 {
		t.Errorf("judge total = %v, want 5", total)
	}
	want := []struct {
		matched bool
		verdict string
		answer  string
		reason  string
	}{
		{true, "correct", "B. TCP", "matches the canonical choice"},
		{true, "incorrect", "A. UDP", "learner chose C"},
		{true, "unanswered", "", ""},
		{true, "correct", "", ""},
	}
	for i, w := range want {
		v := verdicts[i]
		if v.Matched != w.matched || v.Verdict != w.verdict || v.Answer != w.answer || v.Reason != w.reason {
			t.Errorf("verdict %d = %+v, want %+v", i+1, v, w)
		}
	}
}

func TestParseMCQJudgmentSparse(t *testing.T) {
	// The judge skipped question 2 and reported question 5 which does not
	// exist; both must leave the slots unmatched without shifting others.
	raw := `Question 1: Correct
Question 3: Incorrect
Question 5: Correct`

	verdicts, total := parseMCQJudgment(raw, 3)
	if total != -1 {
		t.Errorf("judge total = %v, want -1 when absent", total)
	}
	if !verdicts[0].Matched || verdicts[0].Verdict != "correct" {
		t.Errorf("verdict 1 = %+v", verdicts[0])
	}
	if verdicts[1].Matched {
		t.Errorf("verdict 2 should be unmatched, got %+v", verdicts[1])
	}
	if !verdicts[2].Matched || verdicts[2].Verdict != "incorrect" {
		t.Errorf("verdict 3 = %+v", verdicts[2])
	}
}

func TestParseMCQJudgmentFirstMatchWins(t *testing.T) {
	raw := `Question 1: Correct
Question 1: Incorrect`
	verdicts, _ := parseMCQJudgment(raw, 1)
	if verdicts[0].Verdict != "correct" {
		t.Errorf("verdict = %q, want the first occurrence", verdicts[0].Verdict)
	}
}

func TestParseOpenFormJudgment(t *testing.T) {
	raw := `Question 1:
Score: 2/2.5
Percent: 80%
Level: good understanding
Answer: the scheduler preempts at safepoints
Breakdown: correct mechanism, missed the timing detail

Question 2:
Score: 0/2.5
Percent: 0%
Level: no relevant content

Total: 2/10`

	verdicts, total := parseOpenFormJudgment(raw, 2)
	if total != 2 {
		t.Errorf("judge total = %v, want 2", total)
	}

	v := verdicts[0]
	if !v.Matched || v.PercentOnly {
		t.Fatalf("verdict 1 = %+v", v)
	}
	if v.Score != 2 || v.Max != 2.5 || v.Percent != 80 {
		t.Errorf("numbers = score %v / max %v, percent %v", v.Score, v.Max, v.Percent)
	}
	if v.Level != "good understanding" || v.Breakdown != "correct mechanism, missed the timing detail" {
		t.Errorf("text fields = %+v", v)
	}
	if v.Answer != "the scheduler preempts at safepoints" {
		t.Errorf("answer = %q", v.Answer)
	}

	if got := verdicts[1]; !got.Matched || got.Percent != 0 {
		t.Errorf("verdict 2 = %+v", got)
	}
}

func TestParseOpenFormPercentFallback(t *testing.T) {
	// No Score/Percent lines, just a percentage in prose.
	raw := `Question 1: the response covers roughly 40% of the expected points.`
	verdicts, _ := parseOpenFormJudgment(raw, 1)
	v := verdicts[0]
	if !v.Matched || !v.PercentOnly || v.Percent != 40 {
		t.Errorf("verdict = %+v, want percent-only 40", v)
	}
}

func TestParseOpenFormPercentDerivedFromScore(t *testing.T) {
	raw := `Question 1:
Score: 1.25/2.5`
	verdicts, _ := parseOpenFormJudgment(raw, 1)
	v := verdicts[0]
	if !v.Matched || v.Percent != 50 {
		t.Errorf("verdict = %+v, want derived percent 50", v)
	}
}

func TestParseNumCommaDecimal(t *testing.T) {
	if got := parseNum("7,5"); got != 7.5 {
		t.Errorf("parseNum(7,5) = %v", got)
	}
	if got := parseNum("not a number"); got != 0 {
		t.Errorf("parseNum garbage = %v", got)
	}
}

func TestParseJudgeTotalAbsent(t *testing.T) {
	if got := parseJudgeTotal("no grand score here"); got != -1 {
		t.Errorf("total = %v, want -1", got)
	}
}
