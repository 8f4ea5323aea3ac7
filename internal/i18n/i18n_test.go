package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "PenaltyNone")
	if got != "Submitted on time" {
		t.Errorf("T(PenaltyNone) = %q, want 'Submitted on time'", got)
	}

	got = T(ctx, "StatusPartial")
	if got != "Partially correct" {
		t.Errorf("T(StatusPartial) = %q, want 'Partially correct'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "PenaltyNone")
	if got != "Сдано вовремя" {
		t.Errorf("T(PenaltyNone) = %q, want 'Сдано вовремя'", got)
	}

	got = T(ctx, "StatusCorrect")
	if got != "Верно" {
		t.Errorf("T(StatusCorrect) = %q, want 'Верно'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := TData(ctx, "PenaltyFlat", map[string]any{"Minutes": 15, "Amount": 0.5})
	if got != "Submitted 15 minutes late, -0.5 points" {
		t.Errorf("TData(PenaltyFlat) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the key itself", got)
	}
}

func TestFallbackToDefaultLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// No localizer in the context falls back to English.
	got := T(context.Background(), "StatusIncorrect")
	if got != "Incorrect" {
		t.Errorf("T without localizer = %q, want 'Incorrect'", got)
	}
}
