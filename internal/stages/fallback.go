package stages

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// MaxMetaTitleRunes — длина meta title в заглушке оптимизатора.
const MaxMetaTitleRunes = 60

// FallbackIntentSummary — интент из заглушки serp-intel.
const FallbackIntentSummary = "Informational: user seeks guidance on the topic."

// FallbackStructuredData — минимальная schema.org разметка.
var FallbackStructuredData = json.RawMessage(`{"@type":"Article"}`)

// Fallback — детерминированные локальные заглушки всех стадий.
// Никогда не возвращает ошибку.
type Fallback struct{}

// AnalyzeIntent возвращает типовую структуру статьи.
func (Fallback) AnalyzeIntent(_ context.Context, req IntentRequest) (*IntentResult, error) {
	return &IntentResult{
		SuggestedStructure: map[string]any{
			"h1":       req.Keyword,
			"sections": []any{"intro", "benefits", "how_to_choose", "faq"},
		},
		IntentSummary: FallbackIntentSummary,
		Degraded:      true,
	}, nil
}

// GenerateDraft заполняет шаблон черновика. Текст помечен как заглушка.
func (Fallback) GenerateDraft(_ context.Context, req DraftRequest) (*DraftResult, error) {
	structure, err := json.Marshal(req.SuggestedStructure)
	if err != nil {
		structure = []byte("{}")
	}

	md := fmt.Sprintf(`# %s

*Оригинальный материал. Ключевое слово: %s. Регион: %s.*

## Введение

Краткое введение по теме (генерируется LLM в продакшене).

## Основной раздел

Содержание на основе структуры: %s.

## Заключение

Итоги и призыв к действию.

---
*Сгенерировано SEO AI Agent (stub).*
`, req.Topic, req.Keyword, req.Region, structure)

	return &DraftResult{Markdown: md, Degraded: true}, nil
}

// Optimize возвращает черновик без изменений.
func (Fallback) Optimize(_ context.Context, req OptimizeRequest) (*OptimizeResult, error) {
	return &OptimizeResult{
		FinalMarkdown:   req.Draft,
		MetaTitle:       truncateRunes(req.Keyword, MaxMetaTitleRunes),
		MetaDescription: "",
		FAQ:             nil,
		StructuredData:  append(json.RawMessage(nil), FallbackStructuredData...),
		Degraded:        true,
	}, nil
}

// CheckQuality всегда пропускает текст с максимальной уникальностью.
func (Fallback) CheckQuality(_ context.Context, _ QualityRequest) (*QualityResult, error) {
	return &QualityResult{
		Pass:       true,
		Uniqueness: 1.0,
		LengthOK:   true,
		Details:    "stub",
		Degraded:   true,
	}, nil
}

// Publish синтезирует локальную страницу по slug.
func (Fallback) Publish(_ context.Context, req PublishRequest) (*PublishResult, error) {
	return &PublishResult{
		PageID:   FallbackPageID(req.Slug),
		URL:      "https://tilda.cc/stub/" + req.Slug,
		Slug:     req.Slug,
		AsDraft:  req.AsDraft,
		Degraded: true,
	}, nil
}

// FallbackPageID — id страницы заглушки: "stub-" и 12 hex sha1(slug).
// Длина постоянна при любом slug.
func FallbackPageID(slug string) string {
	sum := sha1.Sum([]byte(slug))
	return "stub-" + hex.EncodeToString(sum[:])[:12]
}

// truncateRunes обрезает строку до n символов (не байт).
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
