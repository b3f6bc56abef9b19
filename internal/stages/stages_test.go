package stages

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/seoagent/internal/telemetry"
)

// unreachableClient — все стадии указывают на закрытый сервер.
func unreachableClient(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	return NewClient(ClientConfig{
		SerpIntelURL:    addr,
		ContentGenURL:   addr,
		SEOOptimizerURL: addr,
		QualityGateURL:  addr,
		PublisherURL:    addr,
		IntentTimeout:   time.Second,
		DraftTimeout:    time.Second,
		OptimizeTimeout: time.Second,
		QualityTimeout:  time.Second,
		PublishTimeout:  time.Second,
	})
}

func TestGateway_UnreachableFallsBack(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(unreachableClient(t), nil, telemetry.Discard())

	intent := g.AnalyzeIntent(ctx, IntentRequest{Keyword: "бухгалтер москва", Region: "moscow"})
	assert.True(t, intent.Degraded)
	assert.Equal(t, FallbackIntentSummary, intent.IntentSummary)
	assert.Equal(t, "бухгалтер москва", intent.SuggestedStructure["h1"])
	assert.Equal(t, []any{"intro", "benefits", "how_to_choose", "faq"}, intent.SuggestedStructure["sections"])

	draft := g.GenerateDraft(ctx, DraftRequest{
		Topic:              "Бухгалтер",
		Keyword:            "бухгалтер москва",
		Region:             "moscow",
		SuggestedStructure: intent.SuggestedStructure,
		IntentSummary:      intent.IntentSummary,
	})
	assert.True(t, draft.Degraded)
	assert.True(t, strings.HasPrefix(draft.Markdown, "# Бухгалтер\n"))
	assert.Contains(t, draft.Markdown, "Ключевое слово: бухгалтер москва")
	assert.Contains(t, draft.Markdown, "Регион: moscow")
	assert.Contains(t, draft.Markdown, "(stub)")

	opt := g.Optimize(ctx, OptimizeRequest{Draft: draft.Markdown, Keyword: "бухгалтер москва"})
	assert.True(t, opt.Degraded)
	assert.Equal(t, draft.Markdown, opt.FinalMarkdown)
	assert.Equal(t, "бухгалтер москва", opt.MetaTitle)
	assert.Empty(t, opt.MetaDescription)
	assert.Nil(t, opt.FAQ)
	assert.JSONEq(t, `{"@type":"Article"}`, string(opt.StructuredData))

	q := g.CheckQuality(ctx, QualityRequest{Text: opt.FinalMarkdown})
	assert.True(t, q.Degraded)
	assert.True(t, q.Pass)
	assert.Equal(t, 1.0, q.Uniqueness)
	assert.True(t, q.LengthOK)

	for _, asDraft := range []bool{true, false} {
		pub := g.Publish(ctx, PublishRequest{Title: "Бухгалтер", Slug: "buhgalter-2026-10-17", AsDraft: asDraft})
		assert.True(t, pub.Degraded)
		assert.Equal(t, asDraft, pub.AsDraft)
		assert.Equal(t, FallbackPageID("buhgalter-2026-10-17"), pub.PageID)
		assert.Equal(t, "https://tilda.cc/stub/buhgalter-2026-10-17", pub.URL)
		assert.Equal(t, "buhgalter-2026-10-17", pub.Slug)
	}
}

func TestGateway_NotConfiguredFallsBack(t *testing.T) {
	g := NewGateway(NewClient(ClientConfig{}), nil, telemetry.Discard())
	res := g.CheckQuality(context.Background(), QualityRequest{Text: "x"})
	assert.True(t, res.Degraded)
	assert.True(t, res.Pass)
}

func TestGateway_NilRemote(t *testing.T) {
	g := NewGateway(nil, nil, telemetry.Discard())
	res := g.Publish(context.Background(), PublishRequest{Slug: "a", AsDraft: true})
	assert.True(t, res.Degraded)
	assert.True(t, res.AsDraft)
}

func TestFallback_MetaTitleTruncatedByRunes(t *testing.T) {
	keyword := strings.Repeat("я", 80)
	res, err := Fallback{}.Optimize(context.Background(), OptimizeRequest{Draft: "d", Keyword: keyword})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("я", MaxMetaTitleRunes), res.MetaTitle)
}

func TestFallback_PageIDFixedLength(t *testing.T) {
	long := strings.Repeat("buhgalterskie-uslugi-", 10)[:200] + "-2026-10-17"
	res, err := Fallback{}.Publish(context.Background(), PublishRequest{Slug: long, AsDraft: true})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.PageID), 64)
	assert.Len(t, res.PageID, len("stub-")+12)
	assert.Equal(t, long, res.Slug)

	other, _ := Fallback{}.Publish(context.Background(), PublishRequest{Slug: long + "x"})
	assert.NotEqual(t, res.PageID, other.PageID)
}

func TestFallback_Deterministic(t *testing.T) {
	req := DraftRequest{Topic: "t", Keyword: "k", Region: "rf", SuggestedStructure: map[string]any{"h1": "k"}}
	a, _ := Fallback{}.GenerateDraft(context.Background(), req)
	b, _ := Fallback{}.GenerateDraft(context.Background(), req)
	assert.Equal(t, a.Markdown, b.Markdown)
}

func TestClient_RemoteSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "бухгалтер москва", r.URL.Query().Get("query"))
		assert.Equal(t, "moscow", r.URL.Query().Get("region"))
		w.Write([]byte(`{"suggested_structure":{"h1":"Бухгалтер"},"intent_summary":"Commercial"}`))
	})
	mux.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "бухгалтер москва", body["target_keyword"])
		w.Write([]byte(`{"draft_markdown":"# real draft"}`))
	})
	mux.HandleFunc("/optimize", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"final_markdown":"# final","meta_title":"T","meta_description":"D","faq_json":[{"q":"a"}],"schema_json":null}`))
	})
	mux.HandleFunc("/check", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pass":false,"uniqueness":0.4,"length_ok":false,"keyword_stuffing":true,"details":"short"}`))
	})
	mux.HandleFunc("/publish", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"as_draft":false`)
		assert.Contains(t, string(body), `"html_or_markdown":"# final"`)
		w.Write([]byte(`{"page_id":"p-1","url":"https://example.com/p-1","slug":"renamed-by-publisher","is_draft":false}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(ClientConfig{
		SerpIntelURL:    srv.URL,
		ContentGenURL:   srv.URL,
		SEOOptimizerURL: srv.URL,
		QualityGateURL:  srv.URL + "/",
		PublisherURL:    srv.URL,
	})
	g := NewGateway(c, nil, telemetry.Discard())
	ctx := context.Background()

	intent := g.AnalyzeIntent(ctx, IntentRequest{Keyword: "бухгалтер москва", Region: "moscow"})
	assert.False(t, intent.Degraded)
	assert.Equal(t, "Commercial", intent.IntentSummary)

	draft := g.GenerateDraft(ctx, DraftRequest{Topic: "Бухгалтер", Keyword: "бухгалтер москва", Region: "moscow"})
	assert.False(t, draft.Degraded)
	assert.Equal(t, "# real draft", draft.Markdown)

	opt := g.Optimize(ctx, OptimizeRequest{Draft: draft.Markdown, Keyword: "k"})
	assert.False(t, opt.Degraded)
	assert.Equal(t, "# final", opt.FinalMarkdown)
	assert.JSONEq(t, `[{"q":"a"}]`, string(opt.FAQ))
	assert.Nil(t, opt.StructuredData)

	q := g.CheckQuality(ctx, QualityRequest{Text: opt.FinalMarkdown})
	assert.False(t, q.Degraded)
	assert.False(t, q.Pass)
	assert.True(t, q.KeywordStuffing)

	pub := g.Publish(ctx, PublishRequest{Title: "Бухгалтер", Slug: "buhgalter", Content: "# final", AsDraft: false})
	assert.False(t, pub.Degraded)
	assert.Equal(t, "p-1", pub.PageID)
	assert.Equal(t, "buhgalter", pub.Slug)
	assert.False(t, pub.AsDraft)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/check":
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("down"))
		case "/publish":
			w.Write([]byte("<html>not json</html>"))
		case "/generate":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"draft_markdown":"late"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		ContentGenURL:  srv.URL,
		QualityGateURL: srv.URL,
		PublisherURL:   srv.URL,
		DraftTimeout:   50 * time.Millisecond,
	})
	ctx := context.Background()

	_, err := c.CheckQuality(ctx, QualityRequest{Text: "x"})
	assert.True(t, errors.Is(err, ErrStageUnavailable))
	assert.Contains(t, err.Error(), "HTTP 503")

	_, err = c.Publish(ctx, PublishRequest{Slug: "s"})
	assert.True(t, errors.Is(err, ErrBadResponse))

	_, err = c.GenerateDraft(ctx, DraftRequest{Topic: "t"})
	assert.True(t, errors.Is(err, ErrStageUnavailable))

	_, err = c.AnalyzeIntent(ctx, IntentRequest{Keyword: "k"})
	assert.True(t, errors.Is(err, ErrStageUnavailable))
}

func TestClient_QualityMissingPassDefaultsToTrue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"uniqueness":0.9}`))
	}))
	defer srv.Close()

	res, err := NewClient(ClientConfig{QualityGateURL: srv.URL}).CheckQuality(context.Background(), QualityRequest{Text: "x"})
	require.NoError(t, err)
	assert.True(t, res.Pass)
	assert.Equal(t, 0.9, res.Uniqueness)
}

func TestQualityResult_Scores(t *testing.T) {
	q := &QualityResult{Pass: true, Uniqueness: 0.8, LengthOK: true, Details: "ok"}
	scores := q.Scores()
	assert.Equal(t, true, scores["pass"])
	assert.Equal(t, 0.8, scores["uniqueness"])
	assert.Equal(t, false, scores["degraded"])
}
