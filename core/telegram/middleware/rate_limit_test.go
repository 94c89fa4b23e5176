package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]any
	sent   []any
}

func newFakeContext(userID int64, text string) *fakeContext {
	u := &tele.User{ID: userID}
	return &fakeContext{
		update: tele.Update{ID: 1, Message: &tele.Message{Sender: u, Chat: &tele.Chat{ID: userID}, Text: text}},
		store:  map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Sender() *tele.User { return f.update.Message.Sender }
func (f *fakeContext) Chat() *tele.Chat { return f.update.Message.Chat }
func (f *fakeContext) Text() string { return f.update.Message.Text }
func (f *fakeContext) Get(key string) any { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }
func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func TestRateLimiterWindow(t *testing.T) {
	l := NewRateLimiter(5 * time.Second)
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	if !l.AllowAt(7, t0) {
		t.Fatal("first request rejected")
	}
	if l.AllowAt(7, t0.Add(2*time.Second)) {
		t.Fatal("second request inside window accepted")
	}
	// the rejected call must not extend the window
	if !l.AllowAt(7, t0.Add(5*time.Second)) {
		t.Fatal("request after window rejected")
	}
	if !l.AllowAt(8, t0.Add(time.Second)) {
		t.Fatal("users must be independent")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	l := NewRateLimiter(-1)
	for i := 0; i < 3; i++ {
		if !l.Allow(1) {
			t.Fatal("disabled limiter rejected")
		}
	}
}

func TestRateLimiterPrune(t *testing.T) {
	l := NewRateLimiter(time.Second)
	t0 := time.Now()
	l.AllowAt(1, t0)
	l.AllowAt(2, t0.Add(900*time.Millisecond))
	if n := l.Prune(t0.Add(time.Second)); n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	if l.AllowAt(2, t0.Add(time.Second)) {
		t.Fatal("pruning changed the outcome for a live entry")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewRateLimiter(time.Hour)
	var handled, limited int
	h := RateLimitMiddleware(RateLimitOptions{
		Gate: l,
		OnLimited: func(c tele.Context) error {
			limited++
			return c.Send("⏳ Tunggu 5 detik")
		},
	})(func(tele.Context) error {
		handled++
		return nil
	})

	first := newFakeContext(42, "/list")
	if err := h(first); err != nil {
		t.Fatal(err)
	}
	second := newFakeContext(42, "/list")
	if err := h(second); err != nil {
		t.Fatal(err)
	}
	if handled != 1 || limited != 1 {
		t.Fatalf("handled=%d limited=%d", handled, limited)
	}
	if len(second.sent) != 1 || second.sent[0] != "⏳ Tunggu 5 detik" {
		t.Fatalf("notice = %v", second.sent)
	}
}

func TestRateLimitMiddlewareExclusion(t *testing.T) {
	l := NewRateLimiter(time.Hour)
	calls := 0
	h := RateLimitMiddleware(RateLimitOptions{
		Gate:    l,
		Exclude: map[string]struct{}{"message": {}},
	})(func(tele.Context) error { calls++; return nil })
	for i := 0; i < 3; i++ {
		_ = h(newFakeContext(1, "hi"))
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestAdminOnly(t *testing.T) {
	rejected := 0
	mw := AdminOnly(99, func(tele.Context) error { rejected++; return nil })
	ok := 0
	h := mw(func(tele.Context) error { ok++; return nil })
	_ = h(newFakeContext(99, "/backup"))
	_ = h(newFakeContext(5, "/backup"))
	if ok != 1 || rejected != 1 {
		t.Fatalf("ok=%d rejected=%d", ok, rejected)
	}
	open := AdminOnly(0, nil)(func(tele.Context) error { ok++; return nil })
	_ = open(newFakeContext(5, "/backup"))
	if ok != 2 {
		t.Fatal("zero admin id should disable the check")
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	if err := h(newFakeContext(1, "x")); err == nil {
		t.Fatal("expected error from recovered panic")
	}
}

func TestMessageMetrics(t *testing.T) {
	c := newFakeContext(1, "x")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("a")
		return c.Send("b", &tele.ReplyMarkup{})
	})
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	n, kb := Counters(c)
	if n != 2 || !kb {
		t.Fatalf("messages=%d kb=%v", n, kb)
	}
}
