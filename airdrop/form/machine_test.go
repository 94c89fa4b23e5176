package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/airdropbot/airdrop"
)

type recordingCommitter struct {
	mu      sync.Mutex
	records []airdrop.Record
	err     error
}

func (c *recordingCommitter) Append(_ context.Context, r airdrop.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.records = append(c.records, r)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

const user = int64(42)

var validAnswers = []string{
	"My Drop",
	"https://x.com/mydrop",
	"https://discord.gg/mydrop",
	"https://t.me/mydrop",
	"https://mydrop.xyz",
	"Galxe",
}

func feed(t *testing.T, m *Machine, answers ...string) Reply {
	t.Helper()
	var last Reply
	for _, a := range answers {
		r, ok := m.Handle(context.Background(), user, a)
		if !ok {
			t.Fatalf("no session while feeding %q", a)
		}
		last = r
	}
	return last
}

func TestHappyPathCommitsOnce(t *testing.T) {
	c := &recordingCommitter{}
	m := New(Options{Committer: c})
	start := m.Start(context.Background(), user)
	if start.State != StateName || start.Text != textStart {
		t.Fatalf("start = %+v", start)
	}

	r := feed(t, m, validAnswers...)
	if r.State != StateDeadline {
		t.Fatalf("after type state = %s", r.State)
	}
	r = feed(t, m, "skip", "SKIP", "Skip")
	if r.State != StateConfirm || !strings.HasPrefix(r.Text, "Konfirmasi data:\n") {
		t.Fatalf("confirm = %+v", r)
	}
	if !strings.Contains(r.Text, "Deadline: Tidak ada\nReward: Tidak ada\nNetwork: Tidak ada\nStatus: Active\n") {
		t.Fatalf("summary:\n%s", r.Text)
	}

	r = feed(t, m, " YA ")
	if r.State != StateEnd || r.Outcome != OutcomeCommitted || r.Text != TextSaved {
		t.Fatalf("final = %+v", r)
	}
	if len(c.records) != 1 {
		t.Fatalf("appends = %d", len(c.records))
	}
	got := c.records[0]
	want := airdrop.Record{
		Name: "My Drop", Twitter: "https://x.com/mydrop", Discord: "https://discord.gg/mydrop",
		Telegram: "https://t.me/mydrop", Link: "https://mydrop.xyz", Type: "Galxe",
		UserID: "42", Status: airdrop.StatusActive,
	}
	if got != want {
		t.Fatalf("record = %+v", got)
	}
	if m.Active(user) {
		t.Fatal("session survived commit")
	}
	if _, ok := m.Handle(context.Background(), user, "more"); ok {
		t.Fatal("input accepted after END")
	}
}

func TestInvalidURLStaysInTwitter(t *testing.T) {
	c := &recordingCommitter{}
	m := New(Options{Committer: c})
	m.Start(context.Background(), user)
	feed(t, m, "Drop")
	for _, bad := range []string{"not a url", "ftp://x.com", "https://"} {
		r := feed(t, m, bad)
		if r.State != StateTwitter || r.Text != "❌ Format URL Twitter tidak valid!" {
			t.Fatalf("%q: %+v", bad, r)
		}
	}
	if st, _ := m.State(user); st != StateTwitter {
		t.Fatalf("state = %s", st)
	}
	if len(c.records) != 0 {
		t.Fatal("stored on validation error")
	}
	if r := feed(t, m, "https://x.com/a"); r.State != StateDiscord || r.Text != textDiscord {
		t.Fatalf("after valid url: %+v", r)
	}
}

func TestURLErrorNamesField(t *testing.T) {
	m := New(Options{Committer: &recordingCommitter{}})
	m.Start(context.Background(), user)
	feed(t, m, validAnswers[:4]...)
	if r := feed(t, m, "nope"); r.Text != "❌ Format URL Airdrop tidak valid!" {
		t.Fatalf("link error = %q", r.Text)
	}
}

func TestCancelFromEveryState(t *testing.T) {
	answers := append(append([]string{}, validAnswers...), "2030-01-01", "100 XYZ", "ethereum")
	for n := 0; n <= len(answers); n++ {
		c := &recordingCommitter{}
		m := New(Options{Committer: c})
		m.Start(context.Background(), user)
		feed(t, m, answers[:n]...)
		st, _ := m.State(user)
		r, ok := m.Cancel(context.Background(), user)
		if !ok || r.Text != TextCancelled || r.Outcome != OutcomeCancelled {
			t.Fatalf("cancel in %s: %+v", st, r)
		}
		if m.Active(user) || len(c.records) != 0 {
			t.Fatalf("cancel in %s left state behind", st)
		}
	}
}

func TestCancelWithoutSession(t *testing.T) {
	m := New(Options{})
	r, ok := m.Cancel(context.Background(), user)
	if ok || r.Text != TextNoSession {
		t.Fatalf("cancel = %+v, %v", r, ok)
	}
}

func TestDeclineDoesNotSave(t *testing.T) {
	c := &recordingCommitter{}
	m := New(Options{Committer: c})
	m.Start(context.Background(), user)
	feed(t, m, validAnswers...)
	feed(t, m, "skip", "skip", "skip")
	r := feed(t, m, "tidak")
	if r.Outcome != OutcomeDeclined || r.Text != TextCancelled || len(c.records) != 0 || m.Active(user) {
		t.Fatalf("decline = %+v records=%d", r, len(c.records))
	}
}

func TestStoreFailureEndsSession(t *testing.T) {
	c := &recordingCommitter{err: errors.New("quota")}
	m := New(Options{Committer: c})
	m.Start(context.Background(), user)
	feed(t, m, validAnswers...)
	feed(t, m, "skip", "skip", "skip")
	r := feed(t, m, "ya")
	if r.Outcome != OutcomeFailed || r.Text != TextSaveFailed {
		t.Fatalf("failure = %+v", r)
	}
	if m.Active(user) {
		t.Fatal("session kept after failed commit")
	}
}

func TestFieldNormalization(t *testing.T) {
	c := &recordingCommitter{}
	m := New(Options{Committer: c})
	m.Start(context.Background(), user)
	feed(t, m, validAnswers[:5]...)
	if r := feed(t, m, "  testnet "); r.State != StateDeadline || !r.RemoveKeyboard {
		t.Fatalf("type step = %+v", r)
	}
	if r := feed(t, m, "31-12-2025"); r.State != StateDeadline || r.Text != textBadDate {
		t.Fatalf("bad date = %+v", r)
	}
	if r := feed(t, m, "2025-02-30"); r.State != StateDeadline {
		t.Fatalf("impossible date accepted: %+v", r)
	}
	feed(t, m, "2025-12-31", "1000 XYZ", "bNB chain", "ya")
	got := c.records[0]
	if got.Type != "testnet" || got.Deadline != "2025-12-31" || got.Reward != "1000 xyz" || got.Network != "BNB chain" {
		t.Fatalf("record = %+v", got)
	}
}

func TestTypePromptOffersKeyboard(t *testing.T) {
	m := New(Options{})
	m.Start(context.Background(), user)
	r := feed(t, m, validAnswers[:5]...)
	if r.State != StateType || len(r.Choices) != 2 || r.Choices[1][1] != "Node" {
		t.Fatalf("type prompt = %+v", r)
	}
}

func TestEmptyNameReprompts(t *testing.T) {
	m := New(Options{})
	m.Start(context.Background(), user)
	if r := feed(t, m, "   "); r.State != StateName || r.Text != textName {
		t.Fatalf("empty name = %+v", r)
	}
}

func TestStartResumesActiveSession(t *testing.T) {
	m := New(Options{})
	m.Start(context.Background(), user)
	feed(t, m, "Drop")
	r := m.Start(context.Background(), user)
	if r.State != StateTwitter || r.Text != textTwitter {
		t.Fatalf("restart = %+v", r)
	}
}

func TestTimeoutEvictsSilently(t *testing.T) {
	clk := &clock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	c := &recordingCommitter{}
	m := New(Options{Committer: c, Timeout: 10 * time.Minute, Now: clk.now})
	m.Start(context.Background(), user)
	feed(t, m, "Drop")

	clk.t = clk.t.Add(9 * time.Minute)
	if n := m.EvictIdle(context.Background()); n != 0 {
		t.Fatalf("evicted %d before timeout", n)
	}
	feed(t, m, "https://x.com/a")

	clk.t = clk.t.Add(10 * time.Minute)
	if n := m.EvictIdle(context.Background()); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if m.Active(user) {
		t.Fatal("session survived timeout")
	}
	if _, ok := m.Handle(context.Background(), user, "https://discord.gg/a"); ok {
		t.Fatal("expired session accepted input")
	}
	if len(c.records) != 0 {
		t.Fatal("expired session stored a record")
	}
}

func TestUsersAreIndependent(t *testing.T) {
	m := New(Options{Committer: &recordingCommitter{}})
	m.Start(context.Background(), 1)
	m.Start(context.Background(), 2)
	m.Handle(context.Background(), 1, "A")
	if st, _ := m.State(2); st != StateName {
		t.Fatalf("user 2 state = %s", st)
	}
	m.Cancel(context.Background(), 1)
	if !m.Active(2) {
		t.Fatal("cancel leaked across users")
	}
}
