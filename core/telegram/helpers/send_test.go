package helpers

import (
	"fmt"
	"sync"
	"testing"

	"github.com/m3rciful/airdropbot/core/logger"
	"github.com/m3rciful/airdropbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update tele.Update

	mu    sync.Mutex
	store map[string]any
	sent  []string
}

func newFakeContext(userID int64) *fakeContext {
	u := &tele.User{ID: userID}
	return &fakeContext{
		update: tele.Update{ID: 3, Message: &tele.Message{Sender: u, Chat: &tele.Chat{ID: userID + 100}}},
		store:  map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Sender() *tele.User { return f.update.Message.Sender }
func (f *fakeContext) Chat() *tele.Chat { return f.update.Message.Chat }

func (f *fakeContext) Get(key string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key]
}

func (f *fakeContext) Set(key string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = v
}

func (f *fakeContext) Send(what any, _ ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, fmt.Sprint(what))
	return nil
}

func TestBuildContextCarriesIDs(t *testing.T) {
	c := newFakeContext(5)
	ctx := BuildContext(c)
	if logger.RIDFrom(ctx) != "3:105:5" || logger.UserIDFrom(ctx) != 5 || logger.ChatIDFrom(ctx) != 105 {
		t.Fatalf("rid=%q user=%d chat=%d", logger.RIDFrom(ctx), logger.UserIDFrom(ctx), logger.ChatIDFrom(ctx))
	}
	if again := BuildContext(c); again != ctx {
		t.Fatal("context rebuilt for the same update")
	}
	if got := logger.HandlerFrom(WithHandler(c, "list")); got != "list" {
		t.Fatalf("handler = %q", got)
	}
}

func TestSendTextsKeepsOrderThroughDispatcher(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Shards: 2, QueueSize: 8})
	SetDispatcher(d)
	defer SetDispatcher(nil)

	c := newFakeContext(9)
	parts := []string{"a", "b", "c", "d"}
	if err := SendTexts(c, parts); err != nil {
		t.Fatal(err)
	}
	d.Close()
	if len(c.sent) != len(parts) {
		t.Fatalf("sent = %v", c.sent)
	}
	for i := range parts {
		if c.sent[i] != parts[i] {
			t.Fatalf("sent = %v", c.sent)
		}
	}
}

func TestSendTextWithoutDispatcher(t *testing.T) {
	SetDispatcher(nil)
	c := newFakeContext(1)
	if err := SendText(c, "hi"); err != nil || len(c.sent) != 1 {
		t.Fatalf("err=%v sent=%v", err, c.sent)
	}
}
