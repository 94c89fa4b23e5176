package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/m3rciful/airdropbot/core/config"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeWebhook},
		Webhook:  coreconfig.WebhookConfig{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example/hook"},
	}
	wh, ok := BuildPoller(cfg).(*tele.Webhook)
	if !ok {
		t.Fatalf("expected webhook poller")
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://bot.example/hook" {
		t.Fatalf("webhook = %+v", wh)
	}
}

func TestBuildPollerLongPollDefaults(t *testing.T) {
	lp, ok := BuildPoller(&coreconfig.Config{}).(*tele.LongPoller)
	if !ok {
		t.Fatalf("expected long poller")
	}
	if lp.Timeout != 10*time.Second {
		t.Fatalf("timeout = %s", lp.Timeout)
	}
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{LongPollTimeoutSeconds: 25}}
	if got := PollTimeout(cfg); got != 25*time.Second {
		t.Fatalf("poll timeout = %s", got)
	}
}
