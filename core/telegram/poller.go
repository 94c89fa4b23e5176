package telegram

import (
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/airdropbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultPollTimeout = 10 * time.Second

// PollTimeout returns the configured long polling timeout.
func PollTimeout(cfg *coreconfig.Config) time.Duration {
	if cfg == nil || cfg.Telegram.LongPollTimeoutSeconds <= 0 {
		return defaultPollTimeout
	}
	return time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
}

// BuildPoller picks a webhook listener or a long poller from cfg.Telegram.RunMode.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg != nil && cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:   fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{Timeout: PollTimeout(cfg)}
}
