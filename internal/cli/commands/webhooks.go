package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/wherewas/pkg/config"
	"github.com/ccollicutt/wherewas/pkg/output"
	"github.com/ccollicutt/wherewas/pkg/webhook"
)

// WebhookOptions holds the command-line webhook flags.
type WebhookOptions struct {
	URL     string
	Token   string
	Trigger string
}

func (o *WebhookOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.URL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&o.Token, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&o.Trigger, "webhook-trigger", string(config.WebhookTriggerOnMissing),
		"When to fire webhook (on_missing|always|never)")
}

// sendWebhooks sends the report to all configured webhooks.
// Errors are written to w but don't fail the command.
func sendWebhooks(ctx context.Context, w io.Writer, logger *slog.Logger, cfg *config.Config, opts *WebhookOptions, report *output.Report) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient(webhook.WithLogger(logger))

	for _, wh := range webhooks {
		if !shouldFireWebhook(wh.Trigger, report.HasIssues()) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			fmt.Fprintf(w, "Webhook %s: sent (%d, %s, %d attempts)\n", name, resp.StatusCode, resp.Duration, resp.Attempts)
		} else {
			fmt.Fprintf(w, "Webhook %s: failed (%v)\n", name, resp.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *WebhookOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts != nil && opts.URL != "" {
		trigger := config.WebhookTrigger(opts.Trigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnMissing
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.URL,
			Token:   opts.Token,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}

// shouldFireWebhook determines if a webhook should fire based on trigger and issues.
func shouldFireWebhook(trigger config.WebhookTrigger, hasIssues bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return hasIssues
	}
}
