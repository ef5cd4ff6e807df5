// Package alert drives the periodic subscription scans and the one-shot
// notification burst fired when a price target is crossed.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/Pizceda/cryptowatch/core"
	"github.com/Pizceda/cryptowatch/logger"
)

const (
	// DefaultFollowUps is the number of short messages sent after the
	// primary alert.
	DefaultFollowUps = 15

	// DefaultMessageDelay spaces consecutive sends to respect Telegram's
	// outbound rate limits.
	DefaultMessageDelay = 300 * time.Millisecond
)

// followUpMessages cycle through the burst after the primary alert.
var followUpMessages = []string{
	"🎯 TARGET REACHED!",
	"💰 TIME TO BUY!",
	"📉 PRICE DROPPED TO TARGET LEVEL!",
	"🚨 DON'T MISS YOUR CHANCE!",
	"💎 PERFECT TIME TO BUY!",
	"🔥 PRICE BELOW YOUR TARGET!",
	"🎊 CONGRATS ON PROFITABLE PURCHASE!",
	"⚡ BUY AT A GOOD PRICE NOW!",
	"💸 DON'T MISS YOUR OPPORTUNITY!",
	"🚀 TIME TO ACT!",
	"📊 PRICE REACHED TARGET!",
	"🎯 YOUR MOMENT HAS COME!",
	"💰 PROFITABLE PURCHASE AWAITS!",
	"🔥 DON'T MISS THE GOLDEN OPPORTUNITY!",
	"🎉 TIME TO ENTER THE DEAL!",
}

// Report summarizes a burst: whether the primary alert got through and how
// many follow-ups succeeded or failed.
type Report struct {
	Primary bool
	Sent    int
	Failed  int
}

// Delivered reports whether the burst counts as delivered. Partial follow-up
// failures do not matter as long as the primary message went out.
func (r Report) Delivered() bool { return r.Primary }

// Burst sends the alert sequence to a single recipient. Every send is
// attempted independently: an individual failure is logged and the sequence
// continues.
type Burst struct {
	notifier  core.Notifier
	followUps int
	delay     time.Duration
	log       logger.Logger
}

func NewBurst(notifier core.Notifier, followUps int, delay time.Duration, log logger.Logger) *Burst {
	if followUps <= 0 {
		followUps = DefaultFollowUps
	}
	if delay <= 0 {
		delay = DefaultMessageDelay
	}
	return &Burst{
		notifier:  notifier,
		followUps: followUps,
		delay:     delay,
		log:       log,
	}
}

// Fire sends the primary alert and the follow-up sequence. It never returns
// an error to its caller; the outcome lands in the Report and the log.
func (b *Burst) Fire(ctx context.Context, sub *core.Subscription, currentPrice float64) Report {
	var report Report

	primary := formatPrimary(sub, currentPrice)
	if err := b.notifier.Send(sub.UserID, primary, core.ParseModeHTML); err != nil {
		b.log.WithError(err).WithField("user", sub.UserID).Error("failed to send primary alert")
	} else {
		report.Primary = true
	}

	for i := 0; i < b.followUps; i++ {
		if err := sleep(ctx, b.delay); err != nil {
			break
		}

		msg := fmt.Sprintf("%s [%d/%d]", followUpMessages[i%len(followUpMessages)], i+1, b.followUps)
		if err := b.notifier.Send(sub.UserID, msg); err != nil {
			report.Failed++
			b.log.WithError(err).WithField("user", sub.UserID).
				Warnf("follow-up %d/%d failed", i+1, b.followUps)
			continue
		}
		report.Sent++
	}

	b.log.WithFields(map[string]any{
		"user":    sub.UserID,
		"symbol":  sub.Symbol,
		"primary": report.Primary,
		"sent":    report.Sent,
		"failed":  report.Failed,
	}).Info("alert burst finished")

	return report
}

func formatPrimary(sub *core.Subscription, currentPrice float64) string {
	currency := sub.Currency
	return fmt.Sprintf(
		"🚨🚨🚨 <b>PRICE DROPPED!</b> 🚨🚨🚨\n\n"+
			"💎 <b>%s</b>\n"+
			"💰 <b>Current price:</b> %.2f %s\n"+
			"🎯 <b>Your target:</b> %.2f %s\n\n"+
			"📉 <b>Price reached target level! TIME TO BUY!</b> 💰",
		sub.Symbol, currentPrice, currency, sub.TargetPrice, currency,
	)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
