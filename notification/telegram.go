// Package notification provides implementations for outbound notification
// services and the interactive Telegram front end.
package notification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Pizceda/cryptowatch/core"
	"github.com/Pizceda/cryptowatch/logger"
	"github.com/Pizceda/cryptowatch/pricing"

	"github.com/samber/lo"
	tb "gopkg.in/tucnak/telebot.v2"
)

const (
	pollingTimeout = 10 * time.Second
	requestTimeout = 15 * time.Second
)

var (
	priceRegexp = regexp.MustCompile(`(?i)/price\s+(?P<symbol>\w+)\s+(?P<currency>\w+)`)
	watchRegexp = regexp.MustCompile(`(?i)/watch\s+(?P<symbol>\w+)\s+(?P<currency>\w+)\s+(?P<price>\S+)`)
)

// Telegram implements core.NotifierWithStart and serves the interactive
// command front end: on-demand price lookups and subscription management.
type Telegram struct {
	settings    *core.Settings
	storage     core.SubscriptionStorage
	feeder      core.PriceFeeder
	client      *tb.Bot
	defaultMenu *tb.ReplyMarkup
	log         logger.Logger
}

// NewTelegram creates and initializes a new Telegram service.
func NewTelegram(
	settings *core.Settings,
	storage core.SubscriptionStorage,
	feeder core.PriceFeeder,
	log logger.Logger,
) (*Telegram, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: pollingTimeout}

	client, err := tb.NewBot(tb.Settings{
		Token:  settings.Telegram.Token,
		Poller: newAuthMiddleware(poller, settings, log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &Telegram{
		settings:    settings,
		storage:     storage,
		feeder:      feeder,
		client:      client,
		defaultMenu: menu,
		log:         log,
	}

	registerHandlers(client, bot)

	return bot, nil
}

// newAuthMiddleware creates a middleware validating senders against the
// allow-list. An empty list means the bot is open to everyone.
func newAuthMiddleware(poller *tb.LongPoller, settings *core.Settings, log logger.Logger) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Error("message or sender is nil ", u)
			return false
		}

		if len(settings.Telegram.Users) == 0 {
			return true
		}
		if slices.Contains(settings.Telegram.Users, u.Message.Sender.ID) {
			return true
		}

		log.Error("unauthorized user ", u.Message.Sender.ID)
		return false
	})
}

// setupKeyboard configures the reply keyboard layout.
func setupKeyboard(menu *tb.ReplyMarkup) {
	buttons := []tb.Btn{
		menu.Text("/price BTC USD"),
		menu.Text("/list"),
		menu.Text("/stopall"),
		menu.Text("/help"),
	}

	rows := lo.Map(lo.Chunk(buttons, 2), func(chunk []tb.Btn, _ int) tb.Row {
		return menu.Row(chunk...)
	})
	menu.Reply(rows...)
}

// setupCommands configures available bot commands.
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/start", Description: "Show the menu"},
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/price", Description: "Current price, e.g. /price BTC USD"},
		{Text: "/watch", Description: "Watch a target, e.g. /watch BTC USD 60000"},
		{Text: "/list", Description: "List your active watches"},
		{Text: "/stopall", Description: "Stop all your watches"},
	})
}

func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/start", bot.StartHandle)
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/price", bot.PriceHandle)
	client.Handle("/watch", bot.WatchHandle)
	client.Handle("/list", bot.ListHandle)
	client.Handle("/stopall", bot.StopAllHandle)
}

// Start begins the Telegram long poller and greets the allow-listed users.
func (t *Telegram) Start() {
	go t.client.Start()
	for _, user := range t.settings.Telegram.Users {
		t.sendMessage(&tb.User{ID: user}, "Bot initialized.", t.defaultMenu)
	}
}

// Send implements core.Notifier, delivering one message to one recipient.
func (t *Telegram) Send(to int64, text string, options ...any) error {
	opts := make([]any, 0, len(options))
	for _, opt := range options {
		if opt == core.ParseModeHTML {
			opts = append(opts, tb.ModeHTML)
			continue
		}
		opts = append(opts, opt)
	}

	_, err := t.client.Send(&tb.User{ID: to}, text, opts...)
	return err
}

// sendMessage sends a message to a specific user, logging delivery failures.
func (t *Telegram) sendMessage(to *tb.User, text string, options ...any) {
	_, err := t.client.Send(to, text, options...)
	if err != nil {
		t.log.WithError(err).Error("failed to send message")
	}
}

// Command handlers
// ----------------

// StartHandle shows the menu keyboard.
func (t *Telegram) StartHandle(m *tb.Message) {
	symbols := strings.Join(lo.Keys(pricing.DefaultCoinIDs), ", ")
	text := fmt.Sprintf(
		"Crypto price watcher.\n\n"+
			"Supported symbols: %s\n"+
			"Supported currencies: %s\n\n"+
			"Set a target with /watch and get alerted when the price drops to it.",
		symbols, strings.ToUpper(strings.Join(pricing.DefaultCurrencies, ", ")),
	)
	t.sendMessage(m.Sender, text, t.defaultMenu)
}

// HelpHandle displays available commands.
func (t *Telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		t.log.WithError(err).Error("failed to get commands")
		return
	}

	lines := lo.Map(commands, func(c tb.Command, _ int) string {
		return fmt.Sprintf("%s - %s", c.Text, c.Description)
	})
	t.sendMessage(m.Sender, strings.Join(lines, "\n"))
}

// PriceHandle resolves a price on demand for the sender.
func (t *Telegram) PriceHandle(m *tb.Message) {
	match := priceRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.sendMessage(m.Sender, "Invalid command.\nExample of usage:\n`/price BTC USD`")
		return
	}

	command := extractCommandParams(priceRegexp, match)
	symbol := strings.ToUpper(command["symbol"])
	currency := strings.ToLower(command["currency"])

	if msg, ok := validateInstrument(symbol, currency); !ok {
		t.sendMessage(m.Sender, msg)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	price, ok := t.feeder.Price(ctx, symbol, currency)
	if !ok {
		t.sendMessage(m.Sender, fmt.Sprintf("%s price is temporarily unavailable, try again later.", symbol))
		return
	}

	t.sendMessage(m.Sender, fmt.Sprintf("%s = %.2f %s", symbol, price, strings.ToUpper(currency)))
}

// WatchHandle validates the input and upserts a subscription.
func (t *Telegram) WatchHandle(m *tb.Message) {
	match := watchRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.sendMessage(m.Sender, "Invalid command.\nExample of usage:\n`/watch BTC USD 60000`")
		return
	}

	command := extractCommandParams(watchRegexp, match)
	symbol := strings.ToUpper(command["symbol"])
	currency := strings.ToLower(command["currency"])

	if msg, ok := validateInstrument(symbol, currency); !ok {
		t.sendMessage(m.Sender, msg)
		return
	}

	target, err := parseTarget(command["price"])
	if err != nil {
		// Validation failures never touch the store.
		t.sendMessage(m.Sender, "Invalid target price, enter a positive number like `/watch BTC USD 60000`.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sub := &core.Subscription{
		UserID:      m.Sender.ID,
		Symbol:      symbol,
		Currency:    currency,
		TargetPrice: target,
	}
	if err := t.storage.Save(ctx, sub); err != nil {
		t.log.WithError(err).WithField("key", sub.Key()).Error("failed to save subscription")
		t.sendMessage(m.Sender, "Failed to save the watch, please try again.")
		return
	}

	t.sendMessage(m.Sender, fmt.Sprintf(
		"Watching %s: you will be alerted when the price drops to %.2f %s.",
		symbol, target, strings.ToUpper(currency),
	))
}

// ListHandle shows the sender's active subscriptions.
func (t *Telegram) ListHandle(m *tb.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	subs, err := t.storage.Active(ctx, m.Sender.ID)
	if err != nil {
		t.log.WithError(err).Error("failed to list subscriptions")
		t.sendMessage(m.Sender, "Failed to load your watches, please try again.")
		return
	}
	if len(subs) == 0 {
		t.sendMessage(m.Sender, "No active watches.")
		return
	}

	lines := lo.Map(subs, func(sub *core.Subscription, _ int) string {
		return fmt.Sprintf("%s ≤ %.2f %s", sub.Symbol, sub.TargetPrice, strings.ToUpper(sub.Currency))
	})
	t.sendMessage(m.Sender, strings.Join(lines, "\n"))
}

// StopAllHandle retires every subscription of the sender.
func (t *Telegram) StopAllHandle(m *tb.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := t.storage.DeactivateAll(ctx, m.Sender.ID); err != nil {
		t.log.WithError(err).Error("failed to stop subscriptions")
		t.sendMessage(m.Sender, "Failed to stop your watches, please try again.")
		return
	}
	t.sendMessage(m.Sender, "All watches stopped.", t.defaultMenu)
}

// Helpers
// -------

func validateInstrument(symbol, currency string) (string, bool) {
	err := pricing.ValidateInstrument(symbol, currency)
	switch {
	case errors.Is(err, core.ErrUnknownSymbol):
		return fmt.Sprintf("Unknown symbol %s. Supported: %s",
			symbol, strings.Join(lo.Keys(pricing.DefaultCoinIDs), ", ")), false
	case errors.Is(err, core.ErrUnknownCurrency):
		return fmt.Sprintf("Unknown currency %s. Supported: %s",
			strings.ToUpper(currency), strings.ToUpper(strings.Join(pricing.DefaultCurrencies, ", "))), false
	}
	return "", true
}

func parseTarget(raw string) (float64, error) {
	target, err := strconv.ParseFloat(raw, 64)
	if err != nil || target <= 0 {
		return 0, core.ErrInvalidTargetPrice
	}
	return target, nil
}

// extractCommandParams extracts named groups from regex matches.
func extractCommandParams(regex *regexp.Regexp, match []string) map[string]string {
	command := make(map[string]string)
	for i, name := range regex.SubexpNames() {
		if i != 0 && name != "" {
			command[name] = match[i]
		}
	}
	return command
}
