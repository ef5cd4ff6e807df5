package cryptowatch

import (
	"github.com/Pizceda/cryptowatch/logger"
	"github.com/Pizceda/cryptowatch/notification"
)

// initializeNotifications sets up the Telegram notifier when a token is
// configured. Without one the app still runs, logging alerts instead of
// delivering them, which is useful for dry runs.
func initializeNotifications(app *App) error {
	if app.notifier != nil {
		return nil
	}

	if app.settings.Telegram.Token == "" {
		app.log.Warn("no telegram token configured, alerts will only be logged")
		app.notifier = logNotifier{log: app.log}
		return nil
	}

	telegram, err := notification.NewTelegram(app.settings, app.storage, app.feeder, app.log)
	if err != nil {
		return err
	}

	app.telegram = telegram
	app.notifier = telegram
	return nil
}

type logNotifier struct {
	log logger.Logger
}

func (n logNotifier) Send(to int64, text string, _ ...any) error {
	n.log.WithField("to", to).Info(text)
	return nil
}
