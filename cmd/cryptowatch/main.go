package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Pizceda/cryptowatch"
	"github.com/Pizceda/cryptowatch/core"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "cryptowatch",
		Short:   "Crypto price target alerts over Telegram",
		Version: "1.0.0",
	}

	rootCmd.AddCommand(buildRunCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot and the alert scheduler",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cryptowatch.NewApp(settings)
	if err != nil {
		return err
	}

	return app.Run(ctx)
}

// loadSettings reads the configuration from environment variables.
func loadSettings() (*core.Settings, error) {
	viper.AutomaticEnv()

	viper.SetDefault("STORAGE_DRIVER", "buntdb")
	viper.SetDefault("STORAGE_PATH", "./cryptowatch.db")
	viper.SetDefault("CACHE_TTL", "30s")
	viper.SetDefault("SOURCE_TIMEOUT", "10s")
	viper.SetDefault("RATE_TIMEOUT", "5s")
	viper.SetDefault("SCAN_INTERVAL", "30s")
	viper.SetDefault("SCAN_INITIAL_DELAY", "10s")
	viper.SetDefault("SCAN_MAX_CONCURRENT", 4)
	viper.SetDefault("BURST_FOLLOW_UPS", 15)
	viper.SetDefault("BURST_MESSAGE_DELAY", "300ms")

	token := viper.GetString("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	durations := make(map[string]time.Duration)
	for _, key := range []string{
		"CACHE_TTL", "SOURCE_TIMEOUT", "RATE_TIMEOUT",
		"SCAN_INTERVAL", "SCAN_INITIAL_DELAY", "BURST_MESSAGE_DELAY",
	} {
		d, err := str2duration.ParseDuration(viper.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = d
	}

	users, err := parseUserIDs(viper.GetString("TELEGRAM_USERS"))
	if err != nil {
		return nil, err
	}

	return &core.Settings{
		Telegram: core.TelegramSettings{
			Token: token,
			Users: users,
		},
		Pricing: core.PricingSettings{
			CacheTTL:      durations["CACHE_TTL"],
			SourceTimeout: durations["SOURCE_TIMEOUT"],
			RateTimeout:   durations["RATE_TIMEOUT"],
		},
		Alert: core.AlertSettings{
			Interval:      durations["SCAN_INTERVAL"],
			InitialDelay:  durations["SCAN_INITIAL_DELAY"],
			MaxConcurrent: viper.GetInt("SCAN_MAX_CONCURRENT"),
			FollowUps:     viper.GetInt("BURST_FOLLOW_UPS"),
			MessageDelay:  durations["BURST_MESSAGE_DELAY"],
		},
		StorageDriver: viper.GetString("STORAGE_DRIVER"),
		StoragePath:   viper.GetString("STORAGE_PATH"),
	}, nil
}

// parseUserIDs parses the TELEGRAM_USERS allow-list, a comma or whitespace
// separated list of Telegram user IDs. An empty value means open access.
func parseUserIDs(raw string) ([]int64, error) {
	fields := strings.Fields(strings.ReplaceAll(raw, ",", " "))

	users := make([]int64, 0, len(fields))
	for _, field := range fields {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_USERS entry %q: %w", field, err)
		}
		users = append(users, id)
	}
	return users, nil
}
