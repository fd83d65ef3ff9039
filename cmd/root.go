// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-probe/internal/browser"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/session"
	"github.com/xkilldash9x/scalpel-probe/internal/config"
	"github.com/xkilldash9x/scalpel-probe/internal/observability"
)

const (
	configName = ".scalpel-probe"
	envPrefix  = "SCALPEL_PROBE"

	shutdownTimeout = 30 * time.Second
)

// newDriver is a variable so tests can run commands without a browser.
var newDriver = browser.NewDriver

// app carries the state shared by the commands of one root command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds a fresh command tree. Every call has its own flags
// and configuration, so commands never leak state into each other.
func NewRootCommand() *cobra.Command {
	var (
		cfgFile  string
		logLevel string
	)
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "scalpel-probe",
		Short: "Extracts the interactive elements of a web page, shadow DOM included.",
		// Version is dynamically set at build time. See cmd/version.go.
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)
			if err := initializeConfig(v, cfgFile); err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				v.Set("logger.level", logLevel)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				// Initialize a fallback logger so the failure is reported.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "scalpel-probe"})
				return err
			}
			observability.InitializeLogger(cfg.Logger())

			a.cfg = cfg
			a.logger = observability.GetLogger()
			a.logger.Debug("Starting scalpel-probe", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.scalpel-probe.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newExtractCmd(a),
		newInteractCmd(a),
		newRunCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command line with a signal aware context and logs the
// failure, if any.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		observability.GetLogger().Warn("Aborted.")
		return err
	}
	if logger := observability.GetLogger(); logger != nil {
		logger.Error("Command execution failed", zap.Error(err))
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return err
}

// initializeConfig reads .env files, the config file and SCALPEL_PROBE_*
// environment variables into v.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	// Variables already set in the environment win over .env files.
	for _, name := range []string{".env", ".env.local"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", name, err)
		}
	}

	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("error resolving config path: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}

// openSession launches the configured browser and wraps it in a session.
// The returned cleanup closes the browser.
func (a *app) openSession(ctx context.Context) (*session.Session, func(), error) {
	driver, err := newDriver(ctx, a.cfg.Browser(), a.logger)
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := driver.Close(closeCtx); err != nil {
			a.logger.Warn("Failed to close browser cleanly.", zap.Error(err))
		}
	}
	s, err := session.New(driver, a.cfg, a.logger)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return s, cleanup, nil
}
