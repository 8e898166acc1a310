package commands

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vaultbridge/internal/app"
)

var (
	cfgFile    string
	home       string
	passphrase string
	bridgeURL  string
	verbose    bool

	wire *app.Wire
	log  zerolog.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:           "vaultbridge",
		Short:         "Pair with a local vault and send it encrypted requests",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".vaultbridge")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			v := viper.New()
			v.SetDefault("bridge_url", "ws://127.0.0.1:8734")
			v.SetDefault("client_name", "vaultbridge CLI")
			v.SetDefault("target_name", "vault")
			v.SetDefault("request_timeout", 30*time.Second)
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
			} else {
				v.SetConfigName("config")
				v.SetConfigType("yaml")
				v.AddConfigPath(home)
			}
			v.SetEnvPrefix("VAULTBRIDGE")
			v.AutomaticEnv()
			if err := v.BindPFlag("bridge_url", cmd.Flags().Lookup("bridge")); err != nil {
				return err
			}
			if err := v.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) && !os.IsNotExist(err) {
					return err
				}
			}

			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()

			var err error
			wire, err = app.NewWire(app.Config{
				Home:           home,
				BridgeURL:      v.GetString("bridge_url"),
				ClientName:     v.GetString("client_name"),
				TargetName:     v.GetString("target_name"),
				RequestTimeout: v.GetDuration("request_timeout"),
				Logger:         &log,
			})
			return err
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.vaultbridge/config.yaml)")
	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.vaultbridge)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the identity key")
	root.PersistentFlags().StringVar(&bridgeURL, "bridge", "", "bridge endpoint (e.g. ws://127.0.0.1:8734)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(initCmd(), fingerprintCmd(), pairCmd(), sendCmd())
	return root.Execute()
}
