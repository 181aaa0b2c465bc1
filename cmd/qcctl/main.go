package main

import (
	"fmt"
	"os"

	"github.com/OsbornePro/quickcopy/internal/client"
	"github.com/OsbornePro/quickcopy/internal/config"
	"github.com/OsbornePro/quickcopy/internal/token"
	"github.com/spf13/cobra"
)

var (
	apiAddr    string
	configPath string
	jsonOutput bool

	cfg      *config.Config
	qc       *client.Client
	apiToken string
)

func defaultConfigPath() string {
	return os.Getenv("QUICKCOPY_CONFIG")
}

var rootCmd = &cobra.Command{
	Use:           "qcctl",
	Short:         "Drive the quick copy window of a running quickcopyd",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if apiAddr == "" {
			apiAddr = "http://" + cfg.ListenAddr
		}
		// token prints the token itself and needs no client.
		if cmd == tokenCmd {
			return nil
		}
		tok, err := loadToken()
		if err != nil {
			return err
		}
		apiToken = tok
		qc = client.New(apiAddr, tok, cfg.TokenHeader)
		return nil
	},
}

func tokenOptions() token.Options {
	return token.Options{
		UseKeyring: config.BoolDeref(cfg.UseKeyring, true),
		File:       cfg.TokenFile,
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", os.Getenv("QUICKCOPY_API"), "command API base URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to quickcopy.yaml/.yml/.json")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
