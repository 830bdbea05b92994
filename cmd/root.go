// Package cmd implements the dissect CLI using the cobra framework.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/dissect/internal/config"
	"firestige.xyz/dissect/internal/log"
)

var (
	configFile string
	cfg        *config.GlobalConfig
)

// rootCmd is the base command when dissect is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:     "dissect",
	Short:   "Protocol dissection toolkit",
	Long:    `dissect parses captured traffic against a registry of protocol decoders (ARP, DNS, SSH, Telnet, WebSocket, MQTT, Diameter, GTPv2-C, RADIUS, M3UA, S1AP/NGAP/X2AP, H.323) and reports what it found.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		log.Init(&log.LoggerConfig{
			Pattern:  cfg.Log.Pattern,
			Time:     cfg.Log.Time,
			Level:    cfg.Log.Level,
			Appender: cfg.Log.Appender,
			File:     logFileOpt(cfg),
		})
		return nil
	},
}

func logFileOpt(cfg *config.GlobalConfig) log.FileAppenderOpt {
	return log.FileAppenderOpt{
		Filename:   cfg.Log.File.Path,
		MaxSize:    cfg.Log.File.MaxSizeMB,
		MaxBackups: cfg.Log.File.MaxBackups,
		MaxAge:     cfg.Log.File.MaxAgeDays,
		Compress:   cfg.Log.File.Compress,
	}
}

// Execute runs the root command; called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "dissect.yml", "config file path")
}
