package main

import (
	"log/slog"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	klog "github.com/birdayz/kgraph/pkg/log"
)

var (
	logLevel  string
	logFormat string

	logger = func() *zerolog.Logger {
		l := zerolog.Nop()
		return &l
	}()
)

var rootCmd = &cobra.Command{
	Use:   "kgraph",
	Short: "Compile static dataflow graphs into execution plans",
	Long: `kgraph loads graph documents (YAML, JSON or HCL), schedules their nodes
and assigns buffer slots to every connection.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := klog.New(logLevel, logFormat)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")

	rootCmd.AddCommand(compileCmd, printCmd, watchCmd, cacheCmd)
}

// slogger hands the command logger to the library packages.
func slogger() *slog.Logger {
	return klog.Slog(logger)
}
