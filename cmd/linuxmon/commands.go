package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/monify-labs/linuxmon/internal/agent"
	"github.com/monify-labs/linuxmon/internal/config"
	"github.com/monify-labs/linuxmon/internal/logging"
	"github.com/monify-labs/linuxmon/internal/sender"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "linuxmon",
		Short: "Collect a single snapshot of host metrics",
		Long: `linuxmon collects load, CPU, memory, swap and per-filesystem usage
once and prints the snapshot as JSON.

Filesystems are filtered with ignore rules fetched from a remote JSON
document and cached on disk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultConfigFile, "path to the settings document")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", config.EnvFilePath, "environment file applied before loading settings")

	root.AddCommand(newRunCmd(opts), newRulesCmd(opts), newVersionCmd())
	return root
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var push bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect metrics once and print the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer closer.Close()

			start := time.Now()
			defer func() {
				logger.Infof("Finished, metrics collection run time: %.2f seconds", time.Since(start).Seconds())
			}()

			a, err := agent.NewAgent(cfg, logger)
			if err != nil {
				logger.WithError(err).Error("Invalid configuration")
				return err
			}

			snapshot, err := a.Run(cmd.Context())
			if err != nil {
				logger.WithError(err).Error("Metrics collection aborted")
				return err
			}

			if err := writeJSON(cmd.OutOrStdout(), snapshot); err != nil {
				return err
			}

			if !push && cfg.Settings.PushURL == "" {
				return nil
			}
			if cfg.Settings.PushURL == "" {
				return errors.New("--push requires settings.push_url")
			}

			s := sender.NewHTTPSender(cfg.Settings.PushURL, cfg.Settings.PushToken, cfg.Settings.FetchTimeout)
			defer s.Close()
			if _, err := s.Send(cmd.Context(), snapshot); err != nil {
				logger.WithError(err).Error("Failed to push snapshot")
				return err
			}
			logger.Info("Snapshot pushed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&push, "push", false, "also push the snapshot to settings.push_url")
	return cmd
}

func newRulesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show the filesystems that pass the ignore rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer closer.Close()

			a, err := agent.NewAgent(cfg, logger)
			if err != nil {
				return err
			}

			set, err := a.FilteredFilesystems(cmd.Context())
			if err != nil {
				logger.WithError(err).Error("Could not apply filesystem ignore rules")
				return err
			}

			devices := make([]string, 0, len(set))
			for device := range set {
				devices = append(devices, device)
			}
			sort.Strings(devices)

			out := cmd.OutOrStdout()
			for _, device := range devices {
				fmt.Fprintf(out, "%s\t%s\n", device, set[device])
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "linuxmon v%s\n", config.Version)
			fmt.Fprintf(out, "Commit: %s\n", config.Commit)
			fmt.Fprintf(out, "Build Date: %s\n", config.BuildDate)
		},
	}
}

// setup loads the settings and configures logging. Errors before logging is
// configured go to stderr.
func setup(cmd *cobra.Command, opts *rootOptions) (config.Config, *logrus.Logger, io.Closer, error) {
	errOut := cmd.ErrOrStderr()

	if err := config.LoadEnvFile(opts.envFile); err != nil {
		fmt.Fprintf(errOut, "Warning: Failed to load env file: %v\n", err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return cfg, nil, nil, err
	}

	logger := logrus.New()
	closer, err := logging.Setup(logger, cfg.Settings.LogLevel, cfg.Settings.LogFile, cfg.Debug)
	if err != nil {
		logger.WithError(err).Warn("Could not open log file, logging to stderr")
	}
	return cfg, logger, closer, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
