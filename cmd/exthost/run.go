package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/extension-host/extension"
	"github.com/wippyai/extension-host/hostfunc"
	"github.com/wippyai/extension-host/protocol"
	"github.com/wippyai/extension-host/registry"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		sendJSON   string
		sendTo     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start extensions from a config file",
		Long: `Run loads every extension listed in the config file, registers them,
and either delivers a single command (--send/--to) or opens an
interactive console on the merged event stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")

			logger, err := buildLogger(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			if sendJSON == "" {
				if !term.IsTerminal(int(os.Stdout.Fd())) {
					return fmt.Errorf("interactive mode needs a terminal; use --send/--to for scripted runs")
				}
			} else if sendTo == "" {
				return fmt.Errorf("--send requires --to <extension-id>")
			}

			ctx := cmd.Context()
			reg, err := startRegistry(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer reg.Close()

			if sendJSON != "" {
				return runOneShot(reg, sendTo, sendJSON)
			}
			return runInteractive(reg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "exthost.yaml", "Host config file")
	cmd.Flags().StringVar(&sendJSON, "send", "", "Command JSON to deliver, then exit")
	cmd.Flags().StringVar(&sendTo, "to", "", "Extension id the command goes to")

	return cmd
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func startRegistry(ctx context.Context, cfg *hostConfig, logger *zap.Logger) (*registry.Registry, error) {
	caps, err := hostfunc.Default()
	if err != nil {
		return nil, err
	}

	startOpts := []extension.StartOption{
		extension.WithLogger(logger),
		extension.WithHostFuncs(caps),
	}
	if cfg.MemoryLimitPages > 0 {
		startOpts = append(startOpts, extension.WithMemoryLimitPages(cfg.MemoryLimitPages))
	}

	reg := registry.New(
		registry.WithLogger(logger),
		registry.WithStartOptions(startOpts...),
	)

	for _, entry := range cfg.Extensions {
		ext, err := extension.Load(entry.ID, entry.Config, entry.Path)
		if err != nil {
			reg.Close()
			return nil, err
		}
		if err := reg.Register(ctx, ext); err != nil {
			reg.Close()
			return nil, fmt.Errorf("register %q: %w", entry.ID, err)
		}
	}
	return reg, nil
}

// runOneShot delivers one command and prints events as JSON lines until the
// correlated response arrives.
func runOneShot(reg *registry.Registry, to, commandJSON string) error {
	var cmd protocol.Command
	if err := json.Unmarshal([]byte(commandJSON), &cmd); err != nil {
		return fmt.Errorf("parse command: %w", err)
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}

	if err := reg.Send(to, cmd); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for ev := range reg.Events() {
		line := struct {
			Extension string            `json:"extension"`
			Response  protocol.Response `json:"response"`
		}{ev.Extension, ev.Response}
		if err := enc.Encode(line); err != nil {
			return err
		}

		if ev.Extension == to && ev.Response.CorrelationID == cmd.CorrelationID {
			return nil
		}
	}
	return fmt.Errorf("event stream ended before the response arrived")
}
