package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/platform/tui"
	"github.com/vovakirdan/rastercade/internal/registry"
	"github.com/vovakirdan/rastercade/internal/sequence"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout time.Duration
	flagDefaultSeq  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the rastercade SSH server",
	Long: `Start an SSH server that runs sequences in the visitor's terminal.

Each SSH connection gets its own engine. The words after the host name
choose the first sequence; without them --default is started.
Runs of every session are recorded in the server's database.

Host key handling:
  - If --host-key (or server.host_key_path) is set, uses that key file
  - Otherwise, auto-generates a key at ~/.rastercade/host_key

Examples:
  rastercade serve                      # Listen on the configured address
  rastercade serve --ssh :2222          # Listen on port 2222
  rastercade serve --default bars       # Start visitors on the raster bars

Users can connect with:
  ssh -t localhost -p 2323
  ssh -t localhost -p 2323 zoom`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (default: config server.address)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (default: config server.host_key_path)")
	serveCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout before disconnecting (default: config server.idle_timeout)")
	serveCmd.Flags().StringVar(&flagDefaultSeq, "default", "intro", "Sequence started when the visitor names none")
}

// sessionPlay resolves the first sequence of an SSH session from its command.
func (e *engine) sessionPlay(defaultID string) tui.SessionPlay {
	return func(user string, command []string) tui.PlayFunc {
		id := defaultID
		if len(command) > 0 {
			id = strings.ToLower(command[0])
		}
		if !registry.Exists(id) {
			e.logger.Warn("unknown sequence requested", "user", user, "id", id)
			id = defaultID
		}
		args := sequence.Args{
			Seed:   time.Now().UnixNano(),
			Params: map[string]string{},
		}
		// Key=value words after the id become parameters.
		if len(command) > 1 {
			for _, kv := range command[1:] {
				if k, v, ok := strings.Cut(kv, "="); ok {
					args.Params[k] = v
				}
			}
		}
		e.logger.Info("session sequence", "user", user, "id", id)
		return func(ctx context.Context, screen core.Screen) error {
			return e.newLoader(screen).Start(ctx, id, args)
		}
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	if !registry.Exists(flagDefaultSeq) {
		return fmt.Errorf("unknown sequence %q, run 'rastercade list' to see available sequences", flagDefaultSeq)
	}

	e, err := setup(true, false)
	if err != nil {
		return err
	}
	defer e.Close()

	cfg := tui.SSHServerConfig{
		Address:     e.cfg.Server.Address,
		HostKeyPath: e.cfg.Server.HostKeyPath,
		IdleTimeout: e.cfg.Server.IdleTimeout,
		Display:     e.cfg.Display(),
		Logger:      e.logger,
	}
	if flagSSHAddr != "" {
		cfg.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.HostKeyPath = flagHostKey
	}
	if flagIdleTimeout > 0 {
		cfg.IdleTimeout = flagIdleTimeout
	}

	server, err := tui.NewSSHServer(cfg, e.sessionPlay(flagDefaultSeq))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Printf("rastercade SSH server listening on %s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")
	return server.ListenAndServe(context.Background())
}
