package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/platform/tui"
	"github.com/vovakirdan/beltworks/internal/storage"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the beltworks SSH server",
	Long: `Start an SSH server where every connection picks a scenario and
watches its own factory run.

Saves from SSH sessions go to the shared database under
"<user>-<scenario>".

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.beltworks/host_key

Examples:
  beltworks serve                           # Listen on :23235
  beltworks serve --ssh :2222 --wear easy
  beltworks serve --host-key ./my_host_key

Users can connect with:
  ssh localhost -p 23235`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23235", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) {
	logger := newLogger("beltworks-ssh")

	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}
	settings, err := cfg.Settings()
	if err != nil {
		exitf("%v", err)
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open saves database", "error", err)
		store = nil
	}

	serverCfg := tui.DefaultSSHServerConfig()
	serverCfg.Address = flagSSHAddr
	serverCfg.HostKeyPath = flagHostKey
	serverCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	serverCfg.StepsPerSecond = cfg.Clock.StepsPerSecond
	serverCfg.Store = store
	serverCfg.Logger = logger
	serverCfg.Build = func(id string) (*factory.Factory, error) {
		f, _, err := buildFactory(source{scenario: id}, settings, nil, logger)
		return f, err
	}

	server, err := tui.NewSSHServer(serverCfg)
	if err != nil {
		exitf("creating server: %v", err)
	}

	fmt.Printf("Starting beltworks SSH server on %s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := server.ListenAndServe(ctx)
	if store != nil {
		store.Close()
	}
	if runErr != nil {
		exitf("server: %v", runErr)
	}
}
