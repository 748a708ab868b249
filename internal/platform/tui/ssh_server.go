package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/storage"
)

// Builder creates a fresh factory laid out for a scenario.
type Builder func(scenarioID string) (*factory.Factory, error)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23235").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.beltworks/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// StepsPerSecond is the per-session simulation rate.
	StepsPerSecond int

	// Build creates each session's factory.
	Build Builder

	// Store receives saves. Optional.
	Store *storage.Store

	Logger *log.Logger
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:        ":23235",
		IdleTimeout:    30 * time.Minute,
		StepsPerSecond: 30,
	}
}

// SSHServer serves one factory stepper per SSH session.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	if cfg.Build == nil {
		return nil, errors.New("ssh: no factory builder")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "beltworks-ssh",
		})
	}

	srv := &SSHServer{config: cfg, logger: logger}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".beltworks", "host_key")
	}

	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	model := NewSessionModel(s.config, s.logger, sshSession.User(), pty.Window.Width, pty.Window.Height)
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe serves until ctx is done, then shuts down.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// SessionModel manages one SSH session: scenario menu, then the stepper.
type SessionModel struct {
	config   SSHServerConfig
	logger   *log.Logger
	username string
	width    int
	height   int

	menu    MenuModel
	stepper *Model
	err     string
}

// NewSessionModel creates a new session model.
func NewSessionModel(cfg SSHServerConfig, logger *log.Logger, username string, width, height int) SessionModel {
	return SessionModel{
		config:   cfg,
		logger:   logger,
		username: username,
		width:    width,
		height:   height,
		menu:     NewMenuModel(width, height),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
	}

	if m.stepper != nil {
		next, cmd := m.stepper.Update(msg)
		if sm, ok := next.(Model); ok {
			m.stepper = &sm
		}
		return m, cmd
	}

	next, cmd := m.menu.Update(msg)
	if mm, ok := next.(MenuModel); ok {
		m.menu = mm
	}
	if m.menu.IsQuitting() {
		return m, tea.Quit
	}

	if selected := m.menu.Selected(); selected != nil {
		f, err := m.config.Build(selected.ScenarioID)
		if err != nil {
			m.logger.Error("cannot build scenario", "scenario", selected.ScenarioID, "err", err)
			m.err = err.Error()
			m.menu.selected = nil
			return m, cmd
		}
		stepper := NewModel(f, Options{
			Scenario:       selected.ScenarioID,
			Title:          selected.Title,
			StepsPerSecond: m.config.StepsPerSecond,
			Store:          m.config.Store,
			SaveName:       fmt.Sprintf("%s-%s", m.username, selected.ScenarioID),
			Logger:         m.logger,
		})
		sized, _ := stepper.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		if sm, ok := sized.(Model); ok {
			stepper = sm
		}
		m.stepper = &stepper
		return m, stepper.Init()
	}
	return m, cmd
}

// View renders the session.
func (m SessionModel) View() string {
	if m.stepper != nil {
		return m.stepper.View()
	}
	if m.err != "" {
		return m.menu.View() + "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("error: "+m.err)
	}
	return m.menu.View()
}
