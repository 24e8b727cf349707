package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/netpong/internal/audio"
	"github.com/vovakirdan/netpong/internal/loop"
	"github.com/vovakirdan/netpong/internal/multiplayer"
	"github.com/vovakirdan/netpong/internal/storage"
)

// SSHServerConfig configures the SSH front end.
type SSHServerConfig struct {
	Address     string        // host:port, e.g. ":23235"
	HostKeyPath string        // Generated on first start if missing
	RelayURL    string        // Relay every session plays through
	Loop        loop.Config   // Pacing for each session
	IdleTimeout time.Duration // Idle connections are dropped after this
}

// SSHServer serves netpong over SSH. Every session gets its own lobby and
// driver and always plays online; the shared store records everyone's matches.
type SSHServer struct {
	cfg    SSHServerConfig
	server *ssh.Server
	store  *storage.Store // Optional
	logger *log.Logger
}

// NewSSHServer builds the server. store may be nil to disable history.
func NewSSHServer(cfg SSHServerConfig, store *storage.Store, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.HostKeyPath == "" {
		return nil, errors.New("tui: ssh host key path is empty")
	}
	// wish generates the key itself, but not its directory.
	if err := os.MkdirAll(filepath.Dir(cfg.HostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("tui: cannot create host key directory: %w", err)
	}

	srv := &SSHServer{cfg: cfg, store: store, logger: logger}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.sessionLog,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot create SSH server: %w", err)
	}
	srv.server = server
	return srv, nil
}

// teaHandler builds the lobby for one SSH session.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		return nil, nil
	}

	logger := s.logger.With("user", sess.User())
	opts := loop.Options{
		Mode:    multiplayer.MatchModeOnline,
		Connect: loop.DialRelay(s.cfg.RelayURL, logger),
		Audio:   audio.Silent{},
		Logger:  logger,
	}
	if s.store != nil {
		opts.Results = s.store
	}
	driver := loop.NewDriver(s.cfg.Loop, opts)

	// The session context ends the relay dial when the player disconnects.
	model := NewModel(sess.Context(), driver, s.store, s.cfg.Loop.FPS, pty.Window.Width, pty.Window.Height)
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// sessionLog logs connects and disconnects.
func (s *SSHServer) sessionLog(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		start := time.Now()
		remote := sess.RemoteAddr().String()
		s.logger.Info("ssh session opened", "user", sess.User(), "remote", remote)
		next(sess)
		s.logger.Info("ssh session closed", "user", sess.User(), "remote", remote,
			"duration", time.Since(start).Round(time.Second))
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("ssh server listening", "address", s.cfg.Address, "relay", s.cfg.RelayURL)

	errCh := make(chan error, 1)
	go func() {
		err := s.server.ListenAndServe()
		if errors.Is(err, ssh.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("ssh server stopping")
	return s.Shutdown()
}

// Shutdown stops accepting sessions and waits up to 10s for open ones.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *SSHServer) Addr() string {
	return s.cfg.Address
}
