package lsp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"
	"time"

	powernapconfig "github.com/charmbracelet/x/powernap/pkg/config"
	powernap "github.com/charmbracelet/x/powernap/pkg/lsp"
	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"
	"github.com/rs/zerolog/log"
)

// Interpreters and runners that may download packages or start the wrong
// binary are never auto-started.
var skipAutoStart = map[string]bool{
	"npx":     true,
	"node":    true,
	"python":  true,
	"python3": true,
	"java":    true,
	"ruby":    true,
	"perl":    true,
	"dotnet":  true,
	"bun":     true,
}

// DiagCallback receives the aggregated diagnostics of a document each time
// they are collected.
type DiagCallback func(absPath string, diags []protocol.Diagnostic)

// Manager starts language servers on demand, keyed by server name.
type Manager struct {
	cfgMgr *powernapconfig.Manager

	mu      sync.Mutex
	clients map[string]*Client
	broken  map[string]bool // servers that failed to start

	callback DiagCallback
}

// NewManager creates a manager with powernap's built-in server defaults.
func NewManager() *Manager {
	// powernap logs through slog to stderr; zerolog owns logging here.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cm := powernapconfig.NewManager()
	_ = cm.LoadDefaults()
	return &Manager{
		cfgMgr:  cm,
		clients: make(map[string]*Client),
		broken:  make(map[string]bool),
	}
}

func (m *Manager) SetCallback(cb DiagCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = cb
}

// Sync sends text as the current content of absPath to every matching
// server and waits up to timeout for their diagnostics.
func (m *Manager) Sync(ctx context.Context, absPath, text string, timeout time.Duration) []protocol.Diagnostic {
	lang := string(powernap.DetectLanguage(absPath))
	clients := m.ensureClients(ctx, absPath, lang)
	if len(clients) == 0 {
		return nil
	}

	var all []protocol.Diagnostic
	for _, c := range clients {
		diags, err := c.syncAndWait(ctx, absPath, lang, text, timeout)
		if err != nil {
			log.Error().Err(err).Str("server", c.serverID).Msg("lsp: sync")
			continue
		}
		log.Debug().Str("server", c.serverID).Int("count", len(diags)).Str("file", absPath).Msg("lsp: diagnostics received")
		all = append(all, diags...)
	}

	m.mu.Lock()
	cb := m.callback
	m.mu.Unlock()
	if cb != nil {
		cb(absPath, all)
	}
	return all
}

// StopAll shuts down every running server.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		if err := c.close(ctx); err != nil {
			log.Error().Err(err).Str("server", c.serverID).Msg("lsp: stopAll")
		}
	}
}

type serverToStart struct {
	name    string
	cfg     *powernapconfig.ServerConfig
	root    string
	cmdPath string
}

func (m *Manager) ensureClients(ctx context.Context, absPath, lang string) []*Client {
	if lang == "" {
		log.Debug().Str("file", absPath).Msg("lsp: unknown language, skipping")
		return nil
	}

	servers := m.cfgMgr.GetServers()

	// Collect running clients under the lock, start the rest outside it.
	m.mu.Lock()
	var result []*Client
	var pending []serverToStart
	for name, cfg := range servers {
		if !slices.Contains(cfg.FileTypes, lang) || m.broken[name] {
			continue
		}
		if c, ok := m.clients[name]; ok {
			result = append(result, c)
			continue
		}
		if skipAutoStart[cfg.Command] {
			m.broken[name] = true
			continue
		}
		cmdPath := lookPath(cfg.Command)
		if cmdPath == "" {
			m.broken[name] = true
			continue
		}
		root := findRoot(absPath, cfg.RootMarkers)
		if root == "" {
			root, _ = os.Getwd()
		}
		pending = append(pending, serverToStart{name: name, cfg: cfg, root: root, cmdPath: cmdPath})
	}
	m.mu.Unlock()

	for _, s := range pending {
		c, err := m.startClient(ctx, s)

		m.mu.Lock()
		if err != nil {
			log.Error().Err(err).Str("server", s.name).Msg("lsp: start failed")
			m.broken[s.name] = true
		} else {
			m.clients[s.name] = c
			result = append(result, c)
		}
		m.mu.Unlock()
	}
	return result
}

func (m *Manager) startClient(ctx context.Context, s serverToStart) (*Client, error) {
	rootURI := string(protocol.URIFromPath(s.root))

	c, err := newClient(s.name, powernap.ClientConfig{
		Command:     s.cmdPath,
		Args:        s.cfg.Args,
		RootURI:     rootURI,
		Environment: s.cfg.Environment,
		Settings:    s.cfg.Settings,
		InitOptions: s.cfg.InitOptions,
		WorkspaceFolders: []protocol.WorkspaceFolder{
			{URI: rootURI, Name: filepath.Base(s.root)},
		},
	})
	if err != nil {
		return nil, err
	}

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := c.initialize(initCtx); err != nil {
		_ = c.close(ctx)
		return nil, fmt.Errorf("initialize: %w", err)
	}

	log.Info().Str("server", s.name).Str("root", s.root).Str("cmd", s.cmdPath).Msg("lsp: server started")
	return c, nil
}

// findRoot walks up from absPath to the first directory holding one of the
// markers.
func findRoot(absPath string, markers []string) string {
	for dir := filepath.Dir(absPath); ; {
		for _, marker := range markers {
			if matches, _ := filepath.Glob(filepath.Join(dir, marker)); len(matches) > 0 {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// lookPath checks PATH, then the bin directories language toolchains
// commonly install into.
func lookPath(command string) string {
	if p, err := exec.LookPath(command); err == nil {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	var extras []string
	if gobin := os.Getenv("GOBIN"); gobin != "" {
		extras = append(extras, gobin)
	}
	if gopath := os.Getenv("GOPATH"); gopath != "" {
		extras = append(extras, filepath.Join(gopath, "bin"))
	}
	extras = append(extras,
		filepath.Join(home, "go", "bin"),
		filepath.Join(home, ".cargo", "bin"),
		filepath.Join(home, ".local", "bin"),
	)
	for _, dir := range extras {
		p := filepath.Join(dir, command)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}
