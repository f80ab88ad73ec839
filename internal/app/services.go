package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"streamdash/internal/audiodev"
	"streamdash/internal/catalog"
	"streamdash/internal/channel"
	"streamdash/internal/config"
	"streamdash/internal/dashboard"
	"streamdash/internal/gamepad"
	"streamdash/internal/hostsim"
	"streamdash/internal/mcpserver"
	"streamdash/internal/protocol"
	"streamdash/internal/storage"
	"streamdash/pkg/logging"
)

// catalogRetryWait is the pause between catalog fetch attempts.
const catalogRetryWait = 500 * time.Millisecond

// Services holds the initialized session: storage, the host channel, the
// dashboard and the optional demo host and MCP server.
type Services struct {
	Store     storage.Store
	Channel   *channel.Channel
	Dashboard *dashboard.Dashboard
	Host      *hostsim.Host
	MCP       *mcpserver.Server

	catalogURL    string
	hostTransport channel.Transport
	closeStore    func() error
}

// OpenStore opens the configured storage backend. The returned close
// function is never nil.
func OpenStore(sc config.StorageConfig) (storage.Store, func() error, error) {
	switch sc.Backend {
	case config.StorageMemory:
		return storage.NewMemory(), func() error { return nil }, nil
	case config.StorageBadger, "":
		db, err := storage.OpenBadger(sc.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
}

// demoDevices is what the audio section lists in demo mode.
var demoDevices = audiodev.Static{
	{ID: "demo-mic", Label: "Demo Microphone", Context: protocol.AudioInput},
	{ID: "demo-speakers", Label: "Demo Speakers", Context: protocol.AudioOutput},
}

// InitializeServices opens storage, connects to the host (or wires up the
// simulator in demo mode) and builds the dashboard.
func InitializeServices(ctx context.Context, cfg *Config) (*Services, error) {
	sc := cfg.StreamdashConfig
	if sc == nil {
		return nil, errors.New("initialize services: configuration not loaded")
	}

	store, closeStore, err := OpenStore(sc.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	s := &Services{Store: store, catalogURL: sc.Catalog.URL, closeStore: closeStore}

	origin, err := sc.Host.ResolvedOrigin()
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	var transport channel.Transport
	var enum audiodev.Enumerator = audiodev.Pactl{}
	if cfg.Demo {
		dashEnd, hostEnd := channel.Pipe()
		transport = dashEnd
		s.hostTransport = hostEnd
		s.Host = hostsim.New(hostEnd, origin, hostsim.Options{Clipboard: "streamdash demo clipboard"})
		enum = demoDevices
		logging.Info("Bootstrap", "Demo mode: using the in-process host simulator")
	} else {
		transport, err = channel.DialWebSocket(ctx, sc.Host.URL, origin)
		if err != nil {
			_ = closeStore()
			return nil, fmt.Errorf("connect to host %s: %w", sc.Host.URL, err)
		}
		logging.Info("Bootstrap", "Connected to host %s", sc.Host.URL)
	}

	mobile := gamepad.IsMobileUserAgent(sc.Gamepad.UserAgent)
	if sc.Gamepad.Mobile != nil {
		mobile = *sc.Gamepad.Mobile
	}

	s.Channel = channel.New(origin, transport)
	s.Dashboard = dashboard.New(s.Channel, dashboard.Config{
		Storage:     store,
		Audio:       enum,
		CatalogURL:  sc.Catalog.URL,
		TouchTarget: sc.Gamepad.TouchTarget,
		Mobile:      mobile,
		CatalogOptions: []catalog.Option{
			catalog.WithRetries(sc.Catalog.Retries, catalogRetryWait),
		},
	})

	if sc.MCP.IsEnabled() {
		s.MCP = mcpserver.New(s.Dashboard, mcpserver.Config{
			Host:    sc.MCP.Host,
			Port:    sc.MCP.Port,
			Version: cfg.Version,
		})
	}
	return s, nil
}

// Start loads the dashboard, then runs the channel and demo host loops
// until ctx ends and starts the catalog fetch and MCP server. The dashboard
// is started first so host snapshots are never dispatched before persisted
// settings are loaded.
func (s *Services) Start(ctx context.Context) error {
	s.Dashboard.Start(ctx)

	go func() {
		if err := s.Channel.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("Bootstrap", err, "Channel stopped")
		}
	}()
	if s.Host != nil {
		go func() {
			if err := s.Host.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error("Bootstrap", err, "Demo host stopped")
			}
		}()
		s.Host.Start()
	}

	if s.catalogURL != "" {
		go s.Dashboard.LoadCatalog(ctx)
	} else {
		logging.Debug("Bootstrap", "No catalog URL configured")
	}

	if s.MCP != nil {
		if err := s.MCP.Start(ctx); err != nil {
			return fmt.Errorf("start mcp server: %w", err)
		}
	}
	return nil
}

// Close tears everything down in reverse order of creation. It is safe to
// call more than once.
func (s *Services) Close() error {
	var errs []error
	if s.MCP != nil {
		if err := s.MCP.Stop(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Host != nil {
		s.Host.Stop()
	}
	if s.Dashboard != nil {
		if err := s.Dashboard.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.hostTransport != nil {
		_ = s.hostTransport.Close()
	}
	if s.closeStore != nil {
		if err := s.closeStore(); err != nil {
			errs = append(errs, err)
		}
		s.closeStore = nil
	}
	return errors.Join(errs...)
}
