// Package catalog loads the remote application catalog and tracks which
// applications the user has installed.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"gopkg.in/yaml.v3"

	"streamdash/internal/protocol"
	"streamdash/internal/storage"
	"streamdash/pkg/logging"
)

// KeyInstalledApps stores the installed set as a JSON array of names.
const KeyInstalledApps = "installedApps"

// maxCatalogBytes bounds the fetched document.
const maxCatalogBytes = 4 << 20

var (
	ErrNotLoaded  = errors.New("catalog not loaded")
	ErrUnknownApp = errors.New("unknown application")
	ErrDisabled   = errors.New("application is disabled")
)

// Entry is one installable application.
type Entry struct {
	Name        string `yaml:"name" json:"name"`
	FullName    string `yaml:"full_name" json:"full_name"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
	Disabled    bool   `yaml:"disabled" json:"disabled"`
}

// DisplayName prefers the full name.
func (e Entry) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	return e.Name
}

// Catalog is the parsed catalog document.
type Catalog struct {
	Include []Entry `yaml:"include"`
}

// Find returns the entry called name.
func (c *Catalog) Find(name string) (Entry, bool) {
	for _, e := range c.Include {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Parse decodes a catalog document. A document with an unnamed entry is
// rejected as a whole.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, e := range c.Include {
		if e.Name == "" {
			return nil, fmt.Errorf("parse catalog: entry %d has no name", i)
		}
	}
	return &c, nil
}

// Option configures a Loader.
type Option func(*Loader)

// WithRetries sets how often a failed fetch is retried and the wait
// between attempts.
func WithRetries(max int, wait time.Duration) Option {
	return func(l *Loader) {
		l.client.RetryMax = max
		l.client.RetryWaitMin = wait
		l.client.RetryWaitMax = wait
	}
}

// Loader owns the catalog panel state and the installed set.
type Loader struct {
	url     string
	client  *retryablehttp.Client
	sender  protocol.Sender
	storage storage.Store

	mu      sync.Mutex
	catalog *Catalog
	err     error
	loading bool
}

func New(url string, sender protocol.Sender, st storage.Store, opts ...Option) *Loader {
	client := retryablehttp.NewClient()
	client.Logger = leveledLogger{}
	client.RetryMax = 2

	l := &Loader{url: url, client: client, sender: sender, storage: st}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches and parses the catalog. On failure the previous catalog is
// cleared and the error is kept for display.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	l.loading = true
	l.mu.Unlock()

	c, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.catalog = nil
		l.err = err
		logging.Error("Catalog", err, "Failed to load catalog from %s", l.url)
		return err
	}
	l.catalog = c
	l.err = nil
	logging.Info("Catalog", "Loaded %d applications", len(c.Include))
	return nil
}

func (l *Loader) fetch(ctx context.Context) (*Catalog, error) {
	if l.url == "" {
		return nil, fmt.Errorf("fetch catalog: no catalog URL configured")
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Entries returns the loaded catalog entries, or nil with the load error.
func (l *Loader) Entries() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.catalog == nil {
		if l.err != nil {
			return nil, l.err
		}
		return nil, ErrNotLoaded
	}
	return slices.Clone(l.catalog.Include), nil
}

// Err is the scoped error shown in the catalog panel.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

func (l *Loader) Install(name string) error { return l.act(protocol.AppInstall, name) }
func (l *Loader) Update(name string) error { return l.act(protocol.AppUpdate, name) }
func (l *Loader) Remove(name string) error { return l.act(protocol.AppRemove, name) }

// act sends the action and updates the installed set optimistically; no
// confirmation from the host is awaited.
func (l *Loader) act(action protocol.AppAction, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.catalog == nil {
		return ErrNotLoaded
	}
	entry, ok := l.catalog.Find(name)
	if !ok {
		return fmt.Errorf("%s %q: %w", action, name, ErrUnknownApp)
	}
	if entry.Disabled && action != protocol.AppRemove {
		return fmt.Errorf("%s %q: %w", action, name, ErrDisabled)
	}

	installed := l.readInstalled()
	switch action {
	case protocol.AppInstall, protocol.AppUpdate:
		if !slices.Contains(installed, name) {
			installed = append(installed, name)
		}
	case protocol.AppRemove:
		installed = slices.DeleteFunc(installed, func(n string) bool { return n == name })
	}
	l.writeInstalled(installed)

	l.sender.Send(protocol.AppActionCommand(action, name))
	logging.Info("Catalog", "Requested %s of %s", action, name)
	return nil
}

func (l *Loader) readInstalled() []string {
	raw, ok := l.storage.Get(KeyInstalledApps)
	if !ok || raw == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		logging.Warn("Catalog", "Discarding unreadable installed set: %v", err)
		return nil
	}
	return names
}

func (l *Loader) writeInstalled(names []string) {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		logging.Error("Catalog", err, "Failed to encode installed set")
		return
	}
	if err := l.storage.Set(KeyInstalledApps, string(data)); err != nil {
		logging.Error("Catalog", err, "Failed to persist installed set")
	}
}

// Installed returns the names in the installed set.
func (l *Loader) Installed() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readInstalled()
}

func (l *Loader) IsInstalled(name string) bool {
	return slices.Contains(l.Installed(), name)
}

// leveledLogger routes retryablehttp's logging into ours.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) {
	logging.Warn("Catalog", "%s %v", msg, kv)
}

func (leveledLogger) Info(msg string, kv ...interface{}) {
	logging.Debug("Catalog", "%s %v", msg, kv)
}

func (leveledLogger) Debug(msg string, kv ...interface{}) {
	logging.Debug("Catalog", "%s %v", msg, kv)
}

func (leveledLogger) Warn(msg string, kv ...interface{}) {
	logging.Warn("Catalog", "%s %v", msg, kv)
}
