package ddns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultInterval is the wait between the end of one update and the start of the next lookup.
	DefaultInterval = 300 * time.Second
	// MinInterval is the shortest interval accepted by WithInterval.
	MinInterval = 1 * time.Minute
)

// DefaultHTTPClient is used for both the IP lookup and the Cloudflare API
// unless UsingHTTPClient supplies another one.
var DefaultHTTPClient = newHTTPClient()

func newHTTPClient() *http.Client {
	// cleanhttp's transport already bounds dialing (30s) and the TLS handshake (10s);
	// Timeout covers reading a response that never finishes.
	c := cleanhttp.DefaultPooledClient()
	c.Timeout = 30 * time.Second
	return c
}

var discard = func() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}()

func newDefaultResolver() Resolver {
	r, err := WebResolver(DefaultIPServiceURL)
	if err != nil {
		panic(err)
	}
	return r
}

// New builds a client that keeps the record described by cfg pointed at our public IP.
//
// By default the public IP is looked up at DefaultIPServiceURL,
// the record is written through the Cloudflare API with cfg.APIToken,
// updates run every DefaultInterval,
// and log output is discarded.
func New(cfg Config, options ...Option) (DDNSClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ddns.New: invalid config: %w", err)
	}
	updater, err := newCloudflareUpdater(cfg.APIToken)
	if err != nil {
		return nil, fmt.Errorf("ddns.New: error creating cloudflare updater: %w", err)
	}
	c := &client{
		Resolver: newDefaultResolver(),
		Updater:  updater,
		config:   cfg,
		interval: DefaultInterval,
		logger:   discard,
	}
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("ddns.New: option %d returned an error: %s", i, err)
		}
	}

	// options may be given in any order, so shared settings are pushed down once every dependency is registered
	c.propagate()
	return c, nil
}

// Option configures the client returned by New.
type Option func(*client) error

// UsingResolver replaces the public IP lookup.
func UsingResolver(resolver Resolver) Option {
	return func(c *client) error {
		if resolver == nil {
			resolver = newDefaultResolver()
		}
		c.Resolver = resolver
		return nil
	}
}

// UsingWebResolver looks up the public IP at serviceURL instead of DefaultIPServiceURL.
func UsingWebResolver(serviceURL string) Option {
	return func(c *client) (err error) {
		if c.Resolver, err = WebResolver(serviceURL); err != nil {
			return fmt.Errorf("ddns.UsingWebResolver: %w", err)
		}
		return nil
	}
}

// UsingUpdater replaces the Cloudflare updater.
func UsingUpdater(updater Updater) Option {
	return func(c *client) error {
		if updater == nil {
			return errors.New("ddns.UsingUpdater: updater cannot be nil")
		}
		c.Updater = updater
		return nil
	}
}

// UsingAPIBaseURL points the Cloudflare updater at another API root.
// It has no effect when a custom updater is in use.
func UsingAPIBaseURL(baseURL string) Option {
	return func(c *client) error {
		if baseURL == "" {
			return errors.New("ddns.UsingAPIBaseURL: base URL cannot be empty")
		}
		c.apiBaseURL = baseURL
		return nil
	}
}

// UsingHTTPClient sets the http client shared by the resolver and the updater.
func UsingHTTPClient(httpclient *http.Client) Option {
	return func(c *client) error {
		c.httpClient = httpclient
		return nil
	}
}

// WithLogger sends log output to logger instead of discarding it.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *client) error {
		c.logger = logger
		return nil
	}
}

// WithInterval changes the wait between updates made by Run.
func WithInterval(interval time.Duration) Option {
	return func(c *client) error {
		if interval < MinInterval {
			return fmt.Errorf("ddns.WithInterval: interval must be at least %s; got %s", MinInterval, interval)
		}
		c.interval = interval
		return nil
	}
}

// SkipUnchanged remembers the last address Cloudflare accepted and skips the update while it stays the same.
// The address is only held in memory.
// Without this option every iteration sends an update.
func SkipUnchanged() Option {
	return func(c *client) error {
		c.skipUnchanged = true
		return nil
	}
}

// StrictProviderErrors makes an update rejected by Cloudflare a *ProviderError instead of only a log line.
func StrictProviderErrors() Option {
	return func(c *client) error {
		c.strict = true
		return nil
	}
}

func (c *client) propagate() {
	if c.logger == nil {
		c.logger = discard
	}
	type setLogger interface {
		SetLogger(*logrus.Entry)
	}
	type setHTTPClient interface {
		SetHTTPClient(*http.Client)
	}

	for _, dep := range []any{c.Resolver, c.Updater} {
		if l, ok := dep.(setLogger); ok {
			l.SetLogger(c.logger)
		}
		if hc, ok := dep.(setHTTPClient); ok && c.httpClient != nil {
			hc.SetHTTPClient(c.httpClient)
		}
	}

	if cf, ok := c.Updater.(*cloudflareUpdater); ok {
		if c.apiBaseURL != "" {
			cf.baseURL = c.apiBaseURL
		}
		// skipping unchanged addresses needs to know whether Cloudflare accepted the last one
		cf.strict = c.strict || c.skipUnchanged
	}
	c.logger = c.logger.WithField("component", "loop")
}

// DDNSClient is returned by New.
type DDNSClient interface {
	// RunOnce looks up the public IP and writes it to the record.
	// Errors are logged before they are returned.
	RunOnce(ctx context.Context) error
	// Run calls RunOnce immediately and then again after each interval until ctx is done.
	// Errors from individual iterations are logged and never stop the loop.
	Run(ctx context.Context) error
}

// client is not safe for concurrent use.
type client struct {
	Resolver
	Updater
	config     Config
	interval   time.Duration
	logger     *logrus.Entry
	httpClient *http.Client
	apiBaseURL string
	strict     bool

	skipUnchanged bool
	lastApplied   string
}

func (c *client) RunOnce(ctx context.Context) error {
	ip, err := c.Resolve(ctx)
	if err != nil {
		c.logger.WithError(err).Error("error fetching current IP")
		return fmt.Errorf("error fetching current IP: %w", err)
	}

	record := NewRecord(c.config.Domain, ip)
	c.logger.WithFields(logrus.Fields{
		"type":    record.Type,
		"name":    record.Name,
		"content": record.Content,
		"ttl":     record.TTL,
		"proxied": record.Proxied,
	}).Info("desired DNS record")

	if c.skipUnchanged && ip == c.lastApplied {
		c.logger.Infof("%s already points at %s; skipping update", record.Name, ip)
		return nil
	}

	err = c.UpdateRecord(ctx, c.config.ZoneID, c.config.RecordID, record)
	var perr *ProviderError
	switch {
	case err == nil:
		c.lastApplied = ip
		return nil
	case errors.As(err, &perr) && !c.strict:
		// already logged by the updater
		c.lastApplied = ""
		return nil
	default:
		c.lastApplied = ""
		c.logger.WithError(err).Error("error updating DNS record")
		return fmt.Errorf("error updating %s: %w", c.config.Domain, err)
	}
}

func (c *client) Run(ctx context.Context) error {
	c.logger.WithFields(logrus.Fields{
		"domain":   c.config.Domain,
		"interval": c.interval,
	}).Info("starting dynamic DNS updates")

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopping dynamic DNS updates")
			return nil
		case <-timer.C:
		}
		// a cancelled context and a fired timer can be ready together
		if ctx.Err() != nil {
			c.logger.Info("stopping dynamic DNS updates")
			return nil
		}
		_ = c.RunOnce(ctx)
		timer.Reset(c.interval)
	}
}
