// Package opensearch provides the full-text index over extracted tender
// records. Every persisted record is mirrored here so that the search API can
// answer keyword queries with highlighting and facets without touching the
// relational store.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/turtacn/Tender-Intelligence/internal/config"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
)

var ErrConnectionFailed = errors.New(errors.ErrCodeSearchError, "opensearch connection failed")

const (
	defaultIndexPrefix = "tenderintel"

	healthCheckInterval = 30 * time.Second
)

// Client wraps the OpenSearch connection with index-prefix handling and a
// background health probe.
type Client struct {
	client  *opensearch.Client
	prefix  string
	logger  logging.Logger
	healthy atomic.Bool
	cancel  context.CancelFunc
}

// NewClient connects to the cluster described by cfg and verifies
// connectivity with an initial ping.
func NewClient(cfg config.OpenSearchConfig, logger logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "opensearch addresses required")
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		MaxRetries:    3,
		RetryBackoff:  func(int) time.Duration { return 100 * time.Millisecond },
		RetryOnStatus: []int{429, 502, 503, 504},
		Transport:     transport,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "failed to create opensearch client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		client: osClient,
		prefix: indexPrefix(cfg.IndexPrefix),
		logger: logger,
		cancel: cancel,
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := c.Ping(pingCtx); err != nil {
		cancel()
		return nil, ErrConnectionFailed.WithCause(err)
	}

	go c.healthLoop(ctx)
	return c, nil
}

// NewClientWithOpenSearch wraps an existing low-level client (for testing).
// No health probe is started.
func NewClientWithOpenSearch(osClient *opensearch.Client, prefix string, logger logging.Logger) *Client {
	return &Client{
		client: osClient,
		prefix: indexPrefix(prefix),
		logger: logger,
		cancel: func() {},
	}
}

// Ping checks cluster reachability and updates the health flag.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		c.healthy.Store(false)
		return errors.Wrap(err, errors.ErrCodeSearchError, "ping failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		c.healthy.Store(false)
		return errors.New(errors.ErrCodeSearchError, "ping returned error status")
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy reports the result of the most recent probe.
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

// IndexName applies the configured prefix to a base index name.
func (c *Client) IndexName(base string) string {
	return c.prefix + "_" + base
}

// Underlying exposes the low-level client for request execution.
func (c *Client) Underlying() *opensearch.Client {
	return c.client
}

// Close stops the health probe.
func (c *Client) Close() error {
	c.cancel()
	c.logger.Info("OpenSearch client closed")
	return nil
}

func (c *Client) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.Ping(ctx)
			curr := c.healthy.Load()

			if prev && !curr {
				c.logger.Error("OpenSearch cluster became unhealthy", logging.Err(err))
			} else if !prev && curr {
				c.logger.Info("OpenSearch cluster recovered")
			}
		}
	}
}

func indexPrefix(p string) string {
	p = strings.TrimSuffix(strings.TrimSpace(p), "_")
	if p == "" {
		return defaultIndexPrefix
	}
	return p
}

//Personal.AI order the ending
