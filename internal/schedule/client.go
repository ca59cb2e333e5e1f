package schedule

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Client fetches schedule pages with a simple token-bucket rate limit
type Client struct {
	httpClient  *http.Client
	rateLimiter chan struct{}
	userAgent   string
	monitor     *Monitor
	stop        chan struct{}
	closeOnce   sync.Once
}

// NewClient creates a client allowing requestsPerSecond page fetches
func NewClient(requestsPerSecond int, monitor *Monitor) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if monitor == nil {
		monitor = NewMonitor()
	}

	rateLimiter := make(chan struct{}, requestsPerSecond)
	for i := 0; i < requestsPerSecond; i++ {
		rateLimiter <- struct{}{}
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		rateLimiter: rateLimiter,
		userAgent:   "Mozilla/5.0 (compatible; KickWager-Importer/1.0)",
		monitor:     monitor,
		stop:        make(chan struct{}),
	}

	go c.refill(time.Second / time.Duration(requestsPerSecond))
	return c
}

func (c *Client) refill(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			select {
			case c.rateLimiter <- struct{}{}:
			default:
			}
		}
	}
}

// Get fetches url and parses it as HTML
func (c *Client) Get(ctx context.Context, url string) (*goquery.Document, error) {
	doc, err := c.get(ctx, url)
	if err != nil {
		c.monitor.RecordFailure(url, err)
		return nil, err
	}
	c.monitor.RecordSuccess(url)
	return doc, nil
}

func (c *Client) get(ctx context.Context, url string) (*goquery.Document, error) {
	select {
	case <-c.rateLimiter:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Monitor returns the fetch health tracker
func (c *Client) Monitor() *Monitor {
	return c.monitor
}

// Close stops the rate limiter and drops idle connections
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.httpClient.CloseIdleConnections()
	})
}
