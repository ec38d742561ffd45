// Package cin7 is the data-source collaborator: a read-only client for the
// Cin7 Omni SalesOrders endpoint that yields raw board records.
package cin7

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"workshopboard/internal/board"
	"workshopboard/internal/config"
	"workshopboard/internal/errs"
)

// requestFields is the projection requested from Cin7. Anything not listed
// here never crosses the wire.
var requestFields = "Id,Reference,ProjectName,Company,CreatedDate,Stage," +
	"EstimatedDeliveryDate,DistributionBranch,IsVoid"

// maxPages bounds a runaway pagination loop.
const maxPages = 100

type Client struct {
	baseURL    string
	username   string
	apiKey     string
	webURLBase string
	appsLink   string
	pageSize   int
	maxRetries int
	retryDelay time.Duration
	httpc      *http.Client
	logger     *slog.Logger
}

func NewClient(cfg config.Cin7Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		username:   cfg.Username,
		apiKey:     cfg.APIKey,
		webURLBase: cfg.WebURLBase,
		appsLink:   cfg.CustomerAppsLink,
		pageSize:   cfg.PageSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelayMillis) * time.Millisecond,
		httpc:      &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger:     logger,
	}
}

// FetchOrders retrieves every non-void sales order, following pagination
// until a short page. Failures map onto the upstream taxonomy: auth
// failures, timeouts, everything else unavailable.
func (c *Client) FetchOrders(ctx context.Context) ([]board.Record, error) {
	var records []board.Record
	for page := 1; page <= maxPages; page++ {
		orders, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			if o.IsVoid {
				continue
			}
			records = append(records, c.toRecord(o))
		}
		if len(orders) < c.pageSize {
			return records, nil
		}
	}
	c.logger.Warn("hit pagination safety limit, some orders may be missing",
		"pages", maxPages, "records", len(records))
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]salesOrder, error) {
	q := url.Values{}
	q.Set("fields", requestFields)
	q.Set("where", whereClause())
	q.Set("order", "EstimatedDeliveryDate ASC, CreatedDate ASC")
	q.Set("page", strconv.Itoa(page))
	q.Set("rows", strconv.Itoa(c.pageSize))

	body, err := c.get(ctx, "/SalesOrders?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var orders []salesOrder
	if err := json.Unmarshal(body, &orders); err == nil {
		return orders, nil
	}
	var env orderEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding page %d: %v", errs.ErrSourceUnavailable, page, err)
	}
	return env.Data, nil
}

// get issues one authenticated GET with retries. 401/403 fail immediately;
// 429 backs off harder; other failures retry with linear delay.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", errs.ErrTimeout, ctx.Err())
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		body, retry, err := c.doOnce(ctx, path)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
		c.logger.Warn("cin7 request failed, retrying", "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, path string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: building request: %v", errs.ErrSourceUnavailable, err)
	}
	req.SetBasicAuth(c.username, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		if isTimeout(err) {
			// A dead context makes further attempts pointless.
			return nil, ctx.Err() == nil, fmt.Errorf("%w: %v", errs.ErrTimeout, err)
		}
		return nil, true, fmt.Errorf("%w: %v", errs.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, fmt.Errorf("%w: reading response: %v", errs.ErrSourceUnavailable, err)
		}
		return data, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, fmt.Errorf("%w: http %d", errs.ErrAuthFailure, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		// Rate limited: wait longer than the normal retry delay.
		select {
		case <-ctx.Done():
		case <-time.After(c.retryDelay * 2):
		}
		return nil, true, fmt.Errorf("%w: rate limited", errs.ErrSourceUnavailable)
	default:
		return nil, true, fmt.Errorf("%w: http %d", errs.ErrSourceUnavailable, resp.StatusCode)
	}
}

func (c *Client) toRecord(o salesOrder) board.Record {
	return board.Record{
		ID:                 o.ID,
		Reference:          o.Reference,
		ProjectName:        o.ProjectName,
		Company:            o.Company,
		DistributionBranch: o.DistributionBranch,
		Stage:              o.Stage,
		ETD:                parseDate(o.EstimatedDeliveryDate),
		CreatedDate:        parseDate(o.CreatedDate),
		SourceURL:          c.orderURL(o.ID),
	}
}

// orderURL builds the click-through link into the Cin7 web app. The engine
// passes it through opaquely.
func (c *Client) orderURL(id int64) string {
	if c.webURLBase == "" || c.appsLink == "" || id == 0 {
		return ""
	}
	return fmt.Sprintf("%s?idCustomerAppsLink=%s&OrderId=%d", c.webURLBase, c.appsLink, id)
}

// whereClause excludes finished and dead stages server-side so pages carry
// only candidate work. The eligibility filter still applies the same
// exclusions locally; this is bandwidth, not correctness.
func whereClause() string {
	return fmt.Sprintf("Stage<>'%s' AND Stage<>'%s'",
		board.StageFullyDispatched, board.StageCancelled)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
