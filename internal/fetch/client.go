package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"vantetider/internal/config"
	"vantetider/internal/metrics"
)

type Client struct {
	http *resty.Client
}

func NewClient(cfg config.Config) *Client {
	httpClient := resty.New()
	httpClient.SetHeader("user-agent", cfg.UserAgent)
	httpClient.SetTimeout(cfg.HTTPTimeout)
	httpClient.SetRetryCount(cfg.HTTPMaxRetries)
	httpClient.SetRetryWaitTime(250 * time.Millisecond)
	httpClient.SetRetryMaxWaitTime(5 * time.Second)
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return isRetryableStatus(res.StatusCode())
	})

	rps := cfg.HTTPRateRPS
	if rps <= 0 {
		rps = 1
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	// retries pass through the limiter too
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})
	httpClient.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		metrics.ObserveRequest(res.Request.Method, res.StatusCode(), res.Time())
		slog.Debug("fetched page", "method", res.Request.Method, "url", res.Request.URL, "status", res.StatusCode(), "elapsed", res.Time())
		return nil
	})
	httpClient.OnError(func(req *resty.Request, err error) {
		metrics.ObserveRequest(req.Method, 0, time.Since(req.Time))
	})

	return &Client{http: httpClient}
}

func (c *Client) Get(ctx context.Context, target string) (Page, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(target)
	return toPage(http.MethodGet, target, res, err)
}

func (c *Client) Post(ctx context.Context, target string, form url.Values) (Page, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post(target)
	return toPage(http.MethodPost, target, res, err)
}

func toPage(method, target string, res *resty.Response, err error) (Page, error) {
	if err != nil {
		return Page{}, err
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return Page{}, &StatusError{Method: method, URL: target, Status: res.StatusCode()}
	}
	return Page{URL: target, Status: res.StatusCode(), Body: res.Body()}, nil
}

// The site answers 500 for filter combinations it has no data for, so that
// status is final.
func isRetryableStatus(status int) bool {
	switch status {
	case 429, 502, 503, 504:
		return true
	default:
		return false
	}
}
