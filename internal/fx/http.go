package fx

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/logger"
	"github.com/spigell/salary-intel/internal/utils"
)

const (
	contentType    = "application/json"
	acceptEncoding = "gzip"
	userAgent      = "salary-intel/1.0"
	baseBackoff    = 100 * time.Millisecond
)

// HTTPOptions configures a rate API that answers
// GET {BaseURL}/latest?from=EUR&to=USD with {"base","date","rates"}.
type HTTPOptions struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	MaxRetries    int
	Logger        *zap.Logger
}

type HTTPSource struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
	logger  *zap.Logger
}

type latestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// statusError carries a non-200 response status.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string { return "bad status: " + e.status }

func NewHTTPSource(opts HTTPOptions) (*HTTPSource, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, eris.New("fx: http source needs a base url")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, eris.Wrap(err, "fx: parse base url")
	}
	if opts.Timeout <= 0 || opts.Timeout > MaxTimeout {
		opts.Timeout = MaxTimeout
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 5
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	return &HTTPSource{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		logger:  logger.WithFields(opts.Logger, zap.String("component", "fx_http")),
	}, nil
}

func (s *HTTPSource) Name() string { return strings.TrimRight(s.opts.BaseURL, "/") + "/latest" }

func (s *HTTPSource) Quote(ctx context.Context, from, to string) (Quote, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	endpoint := s.Name() + "?" + q.Encode()

	var resp latestResponse
	if err := s.getJSON(ctx, endpoint, &resp); err != nil {
		return Quote{}, eris.Wrapf(err, "fx: fetch %s-%s", from, to)
	}

	r, ok := resp.Rates[to]
	if !ok || r <= 0 {
		return Quote{}, eris.Wrapf(ErrUnavailable, "no %s rate in response", to)
	}
	if _, err := time.Parse(time.DateOnly, resp.Date); err != nil {
		return Quote{}, eris.Wrapf(ErrUnavailable, "bad rate date %q", resp.Date)
	}

	return Quote{
		From:       from,
		To:         to,
		Rate:       r,
		AsOf:       resp.Date,
		SourceName: s.Name(),
		SourceType: intel.SourceAPI,
		Version:    "fx-live-" + resp.Date,
	}, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, endpoint string, target any) error {
	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := utils.WaitFor(ctx, baseBackoff<<uint(attempt-1)); err != nil {
				return eris.Wrap(err, "backoff")
			}
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limiter wait")
		}

		err := s.do(ctx, endpoint, target)
		if err == nil {
			return nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && se.code < 500 && se.code != http.StatusTooManyRequests {
			return err
		}
		s.logger.Debug("fx request failed",
			zap.String("url", endpoint),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return lastErr
}

func (s *HTTPSource) do(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set("User-Agent", userAgent)
	if s.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.opts.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, status: resp.Status}
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return eris.Wrap(err, "gzip reader")
		}
		defer gz.Close()
		body = gz
	}

	if err := json.NewDecoder(body).Decode(target); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
