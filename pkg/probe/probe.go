package probe

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/extractor"
	"github.com/Ramsey-B/clover/pkg/search"
)

const (
	// StatusTimeout marks a request that hit the client timeout
	StatusTimeout = "TIMEOUT"
	// StatusError marks a request that failed before a response arrived
	StatusError = "ERROR"

	// DefaultLimit is the result limit sent with every probe request
	DefaultLimit = 10
	// DefaultInjectionDelay is the pause after each injection request
	DefaultInjectionDelay = 500 * time.Millisecond
	// DefaultEdgeDelay is the pause after each edge case request
	DefaultEdgeDelay = 300 * time.Millisecond
)

// Poster sends one search request and returns the response whatever its status
type Poster interface {
	Post(ctx context.Context, req search.Request) (*search.Response, error)
}

// Result is the outcome of one probe request
type Result struct {
	Query        string        `json:"query"`
	Kind         string        `json:"test_type"`
	Status       string        `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
	Success      bool          `json:"success"`
	ResultCount  int           `json:"result_count"`
	ResponseSize int           `json:"response_size"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Config controls pacing and request shape
type Config struct {
	Limit          int
	InjectionDelay time.Duration
	EdgeDelay      time.Duration
	Timeout        time.Duration
	Schemas        []string
}

// DefaultConfig returns the default probe pacing
func DefaultConfig() Config {
	return Config{
		Limit:          DefaultLimit,
		InjectionDelay: DefaultInjectionDelay,
		EdgeDelay:      DefaultEdgeDelay,
	}
}

// Prober runs probe queries one at a time
type Prober struct {
	client    Poster
	cfg       Config
	extractor *extractor.Extractor
	logger    ectologger.Logger
}

// NewProber creates a Prober
func NewProber(client Poster, cfg Config, logger ectologger.Logger) *Prober {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Prober{
		client:    client,
		cfg:       cfg,
		extractor: extractor.New(),
		logger:    logger,
	}
}

// Run sends each query in order, pausing between requests. It stops early only when ctx is done.
func (p *Prober) Run(ctx context.Context, queries []Query) ([]Result, error) {
	results := make([]Result, 0, len(queries))
	for i, q := range queries {
		results = append(results, p.Probe(ctx, q))

		if i == len(queries)-1 {
			break
		}
		if err := pause(ctx, p.delay(q.Kind)); err != nil {
			return results, err
		}
	}
	return results, nil
}

// Probe sends a single query
func (p *Prober) Probe(ctx context.Context, q Query) Result {
	res := Result{Query: q.Text, Kind: q.Kind, Timestamp: time.Now()}

	reqCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.client.Post(reqCtx, search.Request{Query: q.Text, Schemas: p.cfg.Schemas, Limit: p.cfg.Limit})
	if err != nil {
		res.ResponseTime = time.Since(start)
		if search.IsTimeout(err) {
			res.Status = StatusTimeout
			res.ErrorMessage = "Request timed out"
		} else {
			res.Status = StatusError
			res.ErrorMessage = search.Snippet([]byte(err.Error()))
		}
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"test_type": q.Kind,
			"status":    res.Status,
		}).Warn("Probe request failed")
		return res
	}

	res.ResponseTime = resp.Duration
	res.Status = strconv.Itoa(resp.StatusCode)
	res.Success = resp.StatusCode == http.StatusOK
	res.ResponseSize = len(resp.Body)
	if res.Success {
		if hits, err := p.extractor.Results(resp.Body); err == nil {
			res.ResultCount = len(hits)
		}
	} else {
		res.ErrorMessage = search.Snippet(resp.Body)
	}
	return res
}

func (p *Prober) delay(kind string) time.Duration {
	if kind == KindEdgeCase {
		return p.cfg.EdgeDelay
	}
	return p.cfg.InjectionDelay
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("probe interrupted: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
