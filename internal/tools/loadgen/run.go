package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

type request struct {
	method string
	path   string
	body   string
}

// Run drives synthetic traffic at the auth endpoints. Most requests are
// intentionally rejected (unknown accounts, bogus codes); the point is to
// exercise the metrics and logs, not to create data.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:4000"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	requests := requestsForProfile(cfg.Profile, rand.New(rand.NewSource(cfg.Seed)))
	if len(requests) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	var total, failures, s2xx, s4xx, s5xx int64
	jobs := make(chan request, cfg.Concurrency*2)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Concurrency; i++ {
		g.Go(func() error {
			for req := range jobs {
				httpReq, err := http.NewRequestWithContext(gctx, req.method, cfg.BaseURL+req.path, bytes.NewReader([]byte(req.body)))
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				if req.body != "" {
					httpReq.Header.Set("Content-Type", "application/json")
				}
				resp, err := client.Do(httpReq)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				_ = resp.Body.Close()
				atomic.AddInt64(&total, 1)
				switch {
				case resp.StatusCode >= 200 && resp.StatusCode < 300:
					atomic.AddInt64(&s2xx, 1)
				case resp.StatusCode >= 400 && resp.StatusCode < 500:
					atomic.AddInt64(&s4xx, 1)
				case resp.StatusCode >= 500:
					atomic.AddInt64(&s5xx, 1)
				}
			}
			return nil
		})
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	i := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			select {
			case jobs <- requests[i%len(requests)]:
				i++
			case <-ctx.Done():
				break loop
			}
		}
	}
	close(jobs)
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{TotalRequests: total, Failures: failures, Status2xx: s2xx, Status4xx: s4xx, Status5xx: s5xx}, nil
}

func requestsForProfile(profile string, rng *rand.Rand) []request {
	ghost := fmt.Sprintf(`{"email":"ghost-%d@loadgen.invalid"}`, rng.Intn(1_000_000))
	badLogin := `{"email":"ghost@loadgen.invalid","password":"wrong","verificationCode":"000000"}`
	badSignin := `{"email":"ghost@loadgen.invalid","password":"wrong"}`

	switch strings.ToLower(profile) {
	case "", "mixed":
		return []request{
			{http.MethodGet, "/health/live", ""},
			{http.MethodPost, "/api/auth/send-login-code", ghost},
			{http.MethodPost, "/api/auth/signin", badSignin},
			{http.MethodGet, "/api/auth/me", ""},
		}
	case "auth":
		return []request{
			{http.MethodPost, "/api/auth/send-login-code", ghost},
			{http.MethodPost, "/api/auth/verify-login", badLogin},
			{http.MethodPost, "/api/auth/signin", badSignin},
		}
	case "error-heavy":
		return []request{
			{http.MethodPost, "/api/auth/verify-login", badLogin},
			{http.MethodPost, "/api/auth/verify-code", `{"email":"x"}`},
			{http.MethodPost, "/api/auth/signin", `not-json`},
		}
	default:
		return nil
	}
}
