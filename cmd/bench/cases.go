// README: Smoke-check cases: environment, HTTP validation, assistant turns, perf.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "FAIL", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "HTTP: health",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				status, _, err := r.get(ctx, base+"/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status %d", status)}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},
		{
			Name: "HTTP: nearby rejects missing coords",
			Run: func(ctx context.Context, r *Runner) Result {
				status, _, err := r.get(ctx, base+"/api/parking-lots/nearby")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusBadRequest {
					return Result{Status: "FAIL", Note: fmt.Sprintf("expected 400, got %d", status)}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "HTTP: nearby returns lots",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				status, body, err := r.get(ctx, base+"/api/parking-lots/nearby?lat=37.5665&lng=126.9780&radiusKm=3")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status %d", status)}
				}
				var resp struct {
					Count int `json:"count"`
				}
				if err := json.Unmarshal(body, &resp); err != nil {
					return Result{Status: "FAIL", Note: "bad json"}
				}
				return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("count=%d", resp.Count)}
			},
		},
		{
			Name: "HTTP: assistant rejects empty message",
			Run: func(ctx context.Context, r *Runner) Result {
				status, _, err := r.postJSON(ctx, base+"/api/assistant/message", map[string]any{"sessionId": "bench", "message": ""})
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusBadRequest {
					return Result{Status: "FAIL", Note: fmt.Sprintf("expected 400, got %d", status)}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Scenario: find then select",
			Run: func(ctx context.Context, r *Runner) Result {
				if os.Getenv("GEMINI_API_KEY") == "" {
					return Result{Status: "SKIP", Note: "GEMINI_API_KEY not set"}
				}
				session := fmt.Sprintf("bench-%d", time.Now().UnixNano())
				start := time.Now()

				reply, err := r.assistantTurn(ctx, base, session, "시청 근처 주차장 찾아줘")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if strings.TrimSpace(reply) == "" {
					return Result{Status: "FAIL", Note: "empty first reply"}
				}

				reply, err = r.assistantTurn(ctx, base, session, "1번으로 할게")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if strings.TrimSpace(reply) == "" {
					return Result{Status: "FAIL", Note: "empty selection reply"}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},
		{
			Name: "Perf: health under load",
			Run: func(ctx context.Context, r *Runner) Result {
				var total, failed int64
				deadline := time.Now().Add(r.cfg.Duration)

				var wg sync.WaitGroup
				for i := 0; i < r.cfg.Concurrency; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						for time.Now().Before(deadline) {
							status, _, err := r.get(ctx, base+"/health")
							atomic.AddInt64(&total, 1)
							if err != nil || status != http.StatusOK {
								atomic.AddInt64(&failed, 1)
							}
						}
					}()
				}
				wg.Wait()

				if total == 0 {
					return Result{Status: "FAIL", Note: "no requests completed"}
				}
				if failed > 0 {
					return Result{Status: "FAIL", Note: fmt.Sprintf("%d/%d failed", failed, total)}
				}
				rps := float64(total) / r.cfg.Duration.Seconds()
				return Result{Status: "PASS", Note: fmt.Sprintf("%.0f req/s", rps)}
			},
		},
	}
}

func (r *Runner) get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, nil
}

func (r *Runner) postJSON(ctx context.Context, url string, payload any) (int, []byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, nil
}

func (r *Runner) assistantTurn(ctx context.Context, base, session, message string) (string, error) {
	status, body, err := r.postJSON(ctx, base+"/api/assistant/message", map[string]any{
		"sessionId": session,
		"message":   message,
		"lat":       37.5665,
		"lng":       126.9780,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", status, body)
	}
	var turn struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &turn); err != nil {
		return "", err
	}
	return turn.Text, nil
}
