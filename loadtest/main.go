package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"adminconsole/client"
	"adminconsole/internal/session"
	"adminconsole/pkg/constraints"
	"adminconsole/pkg/logger"

	"go.uber.org/zap"
)

// Configuration
var (
	baseURL  = flag.String("url", "http://localhost:8080/api/v1", "Backend base URL")
	username = flag.String("user", "admin", "Sign-in username")
	password = flag.String("password", "admin123", "Sign-in password")
	path     = flag.String("path", constraints.EndpointMe, "Path every call requests")
	calls    = flag.Int("c", 200, "Concurrent calls per round")
	rounds   = flag.Int("rounds", 10, "Number of refresh storms")
	pause    = flag.Duration("pause", time.Second, "Pause between rounds")
)

// Metrics
var (
	succeeded    int64
	failed       int64
	latencySum   int64 // milliseconds
	latencyCount int64
)

// Each round swaps in a token the backend rejects and fires every call at
// once, so all of them hit 401 together. A healthy client answers each storm
// with exactly one refresh.
func main() {
	flag.Parse()
	logger.InitLogger("dev")
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := session.New(ctx, nil, nil)
	c := client.New(*baseURL, sess, client.WithTimeout(30*time.Second))

	token, err := c.SignIn(ctx, *username, *password)
	if err != nil {
		logger.Error("sign-in failed", zap.Error(err))
		os.Exit(1)
	}
	sess.Login(ctx, token)

	fmt.Printf("Starting refresh storm\n")
	fmt.Printf("   Target: %s%s\n", *baseURL, *path)
	fmt.Printf("   Calls/round: %d\n", *calls)
	fmt.Printf("   Rounds: %d\n", *rounds)

	var extraRefreshes int64
	for round := 1; round <= *rounds; round++ {
		sess.SetToken(ctx, fmt.Sprintf("stale-token-%d", round))
		before := sess.Refreshes()

		start := time.Now()
		storm(ctx, c)
		took := time.Since(start)

		refreshes := sess.Refreshes() - before
		if refreshes != 1 {
			extraRefreshes += refreshes - 1
		}

		ok := atomic.SwapInt64(&succeeded, 0)
		errs := atomic.SwapInt64(&failed, 0)
		latSum := atomic.SwapInt64(&latencySum, 0)
		latCnt := atomic.SwapInt64(&latencyCount, 0)
		avgLat := float64(0)
		if latCnt > 0 {
			avgLat = float64(latSum) / float64(latCnt)
		}

		fmt.Printf("[round %d] OK: %d | Errors: %d | Refreshes: %d | Avg Latency: %.2f ms | Took: %v\n",
			round, ok, errs, refreshes, avgLat, took.Round(time.Millisecond))

		if sess.Token() == "" {
			fmt.Println("session lost, stopping")
			os.Exit(1)
		}
		time.Sleep(*pause)
	}

	if extraRefreshes != 0 {
		fmt.Printf("refresh calls were not coalesced: %d unexpected refreshes\n", extraRefreshes)
		os.Exit(1)
	}
	fmt.Println("All storms were answered with a single refresh.")
}

func storm(ctx context.Context, c *client.Client) {
	var wg sync.WaitGroup
	startGate := make(chan struct{})
	for i := 0; i < *calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-startGate

			begin := time.Now()
			var out any
			if err := c.Get(ctx, *path, nil, &out); err != nil {
				if atomic.AddInt64(&failed, 1) == 1 {
					logger.Warn("call failed", zap.Error(err))
				}
				return
			}
			atomic.AddInt64(&succeeded, 1)
			atomic.AddInt64(&latencySum, time.Since(begin).Milliseconds())
			atomic.AddInt64(&latencyCount, 1)
		}()
	}
	close(startGate)
	wg.Wait()
}
