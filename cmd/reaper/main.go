// reaper periodically purges long-expired sessions. Hygiene only: sessions
// are denied at validation time regardless; this just keeps the table small.
// Set DATABASE_URL and optionally REAPER_INTERVAL. GRPC_ADDR is required by
// config but unused (e.g. set to :0).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saas-auth-core/internal/config"
	"saas-auth-core/internal/db"
	"saas-auth-core/internal/session"
	sessionrepo "saas-auth-core/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("reaper: DATABASE_URL is required")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("reaper: db: %v", err)
	}
	defer conn.Close()

	sessions := session.NewManager(
		sessionrepo.NewPostgresRepository(conn),
		nil, // org switching not used here
		cfg.SessionMaxAgeDuration(),
		cfg.SessionRefreshFraction,
	)

	interval := cfg.ReaperIntervalDuration()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("reaper: shutting down...")
		cancel()
	}()

	log.Printf("reaper: purging sessions expired for more than %s, every %s", interval, interval)
	reap(ctx, sessions, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("reaper: stopped")
			return
		case <-ticker.C:
			reap(ctx, sessions, interval)
		}
	}
}

func reap(ctx context.Context, sessions *session.Manager, grace time.Duration) {
	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	// Rows stay around one extra interval so operators can inspect recent
	// denials before they disappear.
	cutoff := time.Now().UTC().Add(-grace)
	n, err := sessions.Reap(runCtx, cutoff)
	if err != nil {
		log.Printf("reaper: %v", err)
		return
	}
	if n > 0 {
		log.Printf("reaper: purged %d sessions", n)
	}
}
