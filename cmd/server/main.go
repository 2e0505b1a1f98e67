package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"saas-auth-core/internal/audit"
	auditrepo "saas-auth-core/internal/audit/repository"
	"saas-auth-core/internal/auth"
	"saas-auth-core/internal/config"
	"saas-auth-core/internal/credential"
	credentialrepo "saas-auth-core/internal/credential/repository"
	"saas-auth-core/internal/db"
	"saas-auth-core/internal/events"
	"saas-auth-core/internal/membership"
	membershiprepo "saas-auth-core/internal/membership/repository"
	orgrepo "saas-auth-core/internal/organization/repository"
	"saas-auth-core/internal/policy/engine"
	"saas-auth-core/internal/security"
	"saas-auth-core/internal/server"
	"saas-auth-core/internal/session"
	sessionrepo "saas-auth-core/internal/session/repository"
	"saas-auth-core/internal/telemetry/otel"
	userrepo "saas-auth-core/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "saas-auth-core", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	creds := credentialrepo.NewPostgresRepository(conn)
	orgs := orgrepo.NewPostgresRepository(conn)
	memberships := membershiprepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	audits := auditrepo.NewPostgresRepository(conn)

	hasher := security.NewHasher(uint32(cfg.ArgonTime), uint32(cfg.ArgonMemoryKiB), uint8(cfg.ArgonThreads))
	store := credential.NewStore(users, creds, hasher, cfg.PasswordMinLength)
	resolver := membership.NewResolver(memberships)
	manager := session.NewManager(sessions, resolver, cfg.SessionMaxAgeDuration(), cfg.SessionRefreshFraction)
	verifier := security.NewVerificationProvider([]byte(cfg.VerifyTokenSecret), "saas-auth-core", cfg.VerifyTokenTTLDuration())
	auditor := audit.NewLogger(audits)

	policy, err := engine.New(ctx, "")
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	var producer events.Producer
	kafkaProducer, err := events.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuthEventsTopic)
	if err != nil {
		log.Fatalf("events: %v", err)
	}
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		producer = events.Fanout{kafkaProducer, events.NewOTelProducer(providers.LoggerProvider)}
	} else {
		producer = events.NewOTelProducer(providers.LoggerProvider)
	}

	authSvc := auth.NewService(store, manager, resolver, policy, users, orgs, verifier, auditor, producer, auth.Options{
		SignupEnabled:  cfg.SignupEnabled,
		StorageTimeout: cfg.DBTimeoutDuration(),
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	s := server.New(authSvc, auditor)

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gRPC server...")
	s.GracefulStop()
	log.Println("gRPC server stopped")
}
