// seed inserts development sample data for local testing.
// Idempotent: skips inserts when the dev owner (owner@example.com) already
// exists. Seeds one organization with an owner and a member, each with the
// password "password123".
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"saas-auth-core/internal/config"
	credentialdomain "saas-auth-core/internal/credential/domain"
	credentialrepo "saas-auth-core/internal/credential/repository"
	"saas-auth-core/internal/db"
	memdomain "saas-auth-core/internal/membership/domain"
	membershiprepo "saas-auth-core/internal/membership/repository"
	orgdomain "saas-auth-core/internal/organization/domain"
	orgrepo "saas-auth-core/internal/organization/repository"
	"saas-auth-core/internal/security"
	userdomain "saas-auth-core/internal/user/domain"
	userrepo "saas-auth-core/internal/user/repository"
)

const (
	ownerEmail  = "owner@example.com"
	memberEmail = "member@example.com"
	devPassword = "password123"
	orgSlug     = "acme"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := userrepo.NewPostgresRepository(conn)
	creds := credentialrepo.NewPostgresRepository(conn)
	orgs := orgrepo.NewPostgresRepository(conn)
	memberships := membershiprepo.NewPostgresRepository(conn)
	hasher := security.NewHasher(uint32(cfg.ArgonTime), uint32(cfg.ArgonMemoryKiB), uint8(cfg.ArgonThreads))

	existing, err := users.GetByEmail(ctx, ownerEmail)
	if err != nil {
		log.Fatalf("seed: check existing: %v", err)
	}
	if existing != nil {
		log.Printf("seed: %s already exists, nothing to do", ownerEmail)
		return
	}

	now := time.Now().UTC()
	org := &orgdomain.Org{
		ID:        uuid.New().String(),
		Name:      "Acme Inc",
		Slug:      orgSlug,
		Status:    orgdomain.OrgStatusActive,
		CreatedAt: now,
	}
	if err := org.Validate(); err != nil {
		log.Fatalf("seed: org: %v", err)
	}
	if err := orgs.Create(ctx, org); err != nil {
		log.Fatalf("seed: create org: %v", err)
	}

	ownerID := seedUser(ctx, creds, hasher, "Dev Owner", ownerEmail)
	memberID := seedUser(ctx, creds, hasher, "Dev Member", memberEmail)

	seedMembership(ctx, memberships, ownerID, org.ID, memdomain.RoleOwner)
	seedMembership(ctx, memberships, memberID, org.ID, memdomain.RoleMember)

	log.Printf("seed: created org %q with %s (owner) and %s (member), password %q", orgSlug, ownerEmail, memberEmail, devPassword)
}

func seedUser(ctx context.Context, creds credentialrepo.Repository, hasher *security.Hasher, name, email string) string {
	hash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}
	now := time.Now().UTC()
	u := &userdomain.User{
		ID:            uuid.New().String(),
		Email:         email,
		Name:          name,
		EmailVerified: true,
		Status:        userdomain.UserStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	c := &credentialdomain.Credential{
		ID:           uuid.New().String(),
		UserID:       u.ID,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := creds.CreateUserWithCredential(ctx, u, c); err != nil {
		log.Fatalf("seed: create user %s: %v", email, err)
	}
	return u.ID
}

func seedMembership(ctx context.Context, memberships membershiprepo.Repository, userID, orgID string, role memdomain.Role) {
	m := &memdomain.Membership{
		ID:        uuid.New().String(),
		UserID:    userID,
		OrgID:     orgID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := memberships.Create(ctx, m); err != nil {
		log.Fatalf("seed: create membership %s/%s: %v", userID, orgID, err)
	}
}
