package domain

import (
	"errors"
	"regexp"
	"time"
)

// Org represents an organization/tenant. Slug is the URL-safe unique handle.
type Org struct {
	ID        string
	Name      string
	Slug      string
	Status    OrgStatus
	CreatedAt time.Time
}

type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
)

// reservedSlugs are handles that collide with routing or admin surfaces and
// can never name an organization.
var reservedSlugs = map[string]bool{
	"new-organization": true,
	"admin":            true,
	"settings":         true,
	"api":              true,
	"auth":             true,
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.Slug == "" {
		return errors.New("slug is required")
	}
	if !slugPattern.MatchString(o.Slug) {
		return errors.New("slug must be lowercase letters, digits, and hyphens")
	}
	if reservedSlugs[o.Slug] {
		return errors.New("slug is reserved")
	}
	if o.Status == "" {
		o.Status = OrgStatusActive
	}
	return nil
}
