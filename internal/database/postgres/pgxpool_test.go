package postgres

import (
	"errors"
	"fmt"
	"testing"

	"funnel/internal/config"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDSN(t *testing.T) {
	got := DSN(config.DatabaseConfig{
		DBHost:     "db",
		DBPort:     "5432",
		DBName:     "funnel",
		DBUser:     "app",
		DBPassword: "p@ss word",
		DBSSLMode:  "disable",
	})
	want := "postgres://app:p%40ss%20word@db:5432/funnel?application_name=funnel&sslmode=disable"
	if got != want {
		t.Fatalf("DSN mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("upsert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "vc_profile_slug_key"})

	if !IsUniqueViolation(err, "vc_profile_slug_key") {
		t.Fatalf("expected slug violation to match")
	}
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected empty constraint to match any unique violation")
	}
	if IsUniqueViolation(err, "users_email_key") {
		t.Fatalf("expected other constraint not to match")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatalf("plain error is not a unique violation")
	}
}
