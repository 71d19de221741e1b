package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/woowonjae/blogauth/internal/auth/store"
	"github.com/woowonjae/blogauth/pkg/cryptox"
	"github.com/woowonjae/blogauth/pkg/slogx"
)

// PasswordMigrationService re-encodes every legacy plaintext credential
// still present in the store. The pass is idempotent: already-hashed rows
// carry the format marker and are skipped, so a second run writes nothing.
type PasswordMigrationService struct {
	Store store.Store
}

// MigrationReport summarizes one batch pass.
type MigrationReport struct {
	Scanned  int `json:"scanned"`
	Migrated int `json:"migrated"`
	Failed   int `json:"failed"`
}

// MigratePasswords walks all user rows and hashes any credential that does
// not carry the secure-format marker. A single row's failure is logged and
// counted, not fatal to the rest of the batch. Each row is written
// individually so a migration racing a login's lazy rehash touches at most
// one whole value, never a torn one.
func (s *PasswordMigrationService) MigratePasswords(ctx context.Context) (MigrationReport, error) {
	log := slogx.FromContext(ctx)

	users, err := s.Store.Users().ListAll(ctx)
	if err != nil {
		return MigrationReport{}, fmt.Errorf("list users: %w", err)
	}

	report := MigrationReport{Scanned: len(users)}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if cryptox.IsHashed(u.Password) {
			continue
		}

		hash, err := cryptox.HashPassword(u.Password)
		if err != nil {
			log.Error("failed to encode credential",
				slog.Int64("user_id", u.ID),
				slog.Any("error", err),
			)
			report.Failed++
			continue
		}

		if err := s.Store.Users().UpdatePassword(ctx, u.ID, hash); err != nil {
			log.Error("failed to persist migrated credential",
				slog.Int64("user_id", u.ID),
				slog.Any("error", err),
			)
			report.Failed++
			continue
		}

		report.Migrated++
	}

	log.Info("credential migration pass finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("migrated", report.Migrated),
		slog.Int("failed", report.Failed),
	)

	return report, nil
}
