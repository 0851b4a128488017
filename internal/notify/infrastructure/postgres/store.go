package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/notify/application"
	"storefront/internal/notify/domain"
)

type FlagStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewFlagStore(log *slog.Logger, pool *pgxpool.Pool) *FlagStore {
	return &FlagStore{log: log, pool: pool}
}

func (s *FlagStore) Flag(ctx context.Context, name string) (domain.FeatureFlag, error) {
	var f domain.FeatureFlag
	err := s.pool.QueryRow(ctx, `
		SELECT name, enabled, target_group, recipients
		FROM feature_flags WHERE name = $1
	`, name).Scan(&f.Name, &f.Enabled, &f.TargetGroup, &f.Recipients)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FeatureFlag{}, application.ErrFlagNotFound
	}
	if err != nil {
		return domain.FeatureFlag{}, err
	}
	return f, nil
}

type GroupLookup struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewGroupLookup(log *slog.Logger, pool *pgxpool.Pool) *GroupLookup {
	return &GroupLookup{log: log, pool: pool}
}

func (g *GroupLookup) IsMember(ctx context.Context, userID uuid.UUID, group string) (bool, error) {
	var member bool
	err := g.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_groups WHERE user_id = $1 AND group_name = $2)
	`, userID, group).Scan(&member)
	if err != nil {
		return false, err
	}
	return member, nil
}
