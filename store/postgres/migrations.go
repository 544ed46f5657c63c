package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the TrackTruck store (PostgreSQL).
var Migrations = migrate.NewGroup("tracktruck")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_maintenance_rules",
			Version: "20240601000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tracktruck_maintenance_rules (
    id              TEXT PRIMARY KEY,
    resource_type   TEXT NOT NULL CHECK (resource_type IN ('truck', 'trailer', 'tire')),
    resource_id     TEXT NOT NULL,
    interval_km     INTEGER CHECK (interval_km >= 0),
    interval_days   INTEGER CHECK (interval_days >= 0),
    last_run        TIMESTAMPTZ,
    description     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tracktruck_rules_type ON tracktruck_maintenance_rules (resource_type);
CREATE INDEX IF NOT EXISTS idx_tracktruck_rules_resource ON tracktruck_maintenance_rules (resource_type, resource_id);
CREATE INDEX IF NOT EXISTS idx_tracktruck_rules_created ON tracktruck_maintenance_rules (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tracktruck_maintenance_rules`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_alerts",
			Version: "20240601000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tracktruck_alerts (
    id              TEXT PRIMARY KEY,
    rule_id         TEXT NOT NULL,
    resource_type   TEXT NOT NULL,
    resource_id     TEXT NOT NULL,
    trigger_kind    TEXT NOT NULL,
    message         TEXT NOT NULL,
    delivered       BOOLEAN NOT NULL DEFAULT FALSE,
    fired_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tracktruck_alerts_rule ON tracktruck_alerts (rule_id, fired_at DESC);
CREATE INDEX IF NOT EXISTS idx_tracktruck_alerts_resource ON tracktruck_alerts (resource_type, resource_id);
CREATE INDEX IF NOT EXISTS idx_tracktruck_alerts_fired ON tracktruck_alerts (fired_at DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tracktruck_alerts`)
				return err
			},
		},
	)
}
