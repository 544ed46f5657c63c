package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the TrackTruck store (SQLite).
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
    resource_type   TEXT NOT NULL,
    resource_id     TEXT NOT NULL,
    interval_km     INTEGER,
    interval_days   INTEGER,
    last_run        TEXT,
    description     TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_tracktruck_rules_type ON tracktruck_maintenance_rules (resource_type);
CREATE INDEX IF NOT EXISTS idx_tracktruck_rules_resource ON tracktruck_maintenance_rules (resource_type, resource_id);
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
    delivered       INTEGER NOT NULL DEFAULT 0,
    fired_at        TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_tracktruck_alerts_rule ON tracktruck_alerts (rule_id, fired_at);
CREATE INDEX IF NOT EXISTS idx_tracktruck_alerts_fired ON tracktruck_alerts (fired_at);
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
