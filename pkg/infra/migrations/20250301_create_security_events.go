package migrations

import (
	"github.com/NeuralTrust/FormGate/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20250301_create_security_events",
		Name: "Create security_events table",

		Up: func(db *gorm.DB) error {
			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS security_events (
					id          UUID PRIMARY KEY,
					type        VARCHAR(32) NOT NULL,
					severity    VARCHAR(16) NOT NULL,
					timestamp   TIMESTAMPTZ NOT NULL,
					ip          TEXT,
					user_id     TEXT,
					path        TEXT,
					user_agent  TEXT,
					device      VARCHAR(32),
					browser     VARCHAR(64),
					os          VARCHAR(64),
					details     JSONB
				);
			`).Error; err != nil {
				return err
			}
			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_security_events_type_timestamp
				ON security_events (type, timestamp DESC);
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS security_events;`).Error
		},
	})
}
