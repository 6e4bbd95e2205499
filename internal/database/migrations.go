package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

// Migration is one named, ordered schema step. MySQL commits DDL
// implicitly, so statements run one by one and the step is recorded in
// schema_migrations only after all of them succeed. A statement whose
// column, index or constraint already exists counts as applied, so a step
// interrupted halfway can be re-run.
type Migration struct {
	Name       string
	Statements []string
}

// MigrationStatus reports whether a step has been applied.
type MigrationStatus struct {
	Name      string
	AppliedAt *time.Time
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name       VARCHAR(191) NOT NULL PRIMARY KEY,
	applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Migrations lists every schema step in application order.
var Migrations = []Migration{
	{Name: "001_schema", Statements: []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id             BIGINT AUTO_INCREMENT PRIMARY KEY,
			username            VARCHAR(50)  NOT NULL UNIQUE,
			email               VARCHAR(255) NULL UNIQUE,
			password_hash       VARCHAR(255) NOT NULL,
			full_name           VARCHAR(100) NOT NULL,
			role                ENUM('user','admin','admin_verificator') NOT NULL DEFAULT 'user',
			department          VARCHAR(100) NULL,
			profile_picture_url VARCHAR(500) NULL,
			created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at       DATETIME NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		"CREATE TABLE IF NOT EXISTS system_tokens (\n" +
			"	`key`      VARCHAR(64)  NOT NULL PRIMARY KEY,\n" +
			"	`value`    VARCHAR(255) NOT NULL,\n" +
			"	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP\n" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		`CREATE TABLE IF NOT EXISTS buildings (
			building_id          BIGINT AUTO_INCREMENT PRIMARY KEY,
			name                 VARCHAR(100) NOT NULL UNIQUE,
			code                 VARCHAR(20)  NULL UNIQUE,
			location_description TEXT NULL,
			image_url            VARCHAR(500) NULL,
			created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS facility_types (
			type_id     BIGINT AUTO_INCREMENT PRIMARY KEY,
			name        VARCHAR(50) NOT NULL UNIQUE,
			description TEXT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS facilities (
			facility_id        BIGINT AUTO_INCREMENT PRIMARY KEY,
			type_id            BIGINT NULL,
			building_id        BIGINT NULL,
			name               VARCHAR(100) NOT NULL,
			room_number        VARCHAR(20)  NULL,
			capacity           INT NULL,
			floor              INT NULL,
			description        TEXT NULL,
			layout_description TEXT NULL,
			photo_url          VARCHAR(500) NULL,
			is_active          BOOLEAN NOT NULL DEFAULT TRUE,
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			CONSTRAINT fk_facilities_type FOREIGN KEY (type_id) REFERENCES facility_types(type_id) ON DELETE SET NULL,
			CONSTRAINT fk_facilities_building FOREIGN KEY (building_id) REFERENCES buildings(building_id) ON DELETE SET NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS reservations (
			reservation_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			requester_id   BIGINT NOT NULL,
			facility_id    BIGINT NOT NULL,
			status         VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			purpose        TEXT NOT NULL,
			attendees      INT NOT NULL DEFAULT 1,
			start_at       DATETIME NOT NULL,
			end_at         DATETIME NOT NULL,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_reservations_slot (facility_id, start_at, end_at),
			KEY idx_reservations_requester (requester_id),
			CONSTRAINT fk_reservations_user FOREIGN KEY (requester_id) REFERENCES users(user_id) ON DELETE CASCADE,
			CONSTRAINT fk_reservations_facility FOREIGN KEY (facility_id) REFERENCES facilities(facility_id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		"CREATE TABLE IF NOT EXISTS approval_logs (\n" +
			"	log_id         BIGINT AUTO_INCREMENT PRIMARY KEY,\n" +
			"	reservation_id BIGINT NOT NULL,\n" +
			"	acted_by       BIGINT NULL,\n" +
			"	`action`       VARCHAR(20) NOT NULL,\n" +
			"	`comment`      TEXT NULL,\n" +
			"	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,\n" +
			"	CONSTRAINT fk_logs_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(reservation_id) ON DELETE CASCADE,\n" +
			"	CONSTRAINT fk_logs_user FOREIGN KEY (acted_by) REFERENCES users(user_id) ON DELETE SET NULL\n" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		`CREATE TABLE IF NOT EXISTS ratings (
			rating_id      BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id        BIGINT NOT NULL,
			facility_id    BIGINT NOT NULL,
			reservation_id BIGINT NOT NULL,
			rating         TINYINT NOT NULL,
			review         TEXT NULL,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_ratings_user_reservation (user_id, reservation_id),
			CONSTRAINT chk_ratings_range CHECK (rating BETWEEN 1 AND 5),
			CONSTRAINT fk_ratings_user FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE,
			CONSTRAINT fk_ratings_facility FOREIGN KEY (facility_id) REFERENCES facilities(facility_id) ON DELETE CASCADE,
			CONSTRAINT fk_ratings_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(reservation_id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS notifications (
			notification_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id         BIGINT NOT NULL,
			reservation_id  BIGINT NULL,
			title           VARCHAR(200) NOT NULL,
			message         TEXT NOT NULL,
			is_read         BOOLEAN NOT NULL DEFAULT FALSE,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_notifications_user (user_id, is_read),
			CONSTRAINT fk_notifications_user FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE,
			CONSTRAINT fk_notifications_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(reservation_id) ON DELETE SET NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}},
	{Name: "002_add_proposal_url", Statements: []string{
		`ALTER TABLE reservations ADD COLUMN proposal_url VARCHAR(500) NULL AFTER attendees`,
	}},
	{Name: "003_add_suspend_maintenance", Statements: []string{
		`ALTER TABLE users ADD COLUMN is_suspended BOOLEAN NOT NULL DEFAULT FALSE AFTER profile_picture_url`,
		`ALTER TABLE facilities ADD COLUMN maintenance_until DATETIME NULL AFTER is_active`,
		`ALTER TABLE facilities ADD COLUMN maintenance_reason TEXT NULL AFTER maintenance_until`,
	}},
	{Name: "004_add_other_facility_type", Statements: []string{
		`INSERT IGNORE INTO facility_types (name, description) VALUES ('Other', 'Other facilities not listed above')`,
	}},
	{Name: "005_reservation_status_check", Statements: []string{
		`ALTER TABLE reservations ADD CONSTRAINT chk_reservations_status
			CHECK (status IN ('PENDING','APPROVED','REJECTED','CANCELED','ONGOING','COMPLETED'))`,
		`ALTER TABLE reservations ADD CONSTRAINT chk_reservations_window CHECK (end_at > start_at)`,
	}},
}

// Migrate applies every pending step of Migrations and returns the names
// it applied. Re-running after success is a no-op.
func Migrate(ctx context.Context, db *sql.DB, log zerolog.Logger) ([]string, error) {
	return apply(ctx, db, Migrations, log)
}

func apply(ctx context.Context, db *sql.DB, steps []Migration, log zerolog.Logger) ([]string, error) {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	done, err := appliedSet(ctx, db)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, m := range steps {
		if _, ok := done[m.Name]; ok {
			continue
		}
		log.Info().Str("migration", m.Name).Msg("applying migration")
		for i, stmt := range m.Statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				if alreadyApplied(err) {
					log.Warn().Err(err).Str("migration", m.Name).Int("statement", i+1).Msg("statement already applied")
					continue
				}
				return applied, fmt.Errorf("migration %s statement %d: %w", m.Name, i+1, err)
			}
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES (?)`, m.Name); err != nil {
			return applied, fmt.Errorf("record migration %s: %w", m.Name, err)
		}
		applied = append(applied, m.Name)
	}
	return applied, nil
}

// MySQL errors raised by DDL that has already taken effect.
const (
	errDupFieldName       = 1060
	errDupKeyName         = 1061
	errDupForeignKey      = 1826
	errDupCheckConstraint = 3822
)

func alreadyApplied(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	switch me.Number {
	case errDupFieldName, errDupKeyName, errDupForeignKey, errDupCheckConstraint:
		return true
	}
	return false
}

// Status lists every known step with its applied time, if any.
func Status(ctx context.Context, db *sql.DB) ([]MigrationStatus, error) {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	done, err := appliedSet(ctx, db)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(Migrations))
	for _, m := range Migrations {
		st := MigrationStatus{Name: m.Name}
		if at, ok := done[m.Name]; ok {
			t := at
			st.AppliedAt = &t
		}
		out = append(out, st)
	}
	return out, nil
}

func appliedSet(ctx context.Context, db *sql.DB) (map[string]time.Time, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()
	done := map[string]time.Time{}
	for rows.Next() {
		var name string
		var at time.Time
		if err := rows.Scan(&name, &at); err != nil {
			return nil, err
		}
		done[name] = at
	}
	return done, rows.Err()
}
