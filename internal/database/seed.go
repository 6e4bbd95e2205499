package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/iliyamo/campus-facility-reservation/internal/utils"
)

// SeedOptions controls the demo accounts created by Seed.
type SeedOptions struct {
	AdminPassword string
	UserPassword  string
	BcryptCost    int
}

// SeedResult reports the system tokens in effect after seeding.
type SeedResult struct {
	AdminRegToken  string
	ResetPassToken string
	Facilities     int
}

var seedTypes = [][2]string{
	{"Classroom", "Standard classroom for lectures"},
	{"Auditorium", "Large venue for events and seminars"},
	{"Meeting Room", "Room for meetings and discussions"},
	{"Sports Facility", "Fields and courts for sports activities"},
	{"Laboratory", "Computer or science lab"},
	{"Outdoor", "Outdoor areas and parks"},
	{"Other", "Other facilities not listed above"},
}

// building code;facility name;capacity
var seedFacilities = []string{
	"GKU;Ruang 101;40",
	"GKU;Ruang 102;40",
	"GKU;Ruang Rapat 3;15",
	"GKU;Lab Komputer 2;30",
	"GSG;Aula Utama;500",
	"GSG;Convention Hall;800",
	"GOR;Lapangan Basket;60",
	"GOR;Lapangan Futsal;40",
	"PERPUS;Ruang Diskusi 1;8",
	"PERPUS;Teras Baca;25",
}

var roomNumberRe = regexp.MustCompile(`\d+`)

// facilityTypeFor infers a facility type from its name.
func facilityTypeFor(name string) string {
	n := strings.ToLower(name)
	hasAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(n, w) {
				return true
			}
		}
		return false
	}
	switch {
	case hasAny("aula", "auditorium", "convention", "hall"):
		return "Auditorium"
	case hasAny("lapangan", "basket", "futsal", "volley", "tennis", "skate", "sport"):
		return "Sports Facility"
	case hasAny("lab", "komputer"):
		return "Laboratory"
	case hasAny("ruang", "rapat", "lounge"):
		return "Meeting Room"
	case hasAny("outdoor", "taman", "teras"):
		return "Outdoor"
	}
	return "Classroom"
}

// Seed inserts demo catalogue data, two accounts and the system tokens.
// Existing rows are left untouched so it can be re-run safely.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) (SeedResult, error) {
	var res SeedResult
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	for key, prefix := range map[string]string{"ADMIN_REG_TOKEN": "ADM-SECRET-TOKEN-", "RESET_PASS_TOKEN": "RST-SECRET-TOKEN-"} {
		tok, err := randomToken(prefix)
		if err != nil {
			return res, err
		}
		if _, err := tx.ExecContext(ctx, "INSERT IGNORE INTO system_tokens (`key`, `value`) VALUES (?, ?)", key, tok); err != nil {
			return res, fmt.Errorf("seed token %s: %w", key, err)
		}
	}

	for _, t := range seedTypes {
		if _, err := tx.ExecContext(ctx, `INSERT IGNORE INTO facility_types (name, description) VALUES (?, ?)`, t[0], t[1]); err != nil {
			return res, fmt.Errorf("seed facility type %s: %w", t[0], err)
		}
	}

	for _, u := range []struct{ name, username, password, role string }{
		{"Admin User", "admin", opts.AdminPassword, "admin"},
		{"John Doe", "john_user", opts.UserPassword, "user"},
	} {
		hash, err := utils.HashPassword(u.password, opts.BcryptCost)
		if err != nil {
			return res, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT IGNORE INTO users (full_name, username, password_hash, role) VALUES (?, ?, ?, ?)`,
			u.name, u.username, hash, u.role); err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.username, err)
		}
	}

	for _, line := range seedFacilities {
		parts := strings.Split(line, ";")
		if len(parts) != 3 {
			continue
		}
		code, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		capacity, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT IGNORE INTO buildings (name, code) VALUES (?, ?)`, strings.ReplaceAll(code, "_", " "), code); err != nil {
			return res, fmt.Errorf("seed building %s: %w", code, err)
		}
		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM facilities f JOIN buildings b ON b.building_id = f.building_id WHERE f.name = ? AND b.code = ?`,
			name, code).Scan(&exists)
		if err != nil {
			return res, err
		}
		if exists > 0 {
			continue
		}
		var room *string
		if m := roomNumberRe.FindString(name); m != "" {
			room = &m
		}
		photo := fmt.Sprintf("/images/rooms/%s/%s.jpg", code, strings.ReplaceAll(name, " ", "_"))
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO facilities (name, type_id, building_id, room_number, capacity, layout_description, photo_url, description)
			VALUES (?, (SELECT type_id FROM facility_types WHERE name = ?), (SELECT building_id FROM buildings WHERE code = ?), ?, ?, ?, ?, ?)`,
			name, facilityTypeFor(name), code, room, capacity,
			"Layout for "+name, photo, "Facility available for booking."); err != nil {
			return res, fmt.Errorf("seed facility %s: %w", name, err)
		}
		res.Facilities++
	}

	if err := tx.QueryRowContext(ctx, "SELECT `value` FROM system_tokens WHERE `key` = 'ADMIN_REG_TOKEN'").Scan(&res.AdminRegToken); err != nil {
		return res, err
	}
	if err := tx.QueryRowContext(ctx, "SELECT `value` FROM system_tokens WHERE `key` = 'RESET_PASS_TOKEN'").Scan(&res.ResetPassToken); err != nil {
		return res, err
	}
	return res, tx.Commit()
}

func randomToken(prefix string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}
