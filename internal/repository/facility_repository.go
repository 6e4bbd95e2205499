package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/utils"
)

var facilityColumns = []string{
	"facility_id", "type_id", "building_id", "name", "room_number", "capacity", "floor",
	"description", "layout_description", "photo_url", "is_active", "maintenance_until",
	"maintenance_reason", "created_at", "updated_at",
}

func scanFacilityFields(f *model.Facility) []any {
	return []any{
		&f.ID, &f.TypeID, &f.BuildingID, &f.Name, &f.RoomNumber, &f.Capacity, &f.Floor,
		&f.Description, &f.LayoutDescription, &f.PhotoURL, &f.IsActive, &f.MaintenanceUntil,
		&f.MaintenanceReason, &f.CreatedAt, &f.UpdatedAt,
	}
}

var facilityTable = Table[model.Facility]{
	Name:       "facilities",
	PrimaryKey: "facility_id",
	Columns:    facilityColumns,
	Scan: func(s Scanner) (model.Facility, error) {
		var f model.Facility
		err := s.Scan(scanFacilityFields(&f)...)
		return f, err
	},
}

// detail rows carry the joined type and building names after the base
// columns.
func scanFacilityDetail(s Scanner) (model.Facility, error) {
	var f model.Facility
	dest := append(scanFacilityFields(&f), &f.TypeName, &f.BuildingName, &f.BuildingCode)
	if err := s.Scan(dest...); err != nil {
		return f, err
	}
	f.Slug = utils.Slugify(f.Name)
	return f, nil
}

// FacilityFilter narrows FindWithDetails.
type FacilityFilter struct {
	Building        string  // exact building name
	Type            string  // exact type name
	MinCapacity     int     // capacity >= MinCapacity when > 0
	Search          string  // substring of facility, building or layout text
	IncludeInactive bool    // admins may list inactive/maintenance facilities
	ExcludeIDs      []int64 // facilities busy in the requested window
}

// FacilityRepo stores reservable facilities.
type FacilityRepo struct {
	Base[model.Facility]
}

func NewFacilityRepo(db *sql.DB) *FacilityRepo {
	return &FacilityRepo{Base: NewBase(db, facilityTable)}
}

func detailDataset() *goqu.SelectDataset {
	cols := make([]any, 0, len(facilityColumns)+3)
	for _, c := range facilityColumns {
		cols = append(cols, goqu.I("f."+c))
	}
	cols = append(cols,
		goqu.I("ft.name").As("type_name"),
		goqu.I("b.name").As("building_name"),
		goqu.I("b.code").As("building_code"),
	)
	return dialect.From(goqu.T("facilities").As("f")).
		LeftJoin(goqu.T("facility_types").As("ft"), goqu.On(goqu.I("f.type_id").Eq(goqu.I("ft.type_id")))).
		LeftJoin(goqu.T("buildings").As("b"), goqu.On(goqu.I("f.building_id").Eq(goqu.I("b.building_id")))).
		Select(cols...)
}

// FindWithDetails lists facilities with their type and building names.
// Unless IncludeInactive is set, inactive facilities and those under
// maintenance at now are hidden.
func (r *FacilityRepo) FindWithDetails(ctx context.Context, f FacilityFilter, now time.Time) ([]model.Facility, error) {
	var conds []exp.Expression
	if !f.IncludeInactive {
		conds = append(conds,
			goqu.I("f.is_active").IsTrue(),
			goqu.Or(goqu.I("f.maintenance_until").IsNull(), goqu.I("f.maintenance_until").Lte(now.UTC())),
		)
	}
	if f.Building != "" {
		conds = append(conds, goqu.I("b.name").Eq(f.Building))
	}
	if f.Type != "" {
		conds = append(conds, goqu.I("ft.name").Eq(f.Type))
	}
	if f.MinCapacity > 0 {
		conds = append(conds, goqu.I("f.capacity").Gte(f.MinCapacity))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		conds = append(conds, goqu.Or(
			goqu.I("f.name").Like(like),
			goqu.I("b.name").Like(like),
			goqu.I("f.layout_description").Like(like),
		))
	}
	if len(f.ExcludeIDs) > 0 {
		ids := make([]any, len(f.ExcludeIDs))
		for i, id := range f.ExcludeIDs {
			ids[i] = id
		}
		conds = append(conds, goqu.I("f.facility_id").NotIn(ids...))
	}

	ds := detailDataset()
	if len(conds) > 0 {
		ds = ds.Where(conds...)
	}
	q, args, err := ds.Order(goqu.I("f.name").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows, scanFacilityDetail)
}

// FindDetailByID returns one facility with joined names.
func (r *FacilityRepo) FindDetailByID(ctx context.Context, id int64) (model.Facility, error) {
	q, args, err := detailDataset().Where(goqu.I("f.facility_id").Eq(id)).Limit(1).Prepared(true).ToSQL()
	if err != nil {
		return model.Facility{}, err
	}
	return r.detailOne(ctx, q, args...)
}

// FindBySlug resolves a facility from a numeric id or a URL slug of its
// name (optionally suffixed with the building code). Inactive facilities
// are only returned when includeInactive is set; facilities under
// maintenance are always visible here.
func (r *FacilityRepo) FindBySlug(ctx context.Context, slug string, includeInactive bool) (model.Facility, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if id, err := strconv.ParseInt(slug, 10, 64); err == nil {
		f, err := r.FindDetailByID(ctx, id)
		if err == nil && (includeInactive || f.IsActive) {
			return f, nil
		}
		if err != nil && !isNotFound(err) {
			return model.Facility{}, err
		}
	}

	slugExpr := func(col string) exp.LiteralExpression {
		return goqu.L(fmt.Sprintf("LOWER(TRIM(BOTH '-' FROM REGEXP_REPLACE(%s, '[^a-zA-Z0-9]+', '-')))", col))
	}
	ds := detailDataset().Where(goqu.Or(
		slugExpr("`f`.`name`").Eq(slug),
		slugExpr("CONCAT(`f`.`name`, '-', COALESCE(`b`.`code`, ''))").Eq(slug),
	))
	if !includeInactive {
		ds = ds.Where(goqu.I("f.is_active").IsTrue())
	}
	q, args, err := ds.Limit(1).Prepared(true).ToSQL()
	if err != nil {
		return model.Facility{}, err
	}
	return r.detailOne(ctx, q, args...)
}

// FindConflictingFacilityIDs returns the facilities holding a PENDING or
// APPROVED reservation that overlaps [start, end).
func (r *FacilityRepo) FindConflictingFacilityIDs(ctx context.Context, start, end time.Time) ([]int64, error) {
	const q = `SELECT DISTINCT facility_id FROM reservations
		WHERE status IN (?, ?) AND start_at < ? AND end_at > ?`
	rows, err := r.db.QueryContext(ctx, q, model.StatusPending, model.StatusApproved, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Active counts active facilities.
func (r *FacilityRepo) Active(ctx context.Context) (int, error) {
	return r.Count(ctx, goqu.Ex{"is_active": true})
}

func (r *FacilityRepo) detailOne(ctx context.Context, q string, args ...any) (model.Facility, error) {
	f, err := scanFacilityDetail(r.db.QueryRowContext(ctx, q, args...))
	if err == sql.ErrNoRows {
		return model.Facility{}, fmt.Errorf("facilities: %w", ErrNotFound)
	}
	return f, err
}
