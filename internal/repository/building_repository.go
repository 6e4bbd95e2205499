package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
)

var buildingTable = Table[model.Building]{
	Name:       "buildings",
	PrimaryKey: "building_id",
	Columns:    []string{"building_id", "name", "code", "location_description", "image_url", "created_at", "updated_at"},
	Scan: func(s Scanner) (model.Building, error) {
		var b model.Building
		err := s.Scan(&b.ID, &b.Name, &b.Code, &b.LocationDescription, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt)
		return b, err
	},
}

// BuildingRepo stores campus buildings.
type BuildingRepo struct {
	Base[model.Building]
}

func NewBuildingRepo(db *sql.DB) *BuildingRepo {
	return &BuildingRepo{Base: NewBase(db, buildingTable)}
}

// ListOrdered returns every building sorted by name.
func (r *BuildingRepo) ListOrdered(ctx context.Context) ([]model.Building, error) {
	return r.FindWhere(ctx, nil, goqu.I("name").Asc())
}

// FindByNameOrCode resolves a building from either its display name or its
// code, case-insensitively.
func (r *BuildingRepo) FindByNameOrCode(ctx context.Context, v string) (model.Building, error) {
	v = strings.TrimSpace(v)
	q, args, err := dialect.From(buildingTable.Name).
		Select(buildingTable.selectCols()...).
		Where(goqu.Or(
			goqu.Func("LOWER", goqu.I("name")).Eq(strings.ToLower(v)),
			goqu.Func("LOWER", goqu.I("code")).Eq(strings.ToLower(v)),
		)).
		Limit(1).
		Prepared(true).ToSQL()
	if err != nil {
		return model.Building{}, err
	}
	return r.queryOne(ctx, q, args...)
}
