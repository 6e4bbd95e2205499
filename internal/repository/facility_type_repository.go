package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
)

var facilityTypeTable = Table[model.FacilityType]{
	Name:       "facility_types",
	PrimaryKey: "type_id",
	Columns:    []string{"type_id", "name", "description"},
	Scan: func(s Scanner) (model.FacilityType, error) {
		var t model.FacilityType
		err := s.Scan(&t.ID, &t.Name, &t.Description)
		return t, err
	},
}

// FacilityTypeRepo stores facility categories.
type FacilityTypeRepo struct {
	Base[model.FacilityType]
}

func NewFacilityTypeRepo(db *sql.DB) *FacilityTypeRepo {
	return &FacilityTypeRepo{Base: NewBase(db, facilityTypeTable)}
}

// ListOrdered returns every type sorted by name.
func (r *FacilityTypeRepo) ListOrdered(ctx context.Context) ([]model.FacilityType, error) {
	return r.FindWhere(ctx, nil, goqu.I("name").Asc())
}

// FindByName resolves a type by its case-insensitive name.
func (r *FacilityTypeRepo) FindByName(ctx context.Context, name string) (model.FacilityType, error) {
	return r.FindOneWhere(ctx, goqu.Ex{"name": strings.TrimSpace(name)})
}
