package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/middleware"
	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
	"github.com/iliyamo/campus-facility-reservation/internal/validation"
)

// FacilityHandler serves the facility catalogue.
type FacilityHandler struct {
	Facilities *repository.FacilityRepo
	Types      *repository.FacilityTypeRepo
	Buildings  *repository.BuildingRepo
	Loc        *time.Location
	Now        func() time.Time
}

func NewFacilityHandler(f *repository.FacilityRepo, t *repository.FacilityTypeRepo, b *repository.BuildingRepo, loc *time.Location) *FacilityHandler {
	if f == nil || t == nil || b == nil {
		panic("nil repository passed to NewFacilityHandler")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &FacilityHandler{Facilities: f, Types: t, Buildings: b, Loc: loc, Now: time.Now}
}

type facilityQuery struct {
	Building        string `query:"building"`
	Type            string `query:"type"`
	Capacity        string `query:"capacity" validate:"omitempty,number"`
	Search          string `query:"search"`
	Date            string `query:"date" validate:"omitempty,ymd"`
	StartTime       string `query:"startTime" validate:"omitempty,hhmm"`
	EndTime         string `query:"endTime" validate:"omitempty,hhmm"`
	IncludeInactive bool   `query:"includeInactive"`
}

// List filters facilities. When a date and time window is given the
// facilities already booked in that window are left out.
func (h *FacilityHandler) List(c echo.Context) error {
	var q facilityQuery
	if err := validation.Bind(c, &q); err != nil {
		return err
	}
	f := repository.FacilityFilter{
		Building:        strings.TrimSpace(q.Building),
		Type:            strings.TrimSpace(q.Type),
		Search:          q.Search,
		IncludeInactive: q.IncludeInactive && model.IsAdmin(middleware.Role(c)),
	}
	if q.Capacity != "" {
		n, err := strconv.Atoi(q.Capacity)
		if err != nil {
			return validation.Fieldf("capacity", "must be a whole number")
		}
		f.MinCapacity = n
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	given := 0
	for _, v := range []string{q.Date, q.StartTime, q.EndTime} {
		if v != "" {
			given++
		}
	}
	switch given {
	case 0:
	case 3:
		start, end, err := parseSlot(q.Date, q.StartTime, q.EndTime, h.Loc)
		if err != nil {
			return err
		}
		busy, err := h.Facilities.FindConflictingFacilityIDs(ctx, start, end)
		if err != nil {
			return err
		}
		f.ExcludeIDs = busy
	default:
		return validation.Fieldf("date", "date, startTime and endTime must be provided together")
	}

	list, err := h.Facilities.FindWithDetails(ctx, f, h.Now())
	if err != nil {
		return err
	}
	return response.OK(c, list)
}

// Get resolves a facility by numeric id or slug.
func (h *FacilityHandler) Get(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return apperror.BadRequest("Invalid facility")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Facilities.FindBySlug(ctx, slug, model.IsAdmin(middleware.Role(c)))
	if err != nil {
		return notFound(err, "Facility not found")
	}
	return response.OK(c, f)
}

type facilityReq struct {
	Name              *string `json:"name" validate:"required,min=2,max=150"`
	Type              *string `json:"type" validate:"required"`
	Building          *string `json:"building" validate:"required"`
	RoomNumber        *string `json:"roomNumber" validate:"omitempty,max=50"`
	Capacity          *int    `json:"capacity" validate:"required,gt=0"`
	Floor             *int    `json:"floor"`
	Description       *string `json:"description"`
	LayoutDescription *string `json:"layout_description"`
	ImageURL          *string `json:"imageUrl"`
	IsActive          *bool   `json:"is_active"`
	MaintenanceUntil  *string `json:"maintenance_until"`
	MaintenanceReason *string `json:"maintenance_reason"`
}

type facilityPatch struct {
	Name              *string `json:"name" validate:"omitempty,min=2,max=150"`
	Type              *string `json:"type"`
	Building          *string `json:"building"`
	RoomNumber        *string `json:"roomNumber" validate:"omitempty,max=50"`
	Capacity          *int    `json:"capacity" validate:"omitempty,gt=0"`
	Floor             *int    `json:"floor"`
	Description       *string `json:"description"`
	LayoutDescription *string `json:"layout_description"`
	ImageURL          *string `json:"imageUrl"`
	IsActive          *bool   `json:"is_active"`
	MaintenanceUntil  *string `json:"maintenance_until"`
	MaintenanceReason *string `json:"maintenance_reason"`
}

// record resolves type and building references and builds the column set.
func (h *FacilityHandler) record(ctx context.Context, p facilityPatch) (goqu.Record, error) {
	rec := goqu.Record{}
	if p.Name != nil {
		rec["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		id, err := h.resolveType(ctx, *p.Type)
		if err != nil {
			return nil, err
		}
		rec["type_id"] = id
	}
	if p.Building != nil {
		id, err := h.resolveBuilding(ctx, *p.Building)
		if err != nil {
			return nil, err
		}
		rec["building_id"] = id
	}
	if p.RoomNumber != nil {
		rec["room_number"] = strPtr(*p.RoomNumber)
	}
	if p.Capacity != nil {
		rec["capacity"] = *p.Capacity
	}
	if p.Floor != nil {
		rec["floor"] = *p.Floor
	}
	if p.Description != nil {
		rec["description"] = strPtr(*p.Description)
	}
	if p.LayoutDescription != nil {
		rec["layout_description"] = strPtr(*p.LayoutDescription)
	}
	if p.ImageURL != nil {
		rec["photo_url"] = strPtr(*p.ImageURL)
	}
	if p.IsActive != nil {
		rec["is_active"] = *p.IsActive
	}
	if p.MaintenanceUntil != nil {
		if v := strings.TrimSpace(*p.MaintenanceUntil); v == "" {
			rec["maintenance_until"] = nil
		} else {
			t, ok := parseMoment(v, h.Loc)
			if !ok {
				return nil, validation.Fieldf("maintenance_until", "Invalid date")
			}
			rec["maintenance_until"] = t
		}
	}
	if p.MaintenanceReason != nil {
		rec["maintenance_reason"] = strPtr(*p.MaintenanceReason)
	}
	return rec, nil
}

// resolveType accepts a type id or name.
func (h *FacilityHandler) resolveType(ctx context.Context, v string) (int64, error) {
	v = strings.TrimSpace(v)
	var (
		t   model.FacilityType
		err error
	)
	if id, perr := strconv.ParseInt(v, 10, 64); perr == nil {
		t, err = h.Types.FindByID(ctx, id)
	} else {
		t, err = h.Types.FindByName(ctx, v)
	}
	if isNotFoundErr(err) {
		return 0, validation.Fieldf("type", "Unknown facility type %q", v)
	}
	return t.ID, err
}

// resolveBuilding accepts a building id, name or code.
func (h *FacilityHandler) resolveBuilding(ctx context.Context, v string) (int64, error) {
	v = strings.TrimSpace(v)
	var (
		b   model.Building
		err error
	)
	if id, perr := strconv.ParseInt(v, 10, 64); perr == nil {
		b, err = h.Buildings.FindByID(ctx, id)
	} else {
		b, err = h.Buildings.FindByNameOrCode(ctx, v)
	}
	if isNotFoundErr(err) {
		return 0, validation.Fieldf("building", "Unknown building %q", v)
	}
	return b.ID, err
}

func (h *FacilityHandler) Create(c echo.Context) error {
	var req facilityReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rec, err := h.record(ctx, facilityPatch(req))
	if err != nil {
		return err
	}
	if _, ok := rec["is_active"]; !ok {
		rec["is_active"] = true
	}
	f, err := h.Facilities.Create(ctx, rec)
	if repository.IsDuplicate(err) {
		return apperror.Conflict("A facility with this name already exists")
	}
	if err != nil {
		return err
	}
	if d, derr := h.Facilities.FindDetailByID(ctx, f.ID); derr == nil {
		f = d
	}
	return response.Created(c, f, "Facility created")
}

func (h *FacilityHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req facilityPatch
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rec, err := h.record(ctx, req)
	if err != nil {
		return err
	}
	if _, err := h.Facilities.Update(ctx, id, rec); err != nil {
		if repository.IsDuplicate(err) {
			return apperror.Conflict("A facility with this name already exists")
		}
		return notFound(err, "Facility not found")
	}
	f, err := h.Facilities.FindDetailByID(ctx, id)
	if err != nil {
		return notFound(err, "Facility not found")
	}
	return response.OKMessage(c, f, "Facility updated")
}

func (h *FacilityHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ok, err := h.Facilities.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("Facility not found")
	}
	return response.OKMessage(c, nil, "Facility deleted")
}
