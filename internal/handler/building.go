package handler

import (
	"github.com/doug-martin/goqu/v9"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
	"github.com/iliyamo/campus-facility-reservation/internal/validation"
)

// CatalogHandler serves buildings and facility types.
type CatalogHandler struct {
	Buildings *repository.BuildingRepo
	Types     *repository.FacilityTypeRepo
}

func NewCatalogHandler(b *repository.BuildingRepo, t *repository.FacilityTypeRepo) *CatalogHandler {
	if b == nil || t == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Buildings: b, Types: t}
}

type buildingReq struct {
	Name                string  `json:"name" validate:"required,min=2,max=150"`
	Code                *string `json:"code" validate:"omitempty,max=20"`
	LocationDescription *string `json:"location_description"`
	ImageURL            *string `json:"image_url"`
}

type buildingPatch struct {
	Name                *string `json:"name" validate:"omitempty,min=2,max=150"`
	Code                *string `json:"code" validate:"omitempty,max=20"`
	LocationDescription *string `json:"location_description"`
	ImageURL            *string `json:"image_url"`
}

func (p buildingPatch) record() goqu.Record {
	rec := goqu.Record{}
	if p.Name != nil {
		rec["name"] = *p.Name
	}
	if p.Code != nil {
		rec["code"] = strPtr(*p.Code)
	}
	if p.LocationDescription != nil {
		rec["location_description"] = strPtr(*p.LocationDescription)
	}
	if p.ImageURL != nil {
		rec["image_url"] = strPtr(*p.ImageURL)
	}
	return rec
}

// ListBuildings returns every building ordered by name.
func (h *CatalogHandler) ListBuildings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Buildings.ListOrdered(ctx)
	if err != nil {
		return err
	}
	return response.OK(c, list)
}

func (h *CatalogHandler) GetBuilding(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Buildings.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "Building not found")
	}
	return response.OK(c, b)
}

func (h *CatalogHandler) CreateBuilding(c echo.Context) error {
	var req buildingReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rec := buildingPatch{Name: &req.Name, Code: req.Code, LocationDescription: req.LocationDescription, ImageURL: req.ImageURL}.record()
	b, err := h.Buildings.Create(ctx, rec)
	if repository.IsDuplicate(err) {
		return apperror.Conflict("A building with this name or code already exists")
	}
	if err != nil {
		return err
	}
	return response.Created(c, b, "Building created")
}

func (h *CatalogHandler) UpdateBuilding(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req buildingPatch
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Buildings.Update(ctx, id, req.record())
	if repository.IsDuplicate(err) {
		return apperror.Conflict("A building with this name or code already exists")
	}
	if err != nil {
		return notFound(err, "Building not found")
	}
	return response.OKMessage(c, b, "Building updated")
}

func (h *CatalogHandler) DeleteBuilding(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ok, err := h.Buildings.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("Building not found")
	}
	return response.OKMessage(c, nil, "Building deleted")
}
