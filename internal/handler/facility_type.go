package handler

import (
	"github.com/doug-martin/goqu/v9"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
	"github.com/iliyamo/campus-facility-reservation/internal/validation"
)

type facilityTypeReq struct {
	Name        *string `json:"name" validate:"required,min=2,max=100"`
	Description *string `json:"description"`
}

type facilityTypePatch struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description"`
}

func facilityTypeRecord(name, desc *string) goqu.Record {
	rec := goqu.Record{}
	if name != nil {
		rec["name"] = *name
	}
	if desc != nil {
		rec["description"] = strPtr(*desc)
	}
	return rec
}

// ListTypes returns every facility type ordered by name.
func (h *CatalogHandler) ListTypes(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Types.ListOrdered(ctx)
	if err != nil {
		return err
	}
	return response.OK(c, list)
}

func (h *CatalogHandler) GetType(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Types.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "Facility type not found")
	}
	return response.OK(c, t)
}

func (h *CatalogHandler) CreateType(c echo.Context) error {
	var req facilityTypeReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Types.Create(ctx, facilityTypeRecord(req.Name, req.Description))
	if repository.IsDuplicate(err) {
		return apperror.Conflict("Facility type already exists")
	}
	if err != nil {
		return err
	}
	return response.Created(c, t, "Facility type created")
}

func (h *CatalogHandler) UpdateType(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req facilityTypePatch
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Types.Update(ctx, id, facilityTypeRecord(req.Name, req.Description))
	if repository.IsDuplicate(err) {
		return apperror.Conflict("Facility type already exists")
	}
	if err != nil {
		return notFound(err, "Facility type not found")
	}
	return response.OKMessage(c, t, "Facility type updated")
}

func (h *CatalogHandler) DeleteType(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ok, err := h.Types.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("Facility type not found")
	}
	return response.OKMessage(c, nil, "Facility type deleted")
}
