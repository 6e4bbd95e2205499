package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/config"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
	"github.com/iliyamo/campus-facility-reservation/internal/storage"
)

var (
	documentExts = map[string]bool{".pdf": true, ".doc": true, ".docx": true, ".jpg": true, ".jpeg": true, ".png": true}
	imageExts    = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
)

// UploadHandler accepts proposal documents and images.
type UploadHandler struct {
	Cfg   config.Config
	Store storage.Storage
}

func NewUploadHandler(cfg config.Config, s storage.Storage) *UploadHandler {
	if s == nil {
		panic("nil storage passed to NewUploadHandler")
	}
	return &UploadHandler{Cfg: cfg, Store: s}
}

// Upload handles POST /api/upload with a multipart "file" field and
// returns {url}.
func (h *UploadHandler) Upload(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return err
	}
	url, err := saveUpload(c, h.Store, h.Cfg, "file", "documents", documentExts)
	if err != nil {
		return err
	}
	return response.OKMessage(c, map[string]string{"url": url}, "File uploaded successfully")
}

// saveUpload stores the multipart file in field and returns its absolute
// URL.
func saveUpload(c echo.Context, store storage.Storage, cfg config.Config, field, folder string, allowed map[string]bool) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", apperror.BadRequest("No file uploaded")
	}
	if cfg.UploadMaxBytes > 0 && fh.Size > cfg.UploadMaxBytes {
		return "", apperror.New(http.StatusRequestEntityTooLarge, "File too large")
	}
	if !allowed[strings.ToLower(filepath.Ext(fh.Filename))] {
		return "", apperror.BadRequest("Unsupported file type")
	}
	src, err := fh.Open()
	if err != nil {
		return "", apperror.Internal(err)
	}
	defer src.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()
	loc, err := store.Save(ctx, folder, fh.Filename, src)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return absoluteURL(c, cfg.PublicBaseURL, loc), nil
}
