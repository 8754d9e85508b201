package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/revsplit/internal/domain"
	"github.com/andresuchdata/revsplit/internal/export"
	"github.com/andresuchdata/revsplit/internal/service"
)

type DatasetHandler struct {
	service        *service.DashboardService
	maxUploadBytes int64
}

func NewDatasetHandler(service *service.DashboardService, maxUploadBytes int64) *DatasetHandler {
	return &DatasetHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// Health reports that the server is up.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Upload imports a multipart "file" field as a new dataset.
func (h *DatasetHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		if c.Request.ContentLength > h.maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large", "details": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided", "details": err.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file", "details": err.Error()})
		return
	}
	defer file.Close()

	ds, err := h.service.ImportDataset(c.Request.Context(), header.Filename, file)
	if err != nil {
		respondError(c, "failed to import dataset", err)
		return
	}

	c.JSON(http.StatusCreated, ds)
}

// List returns every imported dataset, newest first.
func (h *DatasetHandler) List(c *gin.Context) {
	datasets, err := h.service.ListDatasets(c.Request.Context())
	if err != nil {
		respondError(c, "failed to list datasets", err)
		return
	}
	c.JSON(http.StatusOK, datasets)
}

func (h *DatasetHandler) Get(c *gin.Context) {
	ds, err := h.service.GetDataset(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "failed to get dataset", err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (h *DatasetHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteDataset(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "failed to delete dataset", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetDashboard returns the processed dashboard, optionally limited to
// ?start=dd.mm&end=dd.mm.
func (h *DatasetHandler) GetDashboard(c *gin.Context) {
	data, err := h.service.GetDashboard(c.Request.Context(), c.Param("id"), parseDateFilter(c))
	if err != nil {
		respondError(c, "failed to build dashboard", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetLocations returns location summaries filtered by ?search=.
func (h *DatasetHandler) GetLocations(c *gin.Context) {
	locations, err := h.service.GetLocations(c.Request.Context(), c.Param("id"), parseDateFilter(c), c.Query("search"))
	if err != nil {
		respondError(c, "failed to get locations", err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (h *DatasetHandler) GetPrices(c *gin.Context) {
	prices, err := h.service.GetLearnedPrices(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "failed to get learned prices", err)
		return
	}
	c.JSON(http.StatusOK, prices)
}

// Export downloads the per-item revenue breakdown as ?format=csv|xlsx,
// optionally limited to one allocation ?method=.
func (h *DatasetHandler) Export(c *gin.Context) {
	id := c.Param("id")
	format := strings.ToLower(c.DefaultQuery("format", export.FormatCSV))

	var buf bytes.Buffer
	if err := h.service.ExportBreakdown(c.Request.Context(), id, parseDateFilter(c), format, strings.TrimSpace(c.Query("method")), &buf); err != nil {
		respondError(c, "failed to export breakdown", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="breakdown-%s.%s"`, id, format))
	c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
}

func parseDateFilter(c *gin.Context) domain.DateFilter {
	return domain.DateFilter{
		Start: strings.TrimSpace(c.Query("start")),
		End:   strings.TrimSpace(c.Query("end")),
	}
}

func respondError(c *gin.Context, message string, err error) {
	var validation *domain.ValidationError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDatasetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDateFilter),
		errors.Is(err, domain.ErrNoValidRows),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrUnknownMethod),
		errors.As(err, &validation):
		status = http.StatusBadRequest
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}

	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}
