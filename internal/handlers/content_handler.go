package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/services/excel"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/store"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ContentHandler struct {
	contentStore store.Store
	excelService *excel.Service
}

func NewContentHandler(contentStore store.Store, excelService *excel.Service) *ContentHandler {
	return &ContentHandler{
		contentStore: contentStore,
		excelService: excelService,
	}
}

// Download godoc
// @Summary Download a generated artifact
// @Description Serve a stored artifact by slug; the extension picks the format (.md, .json, .xlsx)
// @Tags content
// @Produce plain
// @Param name path string true "Artifact file name, e.g. the-hidden-kingdom.md"
// @Success 200 {string} string
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /download/{name} [get]
func (h *ContentHandler) Download(c *gin.Context) {
	name := c.Param("name")
	slug, ext, found := strings.Cut(name, ".")
	if !found || slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File name must be <slug>.<ext>"})
		return
	}

	ctx := c.Request.Context()
	switch ext {
	case "md":
		// Books live under book-full:, single-shot documents under content:.
		value, err := h.contentStore.Get(ctx, store.Key(store.PrefixBookFull, slug))
		if errors.Is(err, store.ErrNotFound) {
			value, err = h.contentStore.Get(ctx, store.Key(store.PrefixContent, slug))
		}
		if err != nil {
			h.respondStoreError(c, slug, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(value))

	case "json":
		value, err := h.contentStore.Get(ctx, store.Key(store.PrefixBookOutline, slug))
		if err != nil {
			h.respondStoreError(c, slug, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, "application/json", []byte(value))

	case "xlsx":
		value, err := h.contentStore.Get(ctx, store.Key(store.PrefixBookOutline, slug))
		if err != nil {
			h.respondStoreError(c, slug, err)
			return
		}
		var outline []models.ChapterMeta
		if err := json.Unmarshal([]byte(value), &outline); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored outline is not valid JSON", "details": err.Error()})
			return
		}
		buf, err := h.excelService.RenderOutline(slug, outline)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render workbook", "details": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported extension: " + ext})
	}
}

// ListKeys godoc
// @Summary List content keys
// @Description Browse stored content keys by glob pattern, paginated
// @Tags keys
// @Produce json
// @Security BearerAuth
// @Param pattern query string false "Key glob pattern (default *)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/keys [get]
func (h *ContentHandler) ListKeys(c *gin.Context) {
	pattern := c.DefaultQuery("pattern", "*")
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	keys, err := h.contentStore.Keys(c.Request.Context(), pattern)
	if err != nil {
		logrus.Errorf("Failed to list keys for pattern %s: %v", pattern, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list keys", "details": err.Error()})
		return
	}

	total := len(keys)
	offset := utils.CalculateOffset(page, pageSize)
	if offset > total {
		offset = total
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"keys":       keys[offset:end],
		"pagination": utils.CalculatePaginationInfo(total, page, pageSize),
	})
}

// GetKey godoc
// @Summary Fetch the raw value stored under a key
// @Tags keys
// @Produce plain
// @Security BearerAuth
// @Param key path string true "Full content key, e.g. book-full:the-hidden-kingdom"
// @Success 200 {string} string
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/keys/{key} [get]
func (h *ContentHandler) GetKey(c *gin.Context) {
	key := c.Param("key")
	value, err := h.contentStore.Get(c.Request.Context(), key)
	if err != nil {
		h.respondStoreError(c, key, err)
		return
	}
	c.String(http.StatusOK, value)
}

// DeleteKey godoc
// @Summary Delete a content key
// @Tags keys
// @Produce json
// @Security BearerAuth
// @Param key path string true "Full content key"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/keys/{key} [delete]
func (h *ContentHandler) DeleteKey(c *gin.Context) {
	key := c.Param("key")
	if err := h.contentStore.Del(c.Request.Context(), key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete key", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": key})
}

func (h *ContentHandler) respondStoreError(c *gin.Context, key string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found: " + key})
		return
	}
	logrus.Errorf("Store failure for %s: %v", key, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage failure", "details": err.Error()})
}
