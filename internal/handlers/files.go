package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/skyvault/backend/internal/services"
	"github.com/skyvault/backend/pkg/utils"
)

type FilesHandler struct {
	Namespace *services.NamespaceService
	Objects   *services.ObjectService
}

func NewFilesHandler(namespace *services.NamespaceService, objects *services.ObjectService) *FilesHandler {
	return &FilesHandler{Namespace: namespace, Objects: objects}
}

// List answers both folder navigation and search. A non-empty search query
// wins over parentId and matches names across the whole namespace.
func (h *FilesHandler) List(c *fiber.Ctx) error {
	var parentID *uuid.UUID
	parentIDRaw := strings.TrimSpace(c.Query("parentId"))
	if parentIDRaw != "" {
		parsed, err := parseUUID(parentIDRaw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid parentId")
		}
		parentID = &parsed
	}

	search := strings.TrimSpace(c.Query("search"))
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", services.DefaultPageSize)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = services.DefaultPageSize
	}
	if limit > services.MaxPageSize {
		limit = services.MaxPageSize
	}

	nodes, total, err := h.Namespace.List(c.Context(), parentID, search, page, limit)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing files")
	}

	return utils.Paginated(c, nodes, page, limit, total)
}

type createFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

func (h *FilesHandler) CreateFolder(c *fiber.Ctx) error {
	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	parentID, ok := parseOptionalParent(req.ParentID)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parentId")
	}

	folder, err := h.Namespace.CreateFolder(c.Context(), req.Name, parentID)
	if err != nil {
		if errors.Is(err, services.ErrEmptyName) {
			return utils.Error(c, fiber.StatusBadRequest, "folder name is required")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating folder")
	}

	return utils.Success(c, fiber.StatusCreated, folder)
}

type uploadInitRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

func (h *FilesHandler) UploadInit(c *fiber.Ctx) error {
	var req uploadInitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Filename) == "" || strings.TrimSpace(req.ContentType) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "filename and contentType are required")
	}

	slot, err := h.Objects.AllocateUpload(c.Context(), req.Filename, req.ContentType)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed allocating upload slot")
	}

	return utils.Success(c, fiber.StatusOK, slot)
}

type uploadCompleteRequest struct {
	Key         string  `json:"key"`
	Filename    string  `json:"filename"`
	Size        *int64  `json:"size"`
	ContentType string  `json:"contentType"`
	ParentID    *string `json:"parentId"`
}

func (h *FilesHandler) UploadComplete(c *fiber.Ctx) error {
	var req uploadCompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Key == "" || strings.TrimSpace(req.Filename) == "" || req.Size == nil || req.ContentType == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing required fields")
	}
	if *req.Size < 0 {
		return utils.Error(c, fiber.StatusBadRequest, "invalid size")
	}

	parentID, ok := parseOptionalParent(req.ParentID)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parentId")
	}

	node, err := h.Objects.RegisterUpload(c.Context(), req.Key, strings.TrimSpace(req.Filename), *req.Size, req.ContentType, parentID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed registering upload")
	}

	return utils.Success(c, fiber.StatusCreated, node)
}

type downloadRequest struct {
	FileID string `json:"fileId"`
}

func (h *FilesHandler) DownloadURL(c *fiber.Ctx) error {
	var req downloadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.FileID == "" {
		return utils.Error(c, fiber.StatusBadRequest, "fileId is required")
	}

	fileID, err := parseUUID(req.FileID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid fileId")
	}

	node, err := h.Namespace.Get(c.Context(), fileID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading file")
	}

	url, err := h.Objects.DownloadURL(c.Context(), node)
	if err != nil {
		if errors.Is(err, services.ErrNoObject) {
			return utils.Error(c, fiber.StatusNotFound, "file has no downloadable content")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed signing download url")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": url})
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// Delete validates the whole batch before touching anything: one non-empty
// folder aborts with no side effects. Once validation passes the backing
// objects go first (parallel, best effort), then the metadata rows.
func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	var req deleteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.IDs) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "ids array is required")
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		parsed, err := parseUUID(raw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid id in ids")
		}
		ids = append(ids, parsed)
	}

	nodes, err := h.Namespace.ResolveDeletable(c.Context(), ids)
	if err != nil {
		var notEmpty *services.FolderNotEmptyError
		if errors.As(err, &notEmpty) {
			return utils.Error(c, fiber.StatusConflict, notEmpty.Error())
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed validating delete")
	}

	if len(nodes) == 0 {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"deletedCount": 0})
	}

	keys := make([]string, 0, len(nodes))
	deletable := make([]uuid.UUID, 0, len(nodes))
	for _, node := range nodes {
		deletable = append(deletable, node.ID)
		if !node.IsFolder() && node.ObjectKey != nil {
			keys = append(keys, *node.ObjectKey)
		}
	}

	h.Objects.DeleteObjects(c.Context(), keys)

	if err := h.Namespace.RemoveNodes(c.Context(), deletable); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting files")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deletedCount": len(nodes)})
}

// Raw streams file bytes for inline viewing, used by the dashboard for image
// previews where a redirect to a signed URL is not an option.
func (h *FilesHandler) Raw(c *fiber.Ctx) error {
	fileID, err := parseUUID(c.Params("fileId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	node, err := h.Namespace.Get(c.Context(), fileID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading file")
	}

	stream, info, err := h.Objects.Open(c.Context(), node)
	if err != nil {
		if errors.Is(err, services.ErrNoObject) {
			return utils.Error(c, fiber.StatusNotFound, "file has no content")
		}
		return utils.Error(c, fiber.StatusNotFound, "file not found in storage")
	}

	contentType := "application/octet-stream"
	if node.ContentType != nil && *node.ContentType != "" {
		contentType = *node.ContentType
	} else if info.ContentType != "" {
		contentType = info.ContentType
	}

	c.Set("Content-Type", contentType)
	c.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", node.Name))
	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.SendStream(stream, int(info.Size))
}
