package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/skyvault/backend/internal/config"
	"github.com/skyvault/backend/internal/models"
	"github.com/skyvault/backend/internal/storage"
	"github.com/skyvault/backend/pkg/logger"
	"gorm.io/gorm"
)

// ObjectService bridges node identity to object-store key identity. It never
// handles bytes on the upload path; clients transfer those directly against
// presigned URLs and confirm afterwards.
type ObjectService struct {
	DB    *gorm.DB
	Store storage.ObjectStore
	cfg   config.UploadConfig
}

func NewObjectService(db *gorm.DB, store storage.ObjectStore, cfg config.UploadConfig) *ObjectService {
	return &ObjectService{DB: db, Store: store, cfg: cfg}
}

type UploadSlot struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// AllocateUpload issues a fresh object key and a short-lived write URL. The
// key keeps the original extension purely for operator convenience when
// browsing the bucket; nothing trusts it. No metadata row is created here.
func (s *ObjectService) AllocateUpload(ctx context.Context, filename, contentType string) (*UploadSlot, error) {
	key := uuid.New().String()
	if ext := filepath.Ext(filename); ext != "" {
		key += ext
	}

	url, err := s.Store.PresignedPutURL(ctx, key, s.cfg.PutURLExpiry)
	if err != nil {
		return nil, err
	}

	logger.Info("upload_slot_allocated", map[string]interface{}{
		"key":          key,
		"filename":     filename,
		"content_type": contentType,
		"expiry":       s.cfg.PutURLExpiry.String(),
	})

	return &UploadSlot{Key: key, URL: url, Filename: filename}, nil
}

// RegisterUpload inserts the file node once the client reports the byte
// transfer done. This is the sole insertion point for file nodes. The object
// is not checked for existence; registration trusts the client's claim.
// Registering the same key twice yields two distinct nodes.
func (s *ObjectService) RegisterUpload(ctx context.Context, key, filename string, size int64, contentType string, parentID *uuid.UUID) (*models.Node, error) {
	node := models.Node{
		ParentID:  parentID,
		Name:      filename,
		Kind:      models.NodeKindFile,
		Size:      size,
		ObjectKey: &key,
	}
	if contentType != "" {
		node.ContentType = &contentType
	}

	if err := s.DB.WithContext(ctx).Create(&node).Error; err != nil {
		return nil, err
	}

	logger.Info("upload_registered", map[string]interface{}{
		"node_id":   node.ID.String(),
		"key":       key,
		"filename":  filename,
		"size":      size,
		"parent_id": parentID,
	})

	return &node, nil
}

// DownloadURL signs a one-hour read URL that triggers a save dialog with the
// node's recorded name.
func (s *ObjectService) DownloadURL(ctx context.Context, node *models.Node) (string, error) {
	if node.IsFolder() || node.ObjectKey == nil {
		return "", ErrNoObject
	}

	contentType := ""
	if node.ContentType != nil {
		contentType = *node.ContentType
	}
	disposition := fmt.Sprintf("attachment; filename=%q", node.Name)

	return s.Store.PresignedGetURL(ctx, *node.ObjectKey, s.cfg.GetURLExpiry, contentType, disposition)
}

// Open streams the backing object for inline serving, used where clients
// cannot follow signed URLs.
func (s *ObjectService) Open(ctx context.Context, node *models.Node) (io.ReadCloser, storage.ObjectInfo, error) {
	if node.IsFolder() || node.ObjectKey == nil {
		return nil, storage.ObjectInfo{}, ErrNoObject
	}
	return s.Store.Open(ctx, *node.ObjectKey)
}

// DeleteObjects removes backing objects in parallel, best effort. Failures
// are logged and swallowed: the metadata delete proceeds regardless, and a
// leaked object is reclaimed out of band.
func (s *ObjectService) DeleteObjects(ctx context.Context, keys []string) {
	var wg sync.WaitGroup
	for _, key := range keys {
		wg.Add(1)
		go func(objectKey string) {
			defer wg.Done()
			if err := s.Store.Delete(ctx, objectKey); err != nil {
				logger.Error("object_delete_failed", err, map[string]interface{}{
					"key": objectKey,
				})
			}
		}(key)
	}
	wg.Wait()
}
