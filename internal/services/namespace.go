package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/skyvault/backend/internal/models"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NamespaceService is the policy layer over the nodes table: listing order,
// global search, pagination, and the delete-batch hierarchy rules.
type NamespaceService struct {
	DB *gorm.DB
}

func NewNamespaceService(db *gorm.DB) *NamespaceService {
	return &NamespaceService{DB: db}
}

// List returns one page of the namespace plus the total match count.
//
// A non-empty search ignores the folder scope entirely and matches the name
// substring across the whole forest; an empty search lists the children of
// parentID, with nil meaning the roots. Folders sort before files (kind
// descending), names ascending. A page past the end is an empty page.
func (s *NamespaceService) List(ctx context.Context, parentID *uuid.UUID, search string, page, limit int) ([]models.Node, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	scope := func(db *gorm.DB) *gorm.DB {
		if search != "" {
			return db.Where("name LIKE ?", "%"+search+"%")
		}
		if parentID != nil {
			return db.Where("parent_id = ?", *parentID)
		}
		return db.Where("parent_id IS NULL")
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Node{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	nodes := make([]models.Node, 0, limit)
	err := s.DB.WithContext(ctx).
		Scopes(scope).
		Order("kind DESC, name ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&nodes).Error
	if err != nil {
		return nil, 0, err
	}

	return nodes, total, nil
}

// CreateFolder inserts a folder node. The parent is deliberately not
// validated; a dangling parent id just yields a subtree no listing reaches.
func (s *NamespaceService) CreateFolder(ctx context.Context, name string, parentID *uuid.UUID) (*models.Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	node := models.Node{
		ParentID: parentID,
		Name:     name,
		Kind:     models.NodeKindFolder,
		Size:     0,
	}
	if err := s.DB.WithContext(ctx).Create(&node).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *NamespaceService) Get(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	var node models.Node
	if err := s.DB.WithContext(ctx).First(&node, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &node, nil
}

// ResolveDeletable loads the nodes a delete batch refers to and runs the
// validation stage. Ids that resolve to nothing are silently skipped. Any
// folder with at least one child fails the whole batch with
// FolderNotEmptyError before a single deletion happens.
func (s *NamespaceService) ResolveDeletable(ctx context.Context, ids []uuid.UUID) ([]models.Node, error) {
	var nodes []models.Node
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&nodes).Error; err != nil {
		return nil, err
	}

	for _, node := range nodes {
		if !node.IsFolder() {
			continue
		}
		var count int64
		err := s.DB.WithContext(ctx).
			Model(&models.Node{}).
			Where("parent_id = ?", node.ID).
			Limit(1).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, &FolderNotEmptyError{Name: node.Name}
		}
	}

	return nodes, nil
}

// RemoveNodes drops the metadata rows. Delete-by-id is a no-op for rows that
// are already gone, so overlapping concurrent batches stay safe.
func (s *NamespaceService) RemoveNodes(ctx context.Context, ids []uuid.UUID) error {
	return s.DB.WithContext(ctx).Delete(&models.Node{}, "id IN ?", ids).Error
}
