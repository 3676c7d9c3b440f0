package models

import "github.com/google/uuid"

type NodeKind string

const (
	NodeKindFile   NodeKind = "file"
	NodeKindFolder NodeKind = "folder"
)

// Node is a single entry in the namespace: either a folder or a file.
// Files carry an object key pointing into the object store; folders never do.
type Node struct {
	BaseModel
	ParentID    *uuid.UUID `json:"parentId" gorm:"type:uuid;index"`
	Name        string     `json:"name" gorm:"type:varchar(255);not null"`
	Kind        NodeKind   `json:"kind" gorm:"type:varchar(10);not null;index"`
	Size        int64      `json:"size" gorm:"not null;default:0"`
	ContentType *string    `json:"contentType,omitempty" gorm:"type:varchar(255)"`
	ObjectKey   *string    `json:"objectKey,omitempty" gorm:"type:text"`

	Parent   *Node  `json:"-" gorm:"foreignKey:ParentID"`
	Children []Node `json:"-" gorm:"foreignKey:ParentID"`
}

func (n *Node) IsFolder() bool {
	return n.Kind == NodeKindFolder
}
