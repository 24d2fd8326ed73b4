package models

import (
	"strings"
	"time"
)

// MaxContainerDepth bounds the container tree. Enforced on create and
// reparent.
const MaxContainerDepth = 10

// ContainerType names the kind of physical storage: box, file, deck,
// cupboard, drawer. "file" is the binder type.
type ContainerType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

const BinderTypeName = "file"

// Container is a node in the per-user container tree. BinderColumns and
// BinderFillRow only matter for binder (file) containers.
type Container struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	TypeID       int64     `json:"type_id"`
	ParentID     *int64    `json:"parent_id,omitempty"`
	Depth        int       `json:"depth"`
	UserID       string    `json:"-"`
	IsSold       bool      `json:"is_sold"`
	BinderColumns int      `json:"binder_columns"`
	BinderFillRow bool     `json:"binder_fill_row"`
	CreatedAt    time.Time `json:"created_at"`

	// Joined from container_types, not stored on the row.
	TypeName string `json:"type_name,omitempty"`
}

// IsBinder reports whether the container renders as a binder.
func (c *Container) IsBinder() bool {
	return strings.EqualFold(c.TypeName, BinderTypeName)
}

// SlotsPerPage derives the page geometry from the column setting: 2 columns
// give a 2x2 spread, otherwise 3 rows.
func (c *Container) SlotsPerPage() int {
	cols := c.BinderColumns
	if cols == 0 {
		cols = 3
	}
	rows := 3
	if cols == 2 {
		rows = 2
	}
	return cols * rows
}

// IsValidBinderColumns checks a binder column setting.
func IsValidBinderColumns(cols int) bool {
	return cols == 2 || cols == 3 || cols == 4
}

// ContainerError is a typed error for container operations
type ContainerError struct {
	Message string
}

func (e ContainerError) Error() string {
	return e.Message
}

var (
	ErrContainerNotFound     = ContainerError{"container not found"}
	ErrContainerNameRequired = ContainerError{"container name is required"}
	ErrInvalidContainerType  = ContainerError{"invalid container type"}
	ErrContainerTypeExists   = ContainerError{"container type already exists"}
	ErrParentNotFound        = ContainerError{"parent container not found"}
	ErrSelfParent            = ContainerError{"container cannot be its own parent"}
	ErrContainerCycle        = ContainerError{"reparenting would create a cycle"}
	ErrMaxDepthExceeded      = ContainerError{"maximum container depth (10) exceeded"}
	ErrHasChildren           = ContainerError{"cannot delete container with children"}
	ErrInvalidBinderColumns  = ContainerError{"binder columns must be 2, 3, or 4"}
	ErrNotBinder             = ContainerError{"binder view is only available for 'file' containers"}
)
