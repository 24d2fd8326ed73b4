package models

import "encoding/json"

// OptionalParent distinguishes an absent parent_id field (leave the parent
// alone) from an explicit null (move to the root).
type OptionalParent struct {
	Set   bool
	Value *int64
}

func (o *OptionalParent) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

// CreateContainerRequest creates a container under an optional parent.
type CreateContainerRequest struct {
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	TypeID        int64   `json:"type_id"`
	ParentID      *int64  `json:"parent_id,omitempty"`
	BinderColumns *int    `json:"binder_columns,omitempty"`
	BinderFillRow *bool   `json:"binder_fill_row,omitempty"`
}

// UpdateContainerRequest updates a container; nil fields are left unchanged.
type UpdateContainerRequest struct {
	Name          *string        `json:"name,omitempty"`
	Description   *string        `json:"description,omitempty"`
	TypeID        *int64         `json:"type_id,omitempty"`
	ParentID      OptionalParent `json:"parent_id"`
	IsSold        *bool          `json:"is_sold,omitempty"`
	BinderColumns *int           `json:"binder_columns,omitempty"`
	BinderFillRow *bool          `json:"binder_fill_row,omitempty"`
}

// CreateContainerTypeRequest names a new container type.
type CreateContainerTypeRequest struct {
	Name string `json:"name"`
}
