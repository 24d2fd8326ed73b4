package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/repository"
)

// ContainerService handles container hierarchy business logic
type ContainerService struct {
	containerRepo repository.ContainerRepo
}

// NewContainerService creates a new ContainerService
func NewContainerService(containerRepo repository.ContainerRepo) *ContainerService {
	return &ContainerService{containerRepo: containerRepo}
}

// CreateContainer creates a new container under an optional parent
func (s *ContainerService) CreateContainer(ctx context.Context, userID string, req *models.CreateContainerRequest) (*models.Container, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.ErrContainerNameRequired
	}

	ctype, err := s.containerRepo.GetType(ctx, req.TypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up container type: %w", err)
	}
	if ctype == nil {
		return nil, models.ErrInvalidContainerType
	}

	depth := 1
	if req.ParentID != nil {
		parent, err := s.containerRepo.GetByID(ctx, *req.ParentID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up parent: %w", err)
		}
		if parent == nil {
			return nil, models.ErrParentNotFound
		}
		depth = parent.Depth + 1
		if depth > models.MaxContainerDepth {
			return nil, models.ErrMaxDepthExceeded
		}
	}

	container := &models.Container{
		Name:          name,
		Description:   req.Description,
		TypeID:        req.TypeID,
		ParentID:      req.ParentID,
		Depth:         depth,
		UserID:        userID,
		TypeName:      ctype.Name,
		BinderColumns: 3,
	}
	if req.BinderColumns != nil {
		if !models.IsValidBinderColumns(*req.BinderColumns) {
			return nil, models.ErrInvalidBinderColumns
		}
		container.BinderColumns = *req.BinderColumns
	}
	if req.BinderFillRow != nil {
		container.BinderFillRow = *req.BinderFillRow
	}

	if err := s.containerRepo.Add(ctx, container); err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	return container, nil
}

// GetContainer retrieves a container by ID
func (s *ContainerService) GetContainer(ctx context.Context, id int64, userID string) (*models.Container, error) {
	container, err := s.containerRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get container: %w", err)
	}
	if container == nil {
		return nil, models.ErrContainerNotFound
	}
	return container, nil
}

// ListContainers lists containers, optionally filtered to one parent. With no
// filter, every container is returned.
func (s *ContainerService) ListContainers(ctx context.Context, userID string, parentID *int64, rootOnly bool) ([]*models.Container, error) {
	if parentID != nil || rootOnly {
		return s.containerRepo.ListByParent(ctx, parentID, userID)
	}
	return s.containerRepo.ListAll(ctx, userID)
}

// UpdateContainer applies a partial update, re-validating hierarchy rules when
// the parent changes.
func (s *ContainerService) UpdateContainer(ctx context.Context, id int64, userID string, req *models.UpdateContainerRequest) (*models.Container, error) {
	container, err := s.GetContainer(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, models.ErrContainerNameRequired
		}
		container.Name = name
	}
	if req.Description != nil {
		container.Description = req.Description
	}
	if req.TypeID != nil {
		ctype, err := s.containerRepo.GetType(ctx, *req.TypeID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up container type: %w", err)
		}
		if ctype == nil {
			return nil, models.ErrInvalidContainerType
		}
		container.TypeID = *req.TypeID
		container.TypeName = ctype.Name
	}
	if req.IsSold != nil {
		container.IsSold = *req.IsSold
	}
	if req.BinderColumns != nil {
		if !models.IsValidBinderColumns(*req.BinderColumns) {
			return nil, models.ErrInvalidBinderColumns
		}
		container.BinderColumns = *req.BinderColumns
	}
	if req.BinderFillRow != nil {
		container.BinderFillRow = *req.BinderFillRow
	}

	if req.ParentID.Set {
		if err := s.reparent(ctx, container, req.ParentID.Value, userID); err != nil {
			return nil, err
		}
	}

	if err := s.containerRepo.Update(ctx, container); err != nil {
		return nil, fmt.Errorf("failed to update container: %w", err)
	}
	return container, nil
}

// reparent moves a container (and implicitly its subtree) under a new parent,
// refusing self-parenting, cycles, and depth overflow anywhere in the subtree.
func (s *ContainerService) reparent(ctx context.Context, container *models.Container, newParentID *int64, userID string) error {
	if newParentID == nil {
		container.ParentID = nil
		return s.resettleDepth(ctx, container, 1, userID)
	}
	if *newParentID == container.ID {
		return models.ErrSelfParent
	}

	parent, err := s.containerRepo.GetByID(ctx, *newParentID, userID)
	if err != nil {
		return fmt.Errorf("failed to look up parent: %w", err)
	}
	if parent == nil {
		return models.ErrParentNotFound
	}

	// Walk up from the new parent; hitting the container being moved
	// means the move would create a cycle.
	for cursor := parent; cursor.ParentID != nil; {
		if *cursor.ParentID == container.ID {
			return models.ErrContainerCycle
		}
		cursor, err = s.containerRepo.GetByID(ctx, *cursor.ParentID, userID)
		if err != nil {
			return fmt.Errorf("failed to walk ancestors: %w", err)
		}
		if cursor == nil {
			break
		}
	}

	container.ParentID = newParentID
	return s.resettleDepth(ctx, container, parent.Depth+1, userID)
}

// resettleDepth assigns the container its new depth and shifts every
// descendant by the same delta, checking the limit before writing anything.
func (s *ContainerService) resettleDepth(ctx context.Context, container *models.Container, newDepth int, userID string) error {
	delta := newDepth - container.Depth
	if delta == 0 {
		return nil
	}

	all, err := s.containerRepo.ListAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}
	children := make(map[int64][]*models.Container)
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	var subtree []*models.Container
	queue := []int64{container.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			subtree = append(subtree, child)
			queue = append(queue, child.ID)
		}
	}

	if newDepth > models.MaxContainerDepth {
		return models.ErrMaxDepthExceeded
	}
	for _, c := range subtree {
		if c.Depth+delta > models.MaxContainerDepth {
			return models.ErrMaxDepthExceeded
		}
	}

	container.Depth = newDepth
	for _, c := range subtree {
		c.Depth += delta
		if err := s.containerRepo.Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update subtree depth: %w", err)
		}
	}
	return nil
}

// DeleteContainer removes an empty container. Containers with children must be
// emptied first.
func (s *ContainerService) DeleteContainer(ctx context.Context, id int64, userID string) error {
	container, err := s.GetContainer(ctx, id, userID)
	if err != nil {
		return err
	}
	hasChildren, err := s.containerRepo.HasChildren(ctx, container.ID)
	if err != nil {
		return fmt.Errorf("failed to check children: %w", err)
	}
	if hasChildren {
		return models.ErrHasChildren
	}
	if err := s.containerRepo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete container: %w", err)
	}
	return nil
}

// ListTypes returns all container types
func (s *ContainerService) ListTypes(ctx context.Context) ([]*models.ContainerType, error) {
	return s.containerRepo.ListTypes(ctx)
}

// CreateType adds a new container type
func (s *ContainerService) CreateType(ctx context.Context, name string) (*models.ContainerType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.ErrContainerNameRequired
	}
	existing, err := s.containerRepo.GetTypeByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check container type: %w", err)
	}
	if existing != nil {
		return nil, models.ErrContainerTypeExists
	}
	t := &models.ContainerType{Name: name}
	if err := s.containerRepo.AddType(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create container type: %w", err)
	}
	return t, nil
}
