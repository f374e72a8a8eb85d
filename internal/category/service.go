// Package category maintains the part category forest: a flat table of
// (id, name, parent_id) rows where no node may become its own ancestor.
package category

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/partdepot/partdepot/internal/domain"
	"github.com/partdepot/partdepot/pkg/common"
)

// maxDepth bounds the ancestor walk so a pre-existing corrupt cycle in the
// table cannot spin the walk forever even if the visited set misses it.
const maxDepth = 256

// Service performs category tree mutations and reads.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// UpdateRequest carries the optional fields of a category update; nil fields
// are left untouched. ClearParent moves the category back to the root and
// wins over ParentID.
type UpdateRequest struct {
	Name        *string
	ParentID    *int64
	ClearParent bool
}

// Create adds a category, optionally under an existing parent.
func (s *Service) Create(ctx context.Context, name string, parentID *int64) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("category name is required")
	}

	cat := &domain.Category{
		ID:       common.UUIDint64(),
		Name:     name,
		ParentID: parentID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateName
		}
		if parentID != nil {
			if _, err := s.getCategory(tx, *parentID, false); err != nil {
				return err
			}
		}
		return tx.Create(cat).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("category created", zap.Int64("id", cat.ID), zap.String("name", name))
	return cat, nil
}

// Update renames a category and/or moves it under a new parent. A parent
// change walks the candidate parent's ancestor chain under row locks; the
// move is rejected when the category itself appears in that chain.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*domain.Category, error) {
	var updated *domain.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cat, err := s.getCategory(tx, id, true)
		if err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name != "" && name != cat.Name {
				var count int64
				if err := tx.Model(&domain.Category{}).
					Where("name = ? AND id <> ?", name, id).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return domain.ErrDuplicateName
				}
				cat.Name = name
			}
		}

		if req.ClearParent {
			cat.ParentID = nil
		} else if req.ParentID != nil {
			if *req.ParentID == id {
				return domain.ErrSelfParent
			}
			if err := s.checkNoCycle(tx, id, *req.ParentID); err != nil {
				return err
			}
			cat.ParentID = req.ParentID
		}

		cat.UpdatedAt = time.Now()
		if err := tx.Save(cat).Error; err != nil {
			return err
		}
		updated = cat
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a leaf category that no part references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.getCategory(tx, id, false); err != nil {
			return err
		}

		var children int64
		if err := tx.Model(&domain.Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return domain.ErrHasSubcategories
		}

		var parts int64
		if err := tx.Model(&domain.Part{}).Where("category_id = ?", id).Count(&parts).Error; err != nil {
			return err
		}
		if parts > 0 {
			return domain.ErrHasParts
		}

		return tx.Delete(&domain.Category{}, id).Error
	})
}

// Get returns a single category by id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Category, error) {
	return s.getCategory(s.db.WithContext(ctx), id, false)
}

// Tree returns the root categories with their subcategories attached
// recursively, every level ordered by id.
func (s *Service) Tree(ctx context.Context) ([]*domain.Category, error) {
	var all []*domain.Category
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&all).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Category, len(all))
	for _, cat := range all {
		byID[cat.ID] = cat
	}

	roots := make([]*domain.Category, 0)
	for _, cat := range all {
		if cat.ParentID == nil {
			roots = append(roots, cat)
			continue
		}
		parent, ok := byID[*cat.ParentID]
		if !ok {
			// Orphaned by a broken parent reference; surface it as a root.
			roots = append(roots, cat)
			continue
		}
		parent.Subcategories = append(parent.Subcategories, cat)
	}
	return roots, nil
}

// checkNoCycle walks upward from the candidate parent. Finding id in the
// chain means id would become its own ancestor. The walk locks each visited
// row, keeps a visited set, and bails out after maxDepth steps, so disjoint
// subtree edits never conflict and corrupt data cannot loop it.
func (s *Service) checkNoCycle(tx *gorm.DB, id, candidateParent int64) error {
	visited := map[int64]bool{id: true}
	current := candidateParent
	for depth := 0; depth < maxDepth; depth++ {
		if current == id {
			return domain.ErrCycleDetected
		}
		if visited[current] {
			// Pre-existing cycle in the chain that does not involve id;
			// refuse the move rather than extend it.
			return domain.ErrCycleDetected
		}
		visited[current] = true

		node, err := s.getCategory(tx, current, true)
		if err != nil {
			if errors.Is(err, domain.ErrCategoryNotFound) && current != candidateParent {
				// Broken chain above the candidate terminates the walk.
				return nil
			}
			return err
		}
		if node.ParentID == nil {
			return nil
		}
		current = *node.ParentID
	}
	return domain.ErrCycleDetected
}

func (s *Service) getCategory(tx *gorm.DB, id int64, lock bool) (*domain.Category, error) {
	q := tx
	if lock && tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var cat domain.Category
	err := q.Where("id = ?", id).First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}
