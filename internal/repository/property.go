package repository

import (
	"context"
	"strings"

	"homestead/internal/cache"
	"homestead/internal/models"

	"gorm.io/gorm"
)

// PropertyFilter narrows a listing query. Zero values mean "any".
type PropertyFilter struct {
	DealType     string
	PropertyType string
	Status       string
	Location     string
	MinPrice     *float64
	MaxPrice     *float64
	OwnerID      uint
	Limit        int
	Offset       int
}

// PropertyRepository defines persistence operations for listings.
type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error
	GetByID(ctx context.Context, id uint) (*models.Property, error)
	List(ctx context.Context, f PropertyFilter) ([]models.Property, error)
	Update(ctx context.Context, p *models.Property) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context, status string) (int64, error)
}

type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository returns a new PropertyRepository implementation.
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, p *models.Property) error {
	if p.Images == nil {
		p.Images = models.StringList{}
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewValidationError("Owner does not exist")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID loads a listing with its owner projection, read through the cache.
func (r *propertyRepository) GetByID(ctx context.Context, id uint) (*models.Property, error) {
	var p models.Property
	err := cache.Aside(ctx, cache.PropertyKey(id), &p, cache.PropertyTTL, func() error {
		if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
			return mapLookupError(err, "Property", id)
		}
		return r.attachOwners(ctx, []*models.Property{&p})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepository) List(ctx context.Context, f PropertyFilter) ([]models.Property, error) {
	limit, offset := clampPage(f.Limit, f.Offset, DefaultPageSize)

	q := r.db.WithContext(ctx).Model(&models.Property{})
	if f.DealType != "" {
		q = q.Where("deal_type = ?", f.DealType)
	}
	if f.PropertyType != "" {
		q = q.Where("property_type = ?", f.PropertyType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		q = q.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(loc)+"%")
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}

	out := []models.Property{}
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	ptrs := make([]*models.Property, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := r.attachOwners(ctx, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes every mutable column of p. Owner and creation time are never
// rewritten.
func (r *propertyRepository) Update(ctx context.Context, p *models.Property) error {
	if p.Images == nil {
		p.Images = models.StringList{}
	}
	res := r.db.WithContext(ctx).Model(p).
		Select("*").
		Omit("ID", "OwnerID", "CreatedAt").
		Updates(p)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Property", p.ID)
	}
	cache.InvalidateProperty(ctx, p.ID)
	return nil
}

func (r *propertyRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Property{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	cache.InvalidateProperty(ctx, id)
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Property", id)
	}
	return nil
}

// Count returns the number of listings, optionally restricted to status.
func (r *propertyRepository) Count(ctx context.Context, status string) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.Property{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *propertyRepository) attachOwners(ctx context.Context, props []*models.Property) error {
	ids := make([]uint, 0, len(props))
	for _, p := range props {
		ids = append(ids, p.OwnerID)
	}
	owners, err := loadUserSummaries(r.db.WithContext(ctx), ids)
	if err != nil {
		return models.NewInternalError(err)
	}
	for _, p := range props {
		if o, ok := owners[p.OwnerID]; ok {
			p.Owner = &models.UserSummary{ID: o.ID, Name: o.Name, Email: o.Email}
		}
	}
	return nil
}
