package service

import (
	"context"
	"strings"

	"homestead/internal/cache"
	"homestead/internal/models"
	"homestead/internal/repository"
)

// CreatePropertyInput is the body of a new listing. Area is a pointer so a
// missing value can be told apart from zero.
type CreatePropertyInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PropertyType  string   `json:"propertyType"`
	DealType      string   `json:"dealType"`
	Price         *float64 `json:"price"`
	RentPrice     *float64 `json:"rentPrice"`
	DepositPrice  *float64 `json:"depositPrice"`
	Area          *float64 `json:"area"`
	RoomCount     *int     `json:"roomCount"`
	BathroomCount *int     `json:"bathroomCount"`
	Floor         *int     `json:"floor"`
	TotalFloors   *int     `json:"totalFloors"`
	YearBuilt     *int     `json:"yearBuilt"`
	Parking       bool     `json:"parking"`
	Elevator      bool     `json:"elevator"`
	Storage       bool     `json:"storage"`
	Furnished     bool     `json:"furnished"`
	Status        string   `json:"status"`
	Location      string   `json:"location"`
	Images        []string `json:"images"`
	OwnerID       *uint    `json:"ownerId"`
}

// PropertyPatch lists every column a listing update may touch. Nil fields are
// left unchanged. Nullable columns accept an explicit null to clear them.
type PropertyPatch struct {
	Title         *string           `json:"title"`
	Description   *string           `json:"description"`
	PropertyType  *string           `json:"propertyType"`
	DealType      *string           `json:"dealType"`
	Price         Nullable[float64] `json:"price" swaggertype:"number"`
	RentPrice     Nullable[float64] `json:"rentPrice" swaggertype:"number"`
	DepositPrice  Nullable[float64] `json:"depositPrice" swaggertype:"number"`
	Area          *float64          `json:"area"`
	RoomCount     Nullable[int]     `json:"roomCount" swaggertype:"integer"`
	BathroomCount Nullable[int]     `json:"bathroomCount" swaggertype:"integer"`
	Floor         Nullable[int]     `json:"floor" swaggertype:"integer"`
	TotalFloors   Nullable[int]     `json:"totalFloors" swaggertype:"integer"`
	YearBuilt     Nullable[int]     `json:"yearBuilt" swaggertype:"integer"`
	Parking       *bool             `json:"parking"`
	Elevator      *bool             `json:"elevator"`
	Storage       *bool             `json:"storage"`
	Furnished     *bool             `json:"furnished"`
	Status        *string           `json:"status"`
	Location      *string           `json:"location"`
	Images        *[]string         `json:"images"`
}

type PropertyService struct {
	propertyRepo repository.PropertyRepository
	userRepo     repository.UserRepository
}

func NewPropertyService(propertyRepo repository.PropertyRepository, userRepo repository.UserRepository) *PropertyService {
	return &PropertyService{propertyRepo: propertyRepo, userRepo: userRepo}
}

// Create stores a listing owned by the actor. Admins may attribute the
// listing to another existing user through OwnerID.
func (s *PropertyService) Create(ctx context.Context, actor *Actor, in CreatePropertyInput) (*models.Property, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	p := &models.Property{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		PropertyType:  strings.TrimSpace(in.PropertyType),
		DealType:      strings.TrimSpace(in.DealType),
		Price:         in.Price,
		RentPrice:     in.RentPrice,
		DepositPrice:  in.DepositPrice,
		RoomCount:     in.RoomCount,
		BathroomCount: in.BathroomCount,
		Floor:         in.Floor,
		TotalFloors:   in.TotalFloors,
		YearBuilt:     in.YearBuilt,
		Parking:       in.Parking,
		Elevator:      in.Elevator,
		Storage:       in.Storage,
		Furnished:     in.Furnished,
		Status:        strings.TrimSpace(in.Status),
		Location:      strings.TrimSpace(in.Location),
		Images:        cleanImages(in.Images),
		OwnerID:       actor.UserID,
	}
	if in.Area != nil {
		p.Area = *in.Area
	}
	if p.Status == "" {
		p.Status = models.PropertyStatusActive
	}
	if err := validateProperty(p); err != nil {
		return nil, err
	}

	if in.OwnerID != nil && *in.OwnerID != actor.UserID {
		if !actor.IsAdmin() {
			return nil, models.NewForbiddenError("Only admins can create listings for other users")
		}
		if _, err := s.userRepo.GetByID(ctx, *in.OwnerID); err != nil {
			if models.IsNotFound(err) {
				return nil, models.NewValidationError("Owner does not exist")
			}
			return nil, err
		}
		p.OwnerID = *in.OwnerID
	}

	if err := s.propertyRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, p.OwnerID)
	return p, nil
}

func (s *PropertyService) Get(ctx context.Context, id uint) (*models.Property, error) {
	return s.propertyRepo.GetByID(ctx, id)
}

func (s *PropertyService) List(ctx context.Context, f repository.PropertyFilter) ([]models.Property, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, models.NewValidationError("minPrice must not exceed maxPrice")
	}
	return s.propertyRepo.List(ctx, f)
}

// Update applies patch to listing id. Only the owner or an admin may edit.
func (s *PropertyService) Update(ctx context.Context, actor *Actor, id uint, patch PropertyPatch) (*models.Property, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	p, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(p.OwnerID) {
		return nil, models.NewForbiddenError("You can only edit your own listings")
	}

	applyPropertyPatch(p, patch)
	if err := validateProperty(p); err != nil {
		return nil, err
	}

	if err := s.propertyRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes listing id. A row that disappears between the ownership
// check and the delete is reported as NotFound.
func (s *PropertyService) Delete(ctx context.Context, actor *Actor, id uint) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	p, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanModify(p.OwnerID) {
		return models.NewForbiddenError("You can only delete your own listings")
	}

	if err := s.propertyRepo.Delete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, p.OwnerID)
	return nil
}

func validateProperty(p *models.Property) error {
	required := []struct{ field, value string }{
		{"title", p.Title},
		{"description", p.Description},
		{"propertyType", p.PropertyType},
		{"dealType", p.DealType},
		{"location", p.Location},
	}
	for _, r := range required {
		if r.value == "" {
			return models.NewValidationError(r.field + " is required")
		}
	}
	if p.Area <= 0 {
		return models.NewValidationError("area must be greater than zero")
	}
	for _, v := range []*float64{p.Price, p.RentPrice, p.DepositPrice} {
		if v != nil && *v < 0 {
			return models.NewValidationError("prices must not be negative")
		}
	}
	return nil
}

func applyPropertyPatch(p *models.Property, in PropertyPatch) {
	setTrimmed := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setTrimmed(&p.Title, in.Title)
	setTrimmed(&p.Description, in.Description)
	setTrimmed(&p.PropertyType, in.PropertyType)
	setTrimmed(&p.DealType, in.DealType)
	setTrimmed(&p.Location, in.Location)
	setTrimmed(&p.Status, in.Status)
	if p.Status == "" {
		p.Status = models.PropertyStatusActive
	}

	in.Price.apply(&p.Price)
	in.RentPrice.apply(&p.RentPrice)
	in.DepositPrice.apply(&p.DepositPrice)
	if in.Area != nil {
		p.Area = *in.Area
	}
	in.RoomCount.apply(&p.RoomCount)
	in.BathroomCount.apply(&p.BathroomCount)
	in.Floor.apply(&p.Floor)
	in.TotalFloors.apply(&p.TotalFloors)
	in.YearBuilt.apply(&p.YearBuilt)
	if in.Parking != nil {
		p.Parking = *in.Parking
	}
	if in.Elevator != nil {
		p.Elevator = *in.Elevator
	}
	if in.Storage != nil {
		p.Storage = *in.Storage
	}
	if in.Furnished != nil {
		p.Furnished = *in.Furnished
	}
	if in.Images != nil {
		p.Images = cleanImages(*in.Images)
	}
}

// cleanImages drops blank entries and keeps order.
func cleanImages(in []string) models.StringList {
	out := make(models.StringList, 0, len(in))
	for _, img := range in {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}
