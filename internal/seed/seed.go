// Package seed fills a development database with demo users, listings and
// posts. It is intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"homestead/internal/cache"
	"homestead/internal/middleware"
	"homestead/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password123"

// Options sizes a seeding run.
type Options struct {
	Users             int
	PropertiesPerUser int
	PostsPerUser      int
	// Seed makes the generated data reproducible. Zero picks a random seed.
	Seed int64
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Summary counts what a run created.
type Summary struct {
	Users      int
	Properties int
	Posts      int
}

var (
	propertyTypes = []string{"apartment", "villa", "land", "office", "shop"}
	dealTypes     = []string{"sale", "rent"}
	statuses      = []string{"active", "active", "active", "sold", "inactive"}
	categories    = []string{"market", "guides", "news", "design", "finance"}
	cities        = []string{"Tehran", "Shiraz", "Isfahan", "Tabriz", "Mashhad", "Rasht", "Karaj"}
)

// Seeder writes demo data through GORM.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	now   func() time.Time
}

func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	return &Seeder{db: db, faker: gofakeit.New(seed), now: time.Now}
}

// ClearAll removes every post, listing and user.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&models.Post{}, &models.Property{}, &models.User{}} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	cache.InvalidatePublishedPosts(ctx)
	middleware.Logger.InfoContext(ctx, "seed data cleared")
	return nil
}

// Run creates opts.Users users, each owning listings and posts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	hashed := string(hash)

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		users = append(users, s.buildUser(i, hashed))
	}
	if len(users) == 0 {
		return &Summary{}, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}

	var props []*models.Property
	var posts []*models.Post
	for _, u := range users {
		for j := 0; j < opts.PropertiesPerUser; j++ {
			props = append(props, s.buildProperty(u.ID))
		}
		for j := 0; j < opts.PostsPerUser; j++ {
			posts = append(posts, s.buildPost(u.ID))
		}
	}
	if len(props) > 0 {
		if err := s.db.WithContext(ctx).CreateInBatches(props, 100).Error; err != nil {
			return nil, fmt.Errorf("create properties: %w", err)
		}
	}
	if len(posts) > 0 {
		if err := s.db.WithContext(ctx).CreateInBatches(posts, 100).Error; err != nil {
			return nil, fmt.Errorf("create posts: %w", err)
		}
	}
	cache.InvalidatePublishedPosts(ctx)

	sum := &Summary{Users: len(users), Properties: len(props), Posts: len(posts)}
	middleware.Logger.InfoContext(ctx, "seed data created",
		"users", sum.Users, "properties", sum.Properties, "posts", sum.Posts)
	return sum, nil
}

func (s *Seeder) buildUser(i int, hashed string) *models.User {
	f := s.faker
	name := f.Name()
	bio := f.Sentence(12)
	// Index-derived so the unique columns never collide within a run.
	phone := fmt.Sprintf("0912%07d", i)
	email := fmt.Sprintf("%s.%d@homestead.local", strings.ToLower(f.Username()), i)
	return &models.User{
		Name:       &name,
		Email:      email,
		Password:   &hashed,
		Phone:      &phone,
		Bio:        &bio,
		IsVerified: f.Bool(),
		Role:       models.RoleUser,
		CreatedAt:  s.pastTime(180),
	}
}

func (s *Seeder) buildProperty(ownerID uint) *models.Property {
	f := s.faker
	city := f.RandomString(cities)
	kind := f.RandomString(propertyTypes)
	deal := f.RandomString(dealTypes)

	p := &models.Property{
		Title:        fmt.Sprintf("%s %s in %s", capitalize(f.AdjectiveDescriptive()), kind, city),
		Description:  f.Paragraph(1, 3, 12, " "),
		PropertyType: kind,
		DealType:     deal,
		Area:         float64(f.Number(40, 400)),
		Parking:      f.Bool(),
		Elevator:     f.Bool(),
		Storage:      f.Bool(),
		Furnished:    f.Bool(),
		Status:       f.RandomString(statuses),
		Location:     city + ", " + f.Street(),
		OwnerID:      ownerID,
		CreatedAt:    s.pastTime(90),
	}
	if kind != "land" {
		rooms := f.Number(1, 5)
		baths := f.Number(1, 3)
		floors := f.Number(1, 12)
		floor := f.Number(0, floors)
		year := f.Number(1990, s.now().Year())
		p.RoomCount, p.BathroomCount, p.TotalFloors, p.Floor, p.YearBuilt = &rooms, &baths, &floors, &floor, &year
	}
	if deal == "sale" {
		price := float64(f.Number(2, 80)) * 1e9
		p.Price = &price
	} else {
		rent := float64(f.Number(5, 90)) * 1e6
		deposit := rent * 10
		p.RentPrice, p.DepositPrice = &rent, &deposit
	}

	n := f.Number(1, 4)
	p.Images = make(models.StringList, 0, n)
	for i := 0; i < n; i++ {
		p.Images = append(p.Images, fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", f.UUID()))
	}
	return p
}

func (s *Seeder) buildPost(authorID uint) *models.Post {
	f := s.faker
	category := f.RandomString(categories)
	post := &models.Post{
		Title:     strings.TrimSuffix(f.Sentence(6), "."),
		Content:   f.Paragraph(2, 4, 14, "\n\n"),
		Category:  &category,
		Published: f.Number(1, 10) <= 7,
		AuthorID:  authorID,
		CreatedAt: s.pastTime(60),
	}
	if f.Bool() {
		img := fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.UUID())
		post.ImageURL = &img
	}
	return post
}

// pastTime spreads creation times over the last maxDays days.
func (s *Seeder) pastTime(maxDays int) time.Time {
	back := time.Duration(s.faker.Number(0, maxDays*24*60)) * time.Minute
	return s.now().Add(-back)
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
