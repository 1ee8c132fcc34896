// Package seed fills a database with fake users, screams, comments and likes.
// Everything goes through the identity provider and the store, so the triggers see the
// same change events real traffic produces.
package seed

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/zfogg/screams/backend/internal/auth"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/models"
	"github.com/zfogg/screams/backend/internal/repository"
	"github.com/zfogg/screams/backend/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultPassword is set on every seeded account
const DefaultPassword = "password123"

// Counts controls how much SeedDev creates
type Counts struct {
	Users    int
	Screams  int
	Comments int
	Likes    int
}

// DevCounts is the development data set
var DevCounts = Counts{Users: 25, Screams: 120, Comments: 300, Likes: 500}

// Seeder handles database seeding operations
type Seeder struct {
	store        *repository.Store
	auth         auth.Provider
	imageBaseURL string
}

// NewSeeder creates a new seeder instance
func NewSeeder(store *repository.Store, provider auth.Provider, imageBaseURL string) *Seeder {
	_ = gofakeit.Seed(0)
	return &Seeder{store: store, auth: provider, imageBaseURL: imageBaseURL}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(ctx context.Context, counts Counts) error {
	logger.Log.Info("Creating users...", zap.Int("count", counts.Users))
	users, err := s.seedUsers(ctx, counts.Users)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating screams...", zap.Int("count", counts.Screams))
	screams, err := s.seedScreams(ctx, users, counts.Screams)
	if err != nil {
		return fmt.Errorf("failed to seed screams: %w", err)
	}

	logger.Log.Info("Creating comments...", zap.Int("count", counts.Comments))
	if err := s.seedComments(ctx, users, screams, counts.Comments); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("Creating likes...", zap.Int("count", counts.Likes))
	if err := s.seedLikes(ctx, users, screams, counts.Likes); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	return nil
}

// SeedTest creates a small fixed data set: three users, one scream each, and a like and
// a comment on alice's scream.
func (s *Seeder) SeedTest(ctx context.Context) error {
	var users []models.User
	for _, handle := range []string{"alice", "bob", "charlie"} {
		user, err := s.createUser(ctx, handle, handle+"@example.com")
		if stderrors.Is(err, auth.ErrEmailInUse) {
			existing, getErr := s.store.GetUser(ctx, handle)
			if getErr != nil {
				return getErr
			}
			users = append(users, *existing)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", handle, err)
		}
		users = append(users, *user)
	}

	var screams []models.Scream
	for _, u := range users {
		scream, err := s.createScream(ctx, u, fmt.Sprintf("Hello from %s", u.Handle))
		if err != nil {
			return err
		}
		screams = append(screams, *scream)
	}

	if _, err := s.store.LikeScream(ctx, "bob", screams[0].ID); err != nil && !stderrors.Is(err, repository.ErrAlreadyLiked) {
		return err
	}
	_, err := s.store.AddComment(ctx, &models.Comment{
		ScreamID:   screams[0].ID,
		UserHandle: users[2].Handle,
		Body:       "Nice scream",
		UserImage:  users[2].ImageURL,
	})
	return err
}

func (s *Seeder) seedUsers(ctx context.Context, count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	for len(users) < count {
		handle := gofakeit.Username()
		if taken, err := s.store.HandleExists(ctx, handle); err != nil {
			return nil, err
		} else if taken {
			continue
		}

		user, err := s.createUser(ctx, handle, gofakeit.Email())
		if stderrors.Is(err, auth.ErrEmailInUse) {
			continue
		}
		if err != nil {
			return nil, err
		}

		details := models.UserDetails{
			Bio:      gofakeit.HipsterSentence(),
			Location: fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
		}
		if rand.Float32() < 0.5 {
			details.Website = "https://" + gofakeit.DomainName()
		}
		if updated, err := s.store.UpdateUserDetails(ctx, handle, details); err == nil {
			user = updated
		}

		users = append(users, *user)
	}
	return users, nil
}

func (s *Seeder) createUser(ctx context.Context, handle, email string) (*models.User, error) {
	identity, err := s.auth.CreateAccount(ctx, email, DefaultPassword)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Handle:     handle,
		UserID:     identity.UID,
		Email:      identity.Email,
		ImageURL:   storage.DefaultImageURL(s.imageBaseURL),
		IsVerified: rand.Float32() < 0.2,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		_ = s.auth.DeleteAccount(ctx, identity.UID)
		return nil, err
	}
	return user, nil
}

func (s *Seeder) seedScreams(ctx context.Context, users []models.User, count int) ([]models.Scream, error) {
	screams := make([]models.Scream, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		scream, err := s.createScream(ctx, author, gofakeit.HipsterSentence())
		if err != nil {
			return nil, err
		}
		screams = append(screams, *scream)
	}
	return screams, nil
}

func (s *Seeder) createScream(ctx context.Context, author models.User, body string) (*models.Scream, error) {
	scream := &models.Scream{
		UserHandle:     author.Handle,
		Body:           body,
		UserImage:      author.ImageURL,
		IsVerifiedUser: author.IsVerified,
		CreatedAt:      gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now()),
	}
	if err := s.store.CreateScream(ctx, scream); err != nil {
		return nil, err
	}
	return scream, nil
}

func (s *Seeder) seedComments(ctx context.Context, users []models.User, screams []models.Scream, count int) error {
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		scream := screams[rand.Intn(len(screams))]
		_, err := s.store.AddComment(ctx, &models.Comment{
			ScreamID:   scream.ID,
			UserHandle: author.Handle,
			Body:       gofakeit.Sentence(8),
			UserImage:  author.ImageURL,
			IsVerified: author.IsVerified,
			CreatedAt:  gofakeit.DateRange(scream.CreatedAt, time.Now()),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedLikes(ctx context.Context, users []models.User, screams []models.Scream, count int) error {
	// Bounded by the number of distinct pairs
	if max := len(users) * len(screams); count > max {
		count = max
	}
	for created := 0; created < count; {
		handle := users[rand.Intn(len(users))].Handle
		scream := screams[rand.Intn(len(screams))]
		_, err := s.store.LikeScream(ctx, handle, scream.ID)
		if stderrors.Is(err, repository.ErrAlreadyLiked) {
			continue
		}
		if err != nil {
			return err
		}
		created++
	}
	return nil
}

// Clean removes every document, identity and action token
func (s *Seeder) Clean(ctx context.Context) error {
	db := s.store.DB().WithContext(ctx)
	tables := []any{
		&models.Notification{},
		&models.Like{},
		&models.Comment{},
		&models.Scream{},
		&models.User{},
		&models.ActionToken{},
		&models.Identity{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return fmt.Errorf("failed to clean %T: %w", table, err)
		}
	}
	return nil
}
