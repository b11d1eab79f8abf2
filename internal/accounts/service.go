// Package accounts implements family member registration, login and profile management.
package accounts

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hotube/backend/internal/apperr"
	"github.com/hotube/backend/internal/auth"
	"github.com/hotube/backend/internal/logging"
	"github.com/hotube/backend/internal/models"
	"github.com/hotube/backend/internal/repositories"
)

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{3,20}$`)

// Service owns account rules. Returned users never carry a password hash.
type Service struct {
	users    repositories.UserRepository
	hashCost int
	now      func() time.Time
	newID    func() string
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashCost sets the bcrypt cost used for new hashes.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// NewService constructs an account service over the given repository.
func NewService(users repositories.UserRepository, opts ...Option) *Service {
	s := &Service{
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registration is the input to Register.
type Registration struct {
	UserID   string
	Name     string
	Title    string
	Category string
	Password string
}

// Register validates the registration rules in order and creates the account.
func (s *Service) Register(ctx context.Context, reg Registration) (models.User, error) {
	reg.UserID = strings.TrimSpace(reg.UserID)
	reg.Name = strings.TrimSpace(reg.Name)

	if reg.UserID == "" || reg.Name == "" || reg.Title == "" || reg.Category == "" || reg.Password == "" {
		return models.User{}, apperr.Validation("all fields are required")
	}
	if !userIDPattern.MatchString(reg.UserID) {
		return models.User{}, apperr.Validation("userId must be 3 to 20 letters or digits")
	}
	if err := validateTitleAndCategory(reg.Title, reg.Category); err != nil {
		return models.User{}, err
	}
	if err := auth.RegistrationPolicy.Check(reg.Password); err != nil {
		return models.User{}, apperr.Validation(auth.RegistrationPolicy.Message)
	}

	hash, err := auth.HashPassword(reg.Password, s.hashCost)
	if err != nil {
		return models.User{}, apperr.Internal("failed to secure password", err)
	}

	now := s.now()
	user := models.User{
		ID:            s.newID(),
		UserID:        reg.UserID,
		Name:          reg.Name,
		Title:         reg.Title,
		Category:      models.Category(reg.Category),
		Role:          models.RoleForTitle(reg.Title),
		PasswordHash:  hash,
		LikedVideos:   []string{},
		WatchedVideos: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("userId is already taken")
		}
		return models.User{}, apperr.Internal("failed to create account", err)
	}

	logging.FromContext(ctx).Info("account registered", "id", user.ID, "userId", user.UserID, "role", user.Role)
	return stripped(user), nil
}

// Login verifies credentials. Unknown handles and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, userID, password string) (models.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || password == "" {
		return models.User{}, apperr.Validation("userId and password are required")
	}

	user, err := s.users.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, errInvalidCredentials
		}
		return models.User{}, apperr.Internal("failed to sign in", err)
	}

	if !auth.ComparePassword(user.PasswordHash, password) {
		logging.FromContext(ctx).Warn("login password mismatch", "id", user.ID)
		return models.User{}, errInvalidCredentials
	}
	return stripped(user), nil
}

var errInvalidCredentials = apperr.Authentication("invalid userId or password")

// GetProfile returns the account with the given store id.
func (s *Service) GetProfile(ctx context.Context, id string) (models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	return stripped(user), nil
}

// ProfileUpdate is the input to UpdateProfile.
type ProfileUpdate struct {
	Name     string
	Title    string
	Category string
}

// UpdateProfile replaces name, title and category. The role stays as derived at registration.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (models.User, error) {
	upd.Name = strings.TrimSpace(upd.Name)
	if upd.Name == "" || upd.Title == "" || upd.Category == "" {
		return models.User{}, apperr.Validation("name, title and category are required")
	}
	if err := validateTitleAndCategory(upd.Title, upd.Category); err != nil {
		return models.User{}, err
	}

	user, err := s.users.UpdateProfile(ctx, id, upd.Name, upd.Title, models.Category(upd.Category), s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, errUserNotFound
		}
		return models.User{}, apperr.Internal("failed to update profile", err)
	}
	return stripped(user), nil
}

// ChangePassword verifies the current password and stores a hash of next.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	if current == "" || next == "" {
		return apperr.Validation("current and new passwords are required")
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !auth.ComparePassword(user.PasswordHash, current) {
		return apperr.Authentication("current password is incorrect")
	}
	if err := auth.ChangePasswordPolicy.Check(next); err != nil {
		return apperr.Validation(auth.ChangePasswordPolicy.Message)
	}

	hash, err := auth.HashPassword(next, s.hashCost)
	if err != nil {
		return apperr.Internal("failed to secure password", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash, s.now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errUserNotFound
		}
		return apperr.Internal("failed to change password", err)
	}
	return nil
}

// ToggleLike flips videoID in the liked set and reports the resulting membership.
func (s *Service) ToggleLike(ctx context.Context, id, videoID string) (bool, error) {
	if id == "" || videoID == "" {
		return false, apperr.Validation("userId and videoId are required")
	}
	liked, err := s.users.ToggleLike(ctx, id, videoID, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, errUserNotFound
		}
		return false, apperr.Internal("failed to update likes", err)
	}
	return liked, nil
}

// MarkWatched records videoID in the watched set.
func (s *Service) MarkWatched(ctx context.Context, id, videoID string) error {
	if id == "" || videoID == "" {
		return apperr.Validation("userId and videoId are required")
	}
	if err := s.users.AddWatched(ctx, id, videoID, s.now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errUserNotFound
		}
		return apperr.Internal("failed to record watch", err)
	}
	return nil
}

var errUserNotFound = apperr.NotFound("user not found")

func (s *Service) find(ctx context.Context, id string) (models.User, error) {
	if id == "" {
		return models.User{}, errUserNotFound
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, errUserNotFound
		}
		return models.User{}, apperr.Internal("failed to load user", err)
	}
	return user, nil
}

func validateTitleAndCategory(title, category string) error {
	if !models.ValidTitle(title) {
		return apperr.Validation("invalid title")
	}
	if !models.Category(category).Valid() {
		return apperr.Validation("invalid category")
	}
	return nil
}

func stripped(u models.User) models.User {
	u.PasswordHash = ""
	return u
}
