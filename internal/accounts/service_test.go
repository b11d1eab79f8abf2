package accounts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hotube/backend/internal/apperr"
	"github.com/hotube/backend/internal/models"
	"github.com/hotube/backend/internal/repositories"
)

func newTestService(t *testing.T) (*Service, *repositories.MemoryUserRepository) {
	t.Helper()
	users := repositories.NewMemoryStore().Users()
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(users, WithHashCost(bcrypt.MinCost), WithClock(func() time.Time { return fixed }))
	return svc, users
}

func validRegistration() Registration {
	return Registration{UserID: "gomo", Name: "고모", Title: "고모", Category: "dad", Password: "abcd123!"}
}

func TestRegister(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.CategoryDad, user.Category)
	assert.Empty(t, user.PasswordHash)
	assert.Empty(t, user.LikedVideos)
	assert.NotNil(t, user.LikedVideos)

	stored, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("abcd123!")))

	_, err = svc.Register(ctx, validRegistration())
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestRegisterDerivesRole(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg := validRegistration()
	reg.UserID, reg.Title = "dad", "아빠"
	admin, err := svc.Register(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	reg.UserID, reg.Title = "suho", "수호"
	sub, err := svc.Register(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSubAdmin, sub.Role)
}

func TestRegisterValidationOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Registration)
		want   string
	}{
		{"missing name", func(r *Registration) { r.Name = "" }, "all fields are required"},
		{"bad userId before bad title", func(r *Registration) { r.UserID = "ab"; r.Title = "삼촌" }, "userId must be 3 to 20 letters or digits"},
		{"userId with symbols", func(r *Registration) { r.UserID = "go-mo" }, "userId must be 3 to 20 letters or digits"},
		{"bad title before bad category", func(r *Registration) { r.Title = "삼촌"; r.Category = "aunt" }, "invalid title"},
		{"bad category before weak password", func(r *Registration) { r.Category = "aunt"; r.Password = "x" }, "invalid category"},
		{"weak password", func(r *Registration) { r.Password = "abcdefg1" }, "password must be 8 characters to 72 bytes long and include a letter, a digit and a special character"},
		{"password longer than bcrypt accepts", func(r *Registration) { r.Password = "Abcdef1!" + strings.Repeat("x", 80) }, "password must be 8 characters to 72 bytes long and include a letter, a digit and a special character"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := validRegistration()
			tc.mutate(&reg)
			_, err := svc.Register(ctx, reg)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tc.want, apperr.Message(err))
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	user, err := svc.Login(ctx, "gomo", "abcd123!")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	_, wrongPassword := svc.Login(ctx, "gomo", "abcd123?")
	_, unknownUser := svc.Login(ctx, "nobody", "abcd123!")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(wrongPassword))
	assert.Equal(t, apperr.Message(wrongPassword), apperr.Message(unknownUser))

	_, err = svc.Login(ctx, "", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Name: "큰고모", Title: "고모", Category: "dad"})
	require.NoError(t, err)
	assert.Equal(t, "큰고모", updated.Name)
	assert.Equal(t, models.RoleUser, updated.Role)

	_, err = svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Name: "x", Title: "삼촌", Category: "dad"})
	assert.Equal(t, "invalid title", apperr.Message(err))

	_, err = svc.UpdateProfile(ctx, "missing", ProfileUpdate{Name: "x", Title: "고모", Category: "dad"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong!", "next1!")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	err = svc.ChangePassword(ctx, user.ID, "abcd123!", "abc!")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	err = svc.ChangePassword(ctx, user.ID, "abcd123!", "Abcdef1!"+strings.Repeat("x", 80))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "abcd123!", "12345!"))

	_, err = svc.Login(ctx, "gomo", "12345!")
	assert.NoError(t, err)

	err = svc.ChangePassword(ctx, "missing", "a", "b")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestToggleLikeAndMarkWatched(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, user.ID, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.ToggleLike(ctx, user.ID, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, svc.MarkWatched(ctx, user.ID, "dQw4w9WgXcQ"))
	require.NoError(t, svc.MarkWatched(ctx, user.ID, "dQw4w9WgXcQ"))

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"dQw4w9WgXcQ"}, profile.WatchedVideos)
	assert.Empty(t, profile.LikedVideos)

	_, err = svc.ToggleLike(ctx, "missing", "dQw4w9WgXcQ")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = svc.MarkWatched(ctx, user.ID, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
