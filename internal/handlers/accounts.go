package handlers

import (
	"net/http"

	"github.com/hotube/backend/internal/accounts"
)

// AccountHandler serves registration, login, profile and like/watch routes.
type AccountHandler struct {
	Accounts AccountService
}

type registerRequest struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Password string `json:"password"`
}

type loginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type videoActionRequest struct {
	UserID  string `json:"userId"`
	VideoID string `json:"videoId"`
}

type likeResponse struct {
	Liked   bool   `json:"liked"`
	VideoID string `json:"videoId"`
}

type watchedResponse struct {
	Success bool   `json:"success"`
	VideoID string `json:"videoId"`
}

// Register handles POST /register.
func (h AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Accounts.Register(ctx, accounts.Registration{
		UserID:   req.UserID,
		Name:     req.Name,
		Title:    req.Title,
		Category: req.Category,
		Password: req.Password,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newUserResponse(user))
}

// Login handles POST /login.
func (h AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Accounts.Login(ctx, req.UserID, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponse(user))
}

// GetUser handles GET /users/{id}.
func (h AccountHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Accounts.GetProfile(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponse(user))
}

// UpdateUser handles PUT /users/{id}.
func (h AccountHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Accounts.UpdateProfile(ctx, r.PathValue("id"), accounts.ProfileUpdate{
		Name:     req.Name,
		Title:    req.Title,
		Category: req.Category,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponse(user))
}

// ChangePassword handles PUT /users/{id}/password.
func (h AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	id := r.PathValue("id")
	if err := h.Accounts.ChangePassword(ctx, id, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, messageResponse{Message: "password changed", ID: id})
}

// ToggleLike handles POST /likes.
func (h AccountHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req videoActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	liked, err := h.Accounts.ToggleLike(ctx, req.UserID, req.VideoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, likeResponse{Liked: liked, VideoID: req.VideoID})
}

// MarkWatched handles POST /watched.
func (h AccountHandler) MarkWatched(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req videoActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Accounts.MarkWatched(ctx, req.UserID, req.VideoID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, watchedResponse{Success: true, VideoID: req.VideoID})
}
