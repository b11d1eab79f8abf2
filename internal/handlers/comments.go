package handlers

import "net/http"

// CommentHandler serves the comment routes.
type CommentHandler struct {
	Comments CommentService
}

type createCommentRequest struct {
	VideoID string `json:"videoId"`
	UserID  string `json:"userId"`
	Content string `json:"content"`
}

type updateCommentRequest struct {
	UserID  string `json:"userId"`
	Content string `json:"content"`
}

// Create handles POST /comments.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Comments.Create(ctx, req.VideoID, req.UserID, req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newCommentResponse(comment))
}

// List handles GET /comments?videoId=&category=&role=.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	list, err := h.Comments.List(ctx, q.Get("videoId"), q.Get("category"), q.Get("role"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	out := make([]commentResponse, 0, len(list))
	for _, c := range list {
		out = append(out, newCommentResponse(c))
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

// Update handles PUT /comments/{id}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Comments.Update(ctx, r.PathValue("id"), req.UserID, req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newCommentResponse(comment))
}

// Delete handles DELETE /comments/{id}?userId=.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := h.Comments.Delete(ctx, id, r.URL.Query().Get("userId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, messageResponse{Message: "comment deleted", ID: id})
}
