package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/courseman/internal/feed"
	"github.com/hitoshi/courseman/internal/model"
)

// FeedServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	// ListPosts はコースのフィード投稿を新しい順で返す。
	ListPosts(ctx context.Context, courseID string) ([]*model.FeedPost, error)
	// CreatePost は講師の手動投稿を作成し、購読者に配信する。
	CreatePost(ctx context.Context, courseID, message string) (*model.FeedPost, error)
	// EditPost は投稿の本文を更新し、購読者に配信する。
	EditPost(ctx context.Context, courseID, postID, message string) (*model.FeedPost, error)
	// DeletePost は投稿を削除し、購読者に配信する。
	DeletePost(ctx context.Context, courseID, postID string) error
}

// FeedHandler はコースフィードのHTTPハンドラー。
// SSEストリームはStreamHandlerが別途担当する。
type FeedHandler struct {
	service FeedServiceInterface
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface) *FeedHandler {
	return &FeedHandler{service: service}
}

// postMessageRequest は投稿作成・編集リクエストのボディ。
type postMessageRequest struct {
	Message string `json:"message"`
}

// ListPosts はコースのフィード投稿一覧を新しい順で取得する。
// GET /courses/{courseId}/feed
func (h *FeedHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	posts, err := h.service.ListPosts(r.Context(), courseID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	payloads := make([]feed.PostPayload, 0, len(posts))
	for _, post := range posts {
		payloads = append(payloads, feed.NewPostPayload(post))
	}

	writeJSON(w, http.StatusOK, payloads)
}

// CreatePost は講師の手動投稿を作成する。
// POST /courses/{courseId}/feed
func (h *FeedHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	post, err := h.service.CreatePost(r.Context(), courseID, req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, feed.NewPostPayload(post))
}

// EditPost は投稿の本文を更新する。
// PUT /courses/{courseId}/feed/{postId}
func (h *FeedHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	postID := chi.URLParam(r, "postId")

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	post, err := h.service.EditPost(r.Context(), courseID, postID, req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, feed.NewPostPayload(post))
}

// DeletePost は投稿を削除する。
// DELETE /courses/{courseId}/feed/{postId}
func (h *FeedHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	postID := chi.URLParam(r, "postId")

	if err := h.service.DeletePost(r.Context(), courseID, postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
