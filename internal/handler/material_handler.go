package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/courseman/internal/material"
	"github.com/hitoshi/courseman/internal/model"
)

// MaterialServiceInterface は教材ハンドラーが必要とするサービスインターフェース。
type MaterialServiceInterface interface {
	// ListMaterials はコースの教材一覧を返す。
	ListMaterials(ctx context.Context, courseID string) ([]model.Material, error)
	// CreateMaterial は教材を作成し、システムフィード投稿を追加する。
	CreateMaterial(ctx context.Context, courseID string, input material.CreateMaterialInput) (*model.Material, error)
	// UpdateMaterial は教材を部分更新する。
	UpdateMaterial(ctx context.Context, courseID, materialID string, input material.UpdateMaterialInput) (*model.Material, error)
	// DeleteMaterial は教材を削除する。
	DeleteMaterial(ctx context.Context, courseID, materialID string) error
}

// MaterialHandler は教材管理のHTTPハンドラー。
type MaterialHandler struct {
	service MaterialServiceInterface
}

// NewMaterialHandler はMaterialHandlerを生成する。
func NewMaterialHandler(service MaterialServiceInterface) *MaterialHandler {
	return &MaterialHandler{service: service}
}

// createMaterialRequest は教材作成リクエストのボディ。
type createMaterialRequest struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	FileURL     string `json:"fileUrl"`
	MimeType    string `json:"mimeType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// updateMaterialRequest は教材更新リクエストのボディ。nilのフィールドは変更しない。
type updateMaterialRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
}

// ListMaterials はコースの教材一覧を取得する。
// GET /courses/{courseId}/materials
func (h *MaterialHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	materials, err := h.service.ListMaterials(r.Context(), courseID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, materials)
}

// CreateMaterial は教材を作成する。
// POST /courses/{courseId}/materials
func (h *MaterialHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	var req createMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.CreateMaterial(r.Context(), courseID, material.CreateMaterialInput{
		Type:        model.MaterialType(req.Type),
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
		FileURL:     req.FileURL,
		MimeType:    req.MimeType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// UpdateMaterial は教材を部分更新する。
// PUT /courses/{courseId}/materials/{materialId}
func (h *MaterialHandler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	materialID := chi.URLParam(r, "materialId")

	var req updateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.UpdateMaterial(r.Context(), courseID, materialID, material.UpdateMaterialInput{
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteMaterial は教材を削除する。
// DELETE /courses/{courseId}/materials/{materialId}
func (h *MaterialHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	materialID := chi.URLParam(r, "materialId")

	if err := h.service.DeleteMaterial(r.Context(), courseID, materialID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
