package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/courseman/internal/model"
)

// CourseServiceInterface はコースハンドラーが必要とするサービスインターフェース。
type CourseServiceInterface interface {
	// ListCourses は全コースの一覧を返す。
	ListCourses(ctx context.Context) ([]*model.Course, error)
	// GetCourse はコースを教材付きで取得する。
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	// CreateCourse はコースを作成する。
	CreateCourse(ctx context.Context, name, description string) (*model.Course, error)
	// UpdateCourse はコースを部分更新する。
	UpdateCourse(ctx context.Context, id string, name, description *string) (*model.Course, error)
	// DeleteCourse はコースを削除し、フィード購読者を切断する。
	DeleteCourse(ctx context.Context, id string) error
}

// CourseHandler はコース管理のHTTPハンドラー。
type CourseHandler struct {
	service CourseServiceInterface
}

// NewCourseHandler はCourseHandlerを生成する。
func NewCourseHandler(service CourseServiceInterface) *CourseHandler {
	return &CourseHandler{service: service}
}

// createCourseRequest はコース作成リクエストのボディ。
type createCourseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// updateCourseRequest はコース更新リクエストのボディ。nilのフィールドは変更しない。
type updateCourseRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// courseSummaryResponse はコース一覧用のレスポンス。教材は含まない。
type courseSummaryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// courseResponse はコース詳細のレスポンス。教材を含む。
type courseResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Materials   []model.Material `json:"materials"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ListCourses はコース一覧を取得する。
// GET /courses
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListCourses(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	summaries := make([]courseSummaryResponse, 0, len(courses))
	for _, c := range courses {
		summaries = append(summaries, toCourseSummaryResponse(c))
	}

	writeJSON(w, http.StatusOK, summaries)
}

// CreateCourse はコースを作成する。
// POST /courses
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	course, err := h.service.CreateCourse(r.Context(), req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCourseResponse(course))
}

// GetCourse はコース詳細を教材付きで取得する。
// GET /courses/{courseId}
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	course, err := h.service.GetCourse(r.Context(), courseID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCourseResponse(course))
}

// UpdateCourse はコースを部分更新する。
// PUT /courses/{courseId}
func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	var req updateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	course, err := h.service.UpdateCourse(r.Context(), courseID, req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCourseResponse(course))
}

// DeleteCourse はコースを削除する。
// DELETE /courses/{courseId}
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	if err := h.service.DeleteCourse(r.Context(), courseID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toCourseSummaryResponse はmodel.Courseから一覧用レスポンスに変換する。
func toCourseSummaryResponse(course *model.Course) courseSummaryResponse {
	return courseSummaryResponse{
		ID:          course.ID,
		Name:        course.Name,
		Description: course.Description,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}

// toCourseResponse はmodel.Courseから詳細レスポンスに変換する。
func toCourseResponse(course *model.Course) courseResponse {
	materials := course.Materials
	if materials == nil {
		materials = []model.Material{}
	}
	return courseResponse{
		ID:          course.ID,
		Name:        course.Name,
		Description: course.Description,
		Materials:   materials,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}
