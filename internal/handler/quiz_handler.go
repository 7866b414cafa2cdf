package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/courseman/internal/model"
	"github.com/hitoshi/courseman/internal/quiz"
)

// QuizServiceInterface はクイズハンドラーが必要とするサービスインターフェース。
type QuizServiceInterface interface {
	// ListQuizzes はコースのクイズ一覧を返す。
	ListQuizzes(ctx context.Context, courseID string) ([]*model.Quiz, error)
	// CreateQuiz はクイズを作成し、システムフィード投稿を追加する。
	CreateQuiz(ctx context.Context, courseID, title, description string, questions []model.Question) (*model.Quiz, error)
	// GetQuiz は正解を含むクイズの詳細を返す。
	GetQuiz(ctx context.Context, quizID string) (*model.Quiz, error)
	// GetQuizForTaking は正解を取り除いたクイズを返す。
	GetQuizForTaking(ctx context.Context, quizID string) (*model.Quiz, error)
	// UpdateQuiz はクイズを部分更新する。
	UpdateQuiz(ctx context.Context, quizID string, title, description *string, questions []model.Question) (*model.Quiz, error)
	// DeleteQuiz はクイズを削除する。
	DeleteQuiz(ctx context.Context, quizID string) error
	// UpdateQuestion は設問を1件置き換える。
	UpdateQuestion(ctx context.Context, quizID, questionID string, question model.Question) (*model.Question, error)
	// DeleteQuestion は設問を1件削除する。
	DeleteQuestion(ctx context.Context, quizID, questionID string) error
	// Submit は回答を採点して保存する。
	Submit(ctx context.Context, quizID string, answers []model.Answer) (*model.QuizResult, *model.Quiz, error)
	// Results は提出結果の一覧と集計を返す。
	Results(ctx context.Context, quizID string) (*quiz.ResultsSummary, error)
}

// QuizHandler はクイズ管理のHTTPハンドラー。
type QuizHandler struct {
	service QuizServiceInterface
}

// NewQuizHandler はQuizHandlerを生成する。
func NewQuizHandler(service QuizServiceInterface) *QuizHandler {
	return &QuizHandler{service: service}
}

// createQuizRequest はクイズ作成リクエストのボディ。
type createQuizRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Questions   []model.Question `json:"questions"`
}

// updateQuizRequest はクイズ更新リクエストのボディ。nilのフィールドは変更しない。
type updateQuizRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Questions   []model.Question `json:"questions"`
}

// submitRequest はクイズ提出リクエストのボディ。
type submitRequest struct {
	Answers []model.Answer `json:"answers"`
}

// quizResponse はクイズのレスポンス。詳細ビューでは正解を含み、
// 受験ビューではサービス層が正解を取り除いている。
type quizResponse struct {
	ID            string           `json:"id"`
	CourseID      string           `json:"courseId"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Questions     []model.Question `json:"questions"`
	AttemptsCount int              `json:"attemptsCount"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// quizResultResponse は採点済み結果のレスポンス。
type quizResultResponse struct {
	ID          string         `json:"id"`
	QuizID      string         `json:"quizId"`
	Answers     []model.Answer `json:"answers"`
	Score       float64        `json:"score"`
	IsPassed    bool           `json:"isPassed"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

// gradedResultResponse は提出直後のレスポンス。
// 採点結果に加えて、正解を含む設問一覧をレビュー用に返す。
type gradedResultResponse struct {
	quizResultResponse
	Questions []model.Question `json:"questions"`
}

// resultsSummaryResponse は提出結果一覧と集計のレスポンス。
type resultsSummaryResponse struct {
	TotalAttempts int                  `json:"totalAttempts"`
	AverageScore  float64              `json:"averageScore"`
	Results       []quizResultResponse `json:"results"`
}

// ListQuizzes はコースのクイズ一覧を取得する。
// GET /courses/{courseId}/quizzes
func (h *QuizHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	quizzes, err := h.service.ListQuizzes(r.Context(), courseID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]quizResponse, 0, len(quizzes))
	for _, q := range quizzes {
		responses = append(responses, toQuizResponse(q))
	}

	writeJSON(w, http.StatusOK, responses)
}

// CreateQuiz はクイズを作成する。
// POST /courses/{courseId}/quizzes
func (h *QuizHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.CreateQuiz(r.Context(), courseID, req.Title, req.Description, req.Questions)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toQuizResponse(created))
}

// GetQuizDetail は正解を含むクイズの詳細を取得する。講師向け。
// GET /quizzes/{quizId}/detail
func (h *QuizHandler) GetQuizDetail(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")

	q, err := h.service.GetQuiz(r.Context(), quizID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toQuizResponse(q))
}

// GetQuizForTaking は正解を取り除いたクイズを取得する。受験者向け。
// GET /quizzes/{quizId}/take
func (h *QuizHandler) GetQuizForTaking(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")

	q, err := h.service.GetQuizForTaking(r.Context(), quizID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toQuizResponse(q))
}

// UpdateQuiz はクイズを部分更新する。
// PUT /quizzes/{quizId}
func (h *QuizHandler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")

	var req updateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.UpdateQuiz(r.Context(), quizID, req.Title, req.Description, req.Questions)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toQuizResponse(updated))
}

// DeleteQuiz はクイズを削除する。
// DELETE /quizzes/{quizId}
func (h *QuizHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")

	if err := h.service.DeleteQuiz(r.Context(), quizID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateQuestion は設問を1件置き換える。
// PUT /quizzes/{quizId}/questions/{questionId}
func (h *QuizHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")
	questionID := chi.URLParam(r, "questionId")

	var req model.Question
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.UpdateQuestion(r.Context(), quizID, questionID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteQuestion は設問を1件削除する。
// DELETE /quizzes/{quizId}/questions/{questionId}
func (h *QuizHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")
	questionID := chi.URLParam(r, "questionId")

	if err := h.service.DeleteQuestion(r.Context(), quizID, questionID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Submit は回答を採点して保存する。
// POST /quizzes/{quizId}/submit
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	result, reviewQuiz, err := h.service.Submit(r.Context(), quizID, req.Answers)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, gradedResultResponse{
		quizResultResponse: toQuizResultResponse(result),
		Questions:          reviewQuiz.Questions,
	})
}

// Results は提出結果の一覧と集計を取得する。
// GET /quizzes/{quizId}/results
func (h *QuizHandler) Results(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")

	summary, err := h.service.Results(r.Context(), quizID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]quizResultResponse, 0, len(summary.Results))
	for _, res := range summary.Results {
		results = append(results, toQuizResultResponse(res))
	}

	writeJSON(w, http.StatusOK, resultsSummaryResponse{
		TotalAttempts: summary.TotalAttempts,
		AverageScore:  summary.AverageScore,
		Results:       results,
	})
}

// toQuizResponse はmodel.QuizからAPIレスポンスに変換する。
func toQuizResponse(q *model.Quiz) quizResponse {
	questions := q.Questions
	if questions == nil {
		questions = []model.Question{}
	}
	return quizResponse{
		ID:            q.ID,
		CourseID:      q.CourseID,
		Title:         q.Title,
		Description:   q.Description,
		Questions:     questions,
		AttemptsCount: q.AttemptsCount,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

// toQuizResultResponse はmodel.QuizResultからAPIレスポンスに変換する。
func toQuizResultResponse(result *model.QuizResult) quizResultResponse {
	answers := result.Answers
	if answers == nil {
		answers = []model.Answer{}
	}
	return quizResultResponse{
		ID:          result.ID,
		QuizID:      result.QuizID,
		Answers:     answers,
		Score:       result.Score,
		IsPassed:    result.IsPassed,
		SubmittedAt: result.SubmittedAt,
	}
}
