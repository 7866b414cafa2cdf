package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/courseman/internal/model"
)

// PostgresQuizResultRepoはQuizResultRepositoryインターフェースを満たすことを検証
func TestPostgresQuizResultRepo_ImplementsInterface(t *testing.T) {
	var _ QuizResultRepository = (*PostgresQuizResultRepo)(nil)
}

// NewPostgresQuizResultRepoが正しく初期化されることを検証
func TestNewPostgresQuizResultRepo_Initializes(t *testing.T) {
	repo := NewPostgresQuizResultRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// QuizResultモデルのフィールドが正しく構築されることを検証
func TestPostgresQuizResultRepo_ResultModel_Fields(t *testing.T) {
	correct := true
	result := &model.QuizResult{
		ID:     "result-id-1",
		QuizID: "quiz-id-1",
		Answers: []model.Answer{
			{QuestionID: "q-1", SelectedOptions: []string{"選挙タイムアウト"}, IsCorrect: &correct},
		},
		Score:       100.0,
		IsPassed:    true,
		SubmittedAt: time.Now(),
	}

	if result.Score != 100.0 {
		t.Errorf("result.Score = %v, want 100.0", result.Score)
	}
	if !result.IsPassed {
		t.Error("result.IsPassed should be true")
	}
	if result.Answers[0].IsCorrect == nil || !*result.Answers[0].IsCorrect {
		t.Error("answer.IsCorrect should be true")
	}
}
