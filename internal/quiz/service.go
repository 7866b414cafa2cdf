// Package quiz はクイズのドメインロジック（CRUD・採点・集計）を提供する。
package quiz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/courseman/internal/model"
	"github.com/hitoshi/courseman/internal/repository"
)

// CourseExistenceChecker はコースの存在確認のみを必要とする依存。
type CourseExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// FeedEventRecorder はクイズ作成時のシステムフィード投稿を行う依存。
type FeedEventRecorder interface {
	RecordAutoEvent(ctx context.Context, courseID, message string)
}

// Sanitizer はクライアント入力テキストのサニタイズを行う依存。
type Sanitizer interface {
	Sanitize(raw string) string
}

// ResultsSummary はクイズの提出結果と集計値。
type ResultsSummary struct {
	TotalAttempts int                 `json:"totalAttempts"`
	AverageScore  float64             `json:"averageScore"`
	Results       []*model.QuizResult `json:"results"`
}

// QuizService はクイズ操作のインターフェース。
type QuizService interface {
	// ListQuizzes はコースのクイズ一覧を新しい順で返す。
	ListQuizzes(ctx context.Context, courseID string) ([]*model.Quiz, error)

	// CreateQuiz はクイズを作成し、システムフィード投稿を追加する。
	CreateQuiz(ctx context.Context, courseID, title, description string, questions []model.Question) (*model.Quiz, error)

	// GetQuiz は正解を含むクイズの詳細を返す。講師向け。
	GetQuiz(ctx context.Context, quizID string) (*model.Quiz, error)

	// GetQuizForTaking は正解を取り除いたクイズを返す。受験者向け。
	GetQuizForTaking(ctx context.Context, quizID string) (*model.Quiz, error)

	// UpdateQuiz はクイズを部分更新する。questionsがnilでない場合は丸ごと置き換える。
	UpdateQuiz(ctx context.Context, quizID string, title, description *string, questions []model.Question) (*model.Quiz, error)

	// DeleteQuiz はクイズを削除する。
	DeleteQuiz(ctx context.Context, quizID string) error

	// UpdateQuestion は設問を1件置き換える。IDは維持される。
	UpdateQuestion(ctx context.Context, quizID, questionID string, question model.Question) (*model.Question, error)

	// DeleteQuestion は設問を1件削除する。
	DeleteQuestion(ctx context.Context, quizID, questionID string) error

	// Submit は回答を採点して保存し、提出回数を増やす。
	// 採点済み結果と正解を含むクイズ（レビュー用）を返す。
	Submit(ctx context.Context, quizID string, answers []model.Answer) (*model.QuizResult, *model.Quiz, error)

	// Results は提出結果の一覧と集計（提出回数・平均スコア）を返す。
	Results(ctx context.Context, quizID string) (*ResultsSummary, error)
}

// Service はQuizServiceの実装。
type Service struct {
	courses   CourseExistenceChecker
	quizzes   repository.QuizRepository
	results   repository.QuizResultRepository
	feed      FeedEventRecorder
	sanitizer Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	courses CourseExistenceChecker,
	quizzes repository.QuizRepository,
	results repository.QuizResultRepository,
	feed FeedEventRecorder,
	sanitizer Sanitizer,
) *Service {
	return &Service{
		courses:   courses,
		quizzes:   quizzes,
		results:   results,
		feed:      feed,
		sanitizer: sanitizer,
	}
}

// ListQuizzes はコースのクイズ一覧を新しい順で返す。
func (s *Service) ListQuizzes(ctx context.Context, courseID string) ([]*model.Quiz, error) {
	exists, err := s.courses.Exists(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("コースの存在確認に失敗しました: %w", err)
	}
	if !exists {
		return nil, model.NewCourseNotFoundError(courseID)
	}

	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if quizzes == nil {
		quizzes = []*model.Quiz{}
	}
	return quizzes, nil
}

// CreateQuiz はクイズを作成し、システムフィード投稿を追加する。
// フィード投稿の失敗はクイズ作成を失敗させない。
func (s *Service) CreateQuiz(ctx context.Context, courseID, title, description string, questions []model.Question) (*model.Quiz, error) {
	title = s.sanitizer.Sanitize(title)
	if title == "" {
		return nil, model.NewTitleRequiredError()
	}

	exists, err := s.courses.Exists(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("コースの存在確認に失敗しました: %w", err)
	}
	if !exists {
		return nil, model.NewCourseNotFoundError(courseID)
	}

	prepared, err := s.prepareQuestions(questions)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	quiz := &model.Quiz{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		Title:       title,
		Description: s.sanitizer.Sanitize(description),
		Questions:   prepared,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, err
	}

	s.feed.RecordAutoEvent(ctx, courseID, fmt.Sprintf("New quiz: %q", quiz.Title))
	return quiz, nil
}

// GetQuiz は正解を含むクイズの詳細を返す。
func (s *Service) GetQuiz(ctx context.Context, quizID string) (*model.Quiz, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, model.NewQuizNotFoundError(quizID)
	}
	return quiz, nil
}

// GetQuizForTaking は正解を取り除いたクイズを返す。
// 設問のcorrectAnswersはnilになり、JSONには現れない。
func (s *Service) GetQuizForTaking(ctx context.Context, quizID string) (*model.Quiz, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	stripped := *quiz
	stripped.Questions = make([]model.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.CorrectAnswers = nil
		stripped.Questions[i] = q
	}
	return &stripped, nil
}

// UpdateQuiz はクイズを部分更新する。
func (s *Service) UpdateQuiz(ctx context.Context, quizID string, title, description *string, questions []model.Question) (*model.Quiz, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if title != nil {
		sanitized := s.sanitizer.Sanitize(*title)
		if sanitized == "" {
			return nil, model.NewTitleRequiredError()
		}
		quiz.Title = sanitized
	}
	if description != nil {
		quiz.Description = s.sanitizer.Sanitize(*description)
	}
	if questions != nil {
		prepared, err := s.prepareQuestions(questions)
		if err != nil {
			return nil, err
		}
		quiz.Questions = prepared
	}
	quiz.UpdatedAt = time.Now()

	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// DeleteQuiz はクイズを削除する。
func (s *Service) DeleteQuiz(ctx context.Context, quizID string) error {
	if _, err := s.GetQuiz(ctx, quizID); err != nil {
		return err
	}
	return s.quizzes.DeleteByID(ctx, quizID)
}

// UpdateQuestion は設問を1件置き換える。
func (s *Service) UpdateQuestion(ctx context.Context, quizID, questionID string, question model.Question) (*model.Question, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	idx := findQuestion(quiz.Questions, questionID)
	if idx < 0 {
		return nil, model.NewQuestionNotFoundError(questionID)
	}

	question.ID = questionID
	question.Text = s.sanitizer.Sanitize(question.Text)
	if err := validateQuestion(question); err != nil {
		return nil, err
	}

	quiz.Questions[idx] = question
	quiz.UpdatedAt = time.Now()

	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return nil, err
	}
	return &quiz.Questions[idx], nil
}

// DeleteQuestion は設問を1件削除する。
func (s *Service) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}

	idx := findQuestion(quiz.Questions, questionID)
	if idx < 0 {
		return model.NewQuestionNotFoundError(questionID)
	}

	quiz.Questions = append(quiz.Questions[:idx], quiz.Questions[idx+1:]...)
	quiz.UpdatedAt = time.Now()

	return s.quizzes.Update(ctx, quiz)
}

// Submit は回答を採点して保存し、提出回数を増やす。
// スコアは正答数/設問数のパーセント値。PassingScore以上で合格。
func (s *Service) Submit(ctx context.Context, quizID string, answers []model.Answer) (*model.QuizResult, *model.Quiz, error) {
	if answers == nil {
		return nil, nil, model.NewInvalidAnswersError()
	}

	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, nil, model.NewInvalidAnswersError()
	}

	graded, correctCount := gradeAnswers(quiz.Questions, answers)
	score := float64(correctCount) / float64(len(quiz.Questions)) * 100

	result := &model.QuizResult{
		ID:          uuid.NewString(),
		QuizID:      quizID,
		Answers:     graded,
		Score:       score,
		IsPassed:    score >= model.PassingScore,
		SubmittedAt: time.Now(),
	}

	if err := s.results.Create(ctx, result); err != nil {
		return nil, nil, err
	}
	if err := s.quizzes.IncrementAttempts(ctx, quizID); err != nil {
		return nil, nil, err
	}

	return result, quiz, nil
}

// Results は提出結果の一覧と集計を返す。
func (s *Service) Results(ctx context.Context, quizID string) (*ResultsSummary, error) {
	if _, err := s.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}

	results, err := s.results.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []*model.QuizResult{}
	}

	summary := &ResultsSummary{
		TotalAttempts: len(results),
		Results:       results,
	}
	if len(results) > 0 {
		var total float64
		for _, r := range results {
			total += r.Score
		}
		summary.AverageScore = total / float64(len(results))
	}
	return summary, nil
}

// prepareQuestions は設問を検証し、ID未設定の設問にIDを割り当てる。
func (s *Service) prepareQuestions(questions []model.Question) ([]model.Question, error) {
	prepared := make([]model.Question, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.Text = s.sanitizer.Sanitize(q.Text)
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
		prepared[i] = q
	}
	return prepared, nil
}

// validateQuestion は設問の構造を検証する。
func validateQuestion(q model.Question) error {
	if q.Type != model.QuestionTypeSingle && q.Type != model.QuestionTypeMultiple {
		return model.NewInvalidQuestionError(fmt.Sprintf("未知のtype: %s", q.Type))
	}
	if q.Text == "" {
		return model.NewInvalidQuestionError("textは必須です")
	}
	if len(q.Options) < 2 {
		return model.NewInvalidQuestionError("optionsは2件以上必要です")
	}
	if len(q.CorrectAnswers) == 0 {
		return model.NewInvalidQuestionError("correctAnswersは1件以上必要です")
	}
	if q.Type == model.QuestionTypeSingle && len(q.CorrectAnswers) != 1 {
		return model.NewInvalidQuestionError("single設問のcorrectAnswersは1件のみです")
	}

	options := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		options[opt] = true
	}
	for _, ans := range q.CorrectAnswers {
		if !options[ans] {
			return model.NewInvalidQuestionError(fmt.Sprintf("correctAnswersにoptionsに無い値があります: %s", ans))
		}
	}
	return nil
}

// gradeAnswers は各設問の正誤を判定し、正答数を数える。
// 正解は選択肢の集合一致で判定する（順序は無視）。
// 回答が無い設問は不正解として数える。
func gradeAnswers(questions []model.Question, answers []model.Answer) ([]model.Answer, int) {
	byQuestion := make(map[string]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	graded := make([]model.Answer, 0, len(questions))
	correctCount := 0

	for _, q := range questions {
		answer, ok := byQuestion[q.ID]
		if !ok {
			answer = model.Answer{QuestionID: q.ID, SelectedOptions: []string{}}
		}

		correct := sameOptionSet(answer.SelectedOptions, q.CorrectAnswers)
		answer.IsCorrect = &correct
		if correct {
			correctCount++
		}
		graded = append(graded, answer)
	}

	return graded, correctCount
}

// sameOptionSet は2つの選択肢スライスが集合として一致するかを判定する。
func sameOptionSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	if len(set) != len(b) {
		return false
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}

// findQuestion は設問スライスから指定IDのインデックスを返す。見つからない場合は-1。
func findQuestion(questions []model.Question, questionID string) int {
	for i := range questions {
		if questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

// compile-time interface check
var _ QuizService = (*Service)(nil)
