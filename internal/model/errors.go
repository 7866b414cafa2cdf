// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, course, quiz, feed, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeCourseNotFound   = "COURSE_NOT_FOUND"
	ErrCodeMaterialNotFound = "MATERIAL_NOT_FOUND"
	ErrCodeQuizNotFound     = "QUIZ_NOT_FOUND"
	ErrCodeQuestionNotFound = "QUESTION_NOT_FOUND"
	ErrCodePostNotFound     = "POST_NOT_FOUND"
	ErrCodeNameRequired     = "NAME_REQUIRED"
	ErrCodeTitleRequired    = "TITLE_REQUIRED"
	ErrCodeEmptyMessage     = "EMPTY_MESSAGE"
	ErrCodeInvalidQuestion  = "INVALID_QUESTION"
	ErrCodeInvalidAnswers   = "INVALID_ANSWERS"
	ErrCodeInvalidMaterial  = "INVALID_MATERIAL"
)

// NewCourseNotFoundError はコース未検出エラーを生成する。
func NewCourseNotFoundError(courseID string) *APIError {
	return &APIError{
		Code:     ErrCodeCourseNotFound,
		Message:  fmt.Sprintf("指定されたコースが見つかりません: %s", courseID),
		Category: "course",
		Action:   "コースIDを確認してください。",
	}
}

// NewMaterialNotFoundError は教材未検出エラーを生成する。
func NewMaterialNotFoundError(materialID string) *APIError {
	return &APIError{
		Code:     ErrCodeMaterialNotFound,
		Message:  fmt.Sprintf("指定された教材が見つかりません: %s", materialID),
		Category: "course",
		Action:   "教材IDを確認してください。",
	}
}

// NewQuizNotFoundError はクイズ未検出エラーを生成する。
func NewQuizNotFoundError(quizID string) *APIError {
	return &APIError{
		Code:     ErrCodeQuizNotFound,
		Message:  fmt.Sprintf("指定されたクイズが見つかりません: %s", quizID),
		Category: "quiz",
		Action:   "クイズIDを確認してください。",
	}
}

// NewQuestionNotFoundError は設問未検出エラーを生成する。
func NewQuestionNotFoundError(questionID string) *APIError {
	return &APIError{
		Code:     ErrCodeQuestionNotFound,
		Message:  fmt.Sprintf("指定された設問が見つかりません: %s", questionID),
		Category: "quiz",
		Action:   "設問IDを確認してください。",
	}
}

// NewPostNotFoundError はフィード投稿未検出エラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "feed",
		Action:   "投稿IDを確認してください。",
	}
}

// NewNameRequiredError はコース名未指定エラーを生成する。
func NewNameRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeNameRequired,
		Message:  "コース名は必須です。",
		Category: "validation",
		Action:   "コース名を入力してください。",
	}
}

// NewTitleRequiredError はクイズタイトル未指定エラーを生成する。
func NewTitleRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTitleRequired,
		Message:  "クイズのタイトルは必須です。",
		Category: "validation",
		Action:   "タイトルを入力してください。",
	}
}

// NewEmptyMessageError はフィード投稿の本文未指定エラーを生成する。
func NewEmptyMessageError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyMessage,
		Message:  "投稿メッセージは必須です。",
		Category: "validation",
		Action:   "メッセージを入力してください。",
	}
}

// NewInvalidQuestionError は設問の構造が不正な場合のエラーを生成する。
func NewInvalidQuestionError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuestion,
		Message:  fmt.Sprintf("設問の形式が不正です: %s", reason),
		Category: "validation",
		Action:   "設問にはtype（single/multiple）、text、options、correctAnswersを指定してください。",
	}
}

// NewInvalidAnswersError は回答の形式が不正な場合のエラーを生成する。
func NewInvalidAnswersError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAnswers,
		Message:  "answersは配列で指定してください。",
		Category: "validation",
		Action:   "各設問のquestionIdとselectedOptionsを含む配列を送信してください。",
	}
}

// NewInvalidMaterialError は教材の形式が不正な場合のエラーを生成する。
func NewInvalidMaterialError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMaterial,
		Message:  fmt.Sprintf("教材の形式が不正です: %s", reason),
		Category: "validation",
		Action:   "教材にはtype（url/file）とnameを指定してください。",
	}
}
