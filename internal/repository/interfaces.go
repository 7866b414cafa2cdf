// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/courseman/internal/model"
)

// CourseRepository はコースデータの永続化インターフェース。
// 教材はコース行のJSONBカラムに埋め込みで保存される。
type CourseRepository interface {
	// List は全コースを作成日時の降順で返す。教材は含まない。
	List(ctx context.Context) ([]*model.Course, error)

	// FindByID は指定IDのコースを教材込みで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Course, error)

	// Exists は指定IDのコースが存在するかを返す。
	Exists(ctx context.Context, id string) (bool, error)

	// Create はコースを作成する。
	Create(ctx context.Context, course *model.Course) error

	// Update はコースの名前・説明を更新する。
	Update(ctx context.Context, course *model.Course) error

	// UpdateMaterials はコースの教材JSONBカラムを丸ごと置き換える。
	// updated_atも同時に更新する。
	UpdateMaterials(ctx context.Context, courseID string, materials []model.Material) error

	// DeleteByID は指定IDのコースを削除する。
	// 関連するquizzes、quiz_results、course_feed_postsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// QuizRepository はクイズデータの永続化インターフェース。
type QuizRepository interface {
	// ListByCourse はコースのクイズ一覧を作成日時の降順で返す。
	ListByCourse(ctx context.Context, courseID string) ([]*model.Quiz, error)

	// FindByID は指定IDのクイズを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Quiz, error)

	// Create はクイズを作成する。
	Create(ctx context.Context, quiz *model.Quiz) error

	// Update はクイズのタイトル・説明・設問を更新する。
	Update(ctx context.Context, quiz *model.Quiz) error

	// DeleteByID は指定IDのクイズを削除する。
	DeleteByID(ctx context.Context, id string) error

	// IncrementAttempts は提出回数カウンタを1増やす。
	IncrementAttempts(ctx context.Context, id string) error
}

// QuizResultRepository はクイズ提出結果の永続化インターフェース。
type QuizResultRepository interface {
	// Create は採点結果を保存する。
	Create(ctx context.Context, result *model.QuizResult) error

	// ListByQuiz はクイズの提出結果を提出日時の降順で返す。
	ListByQuiz(ctx context.Context, quizID string) ([]*model.QuizResult, error)
}

// FeedPostRepository はコースフィード投稿の永続化インターフェース。
type FeedPostRepository interface {
	// ListByCourse はコースのフィード投稿を作成日時の降順で返す。
	ListByCourse(ctx context.Context, courseID string) ([]*model.FeedPost, error)

	// FindByID はコースIDと投稿IDで投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, courseID, postID string) (*model.FeedPost, error)

	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.FeedPost) error

	// Update は投稿の本文と編集フラグを更新する。
	Update(ctx context.Context, post *model.FeedPost) error

	// DeleteByID はコースIDと投稿IDで投稿を削除する。
	// 投稿が存在しない場合もエラーにはならない（存在確認は呼び出し側で行う）。
	DeleteByID(ctx context.Context, courseID, postID string) error
}
