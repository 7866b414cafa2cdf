package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/courseman/internal/model"
	"github.com/hitoshi/courseman/internal/repository"
)

// CourseExistenceChecker はコースの存在確認のみを必要とする依存。
// course.Serviceの全機能は不要なため、必要最小限のインターフェースに絞る。
type CourseExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Sanitizer はクライアント入力テキストのサニタイズを行う依存。
type Sanitizer interface {
	Sanitize(raw string) string
}

// FeedService はフィード投稿の操作インターフェース。
type FeedService interface {
	// ListPosts はコースのフィード投稿を新しい順で返す。
	ListPosts(ctx context.Context, courseID string) ([]*model.FeedPost, error)

	// CreatePost は講師の手動投稿を作成し、購読者に配信する。
	CreatePost(ctx context.Context, courseID, message string) (*model.FeedPost, error)

	// RecordAutoEvent はシステム投稿を作成し、購読者に配信する。
	// 教材・クイズ作成フローから呼ばれる。エラーはログに残して飲み込み、
	// 呼び出し元の操作を失敗させない。
	RecordAutoEvent(ctx context.Context, courseID, message string)

	// EditPost は投稿の本文を更新し、購読者に配信する。
	EditPost(ctx context.Context, courseID, postID, message string) (*model.FeedPost, error)

	// DeletePost は投稿を削除し、IDのみのペイロードを購読者に配信する。
	DeletePost(ctx context.Context, courseID, postID string) error
}

// Service はFeedServiceの実装。
// すべての変更操作は「永続化してから配信」の順で行う。
// 永続化が失敗した場合は配信しない（配信すべき確定状態が存在しない）。
type Service struct {
	courses   CourseExistenceChecker
	posts     repository.FeedPostRepository
	publisher Publisher
	sanitizer Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	courses CourseExistenceChecker,
	posts repository.FeedPostRepository,
	publisher Publisher,
	sanitizer Sanitizer,
) *Service {
	return &Service{
		courses:   courses,
		posts:     posts,
		publisher: publisher,
		sanitizer: sanitizer,
	}
}

// ListPosts はコースのフィード投稿を新しい順で返す。
func (s *Service) ListPosts(ctx context.Context, courseID string) ([]*model.FeedPost, error) {
	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}

	posts, err := s.posts.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*model.FeedPost{}
	}
	return posts, nil
}

// CreatePost は講師の手動投稿を作成し、購読者に配信する。
func (s *Service) CreatePost(ctx context.Context, courseID, message string) (*model.FeedPost, error) {
	message = s.sanitizer.Sanitize(message)
	if message == "" {
		return nil, model.NewEmptyMessageError()
	}

	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}

	post := s.newPost(courseID, message, model.FeedPostKindManual, model.AuthorRoleLecturer)
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.publisher.Publish(courseID, EventNewPost, NewPostPayload(post))
	return post, nil
}

// RecordAutoEvent はシステム投稿を作成し、購読者に配信する。
// 教材追加はフィードイベントの副作用が失敗しても成功しなければならないため、
// エラーは一切返さない。
func (s *Service) RecordAutoEvent(ctx context.Context, courseID, message string) {
	message = s.sanitizer.Sanitize(message)
	if message == "" {
		return
	}

	post := s.newPost(courseID, message, model.FeedPostKindSystem, model.AuthorRoleSystem)
	if err := s.posts.Create(ctx, post); err != nil {
		slog.Error("自動フィードイベントの保存に失敗",
			"course_id", courseID, "message", message, "error", err)
		return
	}

	s.publisher.Publish(courseID, EventNewPost, NewPostPayload(post))
}

// EditPost は投稿の本文を更新し、購読者に配信する。
// 初回編集時にEditedフラグとEditedAtが設定される。
// kindによる編集制限は行わない（システム投稿も編集できる）。
func (s *Service) EditPost(ctx context.Context, courseID, postID, message string) (*model.FeedPost, error) {
	message = s.sanitizer.Sanitize(message)
	if message == "" {
		return nil, model.NewEmptyMessageError()
	}

	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}

	post, err := s.posts.FindByID(ctx, courseID, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	now := time.Now()
	post.Message = message
	post.Edited = true
	post.EditedAt = &now
	post.UpdatedAt = now

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("フィード投稿の更新に失敗しました: %w", err)
	}

	s.publisher.Publish(courseID, EventUpdatedPost, NewPostPayload(post))
	return post, nil
}

// DeletePost は投稿を削除し、IDのみのペイロードを購読者に配信する。
func (s *Service) DeletePost(ctx context.Context, courseID, postID string) error {
	if err := s.requireCourse(ctx, courseID); err != nil {
		return err
	}

	post, err := s.posts.FindByID(ctx, courseID, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return model.NewPostNotFoundError(postID)
	}

	if err := s.posts.DeleteByID(ctx, courseID, postID); err != nil {
		return fmt.Errorf("フィード投稿の削除に失敗しました: %w", err)
	}

	s.publisher.Publish(courseID, EventDeletedPost, DeletePayload{ID: postID})
	return nil
}

// requireCourse はコースの存在を確認し、見つからない場合はNotFoundエラーを返す。
func (s *Service) requireCourse(ctx context.Context, courseID string) error {
	exists, err := s.courses.Exists(ctx, courseID)
	if err != nil {
		return fmt.Errorf("コースの存在確認に失敗しました: %w", err)
	}
	if !exists {
		return model.NewCourseNotFoundError(courseID)
	}
	return nil
}

// newPost は新しいフィード投稿を構築する。
func (s *Service) newPost(courseID, message string, kind model.FeedPostKind, role model.AuthorRole) *model.FeedPost {
	now := time.Now()
	return &model.FeedPost{
		ID:         uuid.NewString(),
		CourseID:   courseID,
		Kind:       kind,
		Message:    message,
		AuthorRole: role,
		Edited:     false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// compile-time interface check
var _ FeedService = (*Service)(nil)
