package feed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/courseman/internal/model"
)

// mockCourseChecker はCourseExistenceCheckerのモック。
type mockCourseChecker struct {
	existsFn func(ctx context.Context, id string) (bool, error)
}

func (m *mockCourseChecker) Exists(ctx context.Context, id string) (bool, error) {
	return m.existsFn(ctx, id)
}

// mockPostRepo はFeedPostRepositoryのモック。
type mockPostRepo struct {
	listFn   func(ctx context.Context, courseID string) ([]*model.FeedPost, error)
	findFn   func(ctx context.Context, courseID, postID string) (*model.FeedPost, error)
	createFn func(ctx context.Context, post *model.FeedPost) error
	updateFn func(ctx context.Context, post *model.FeedPost) error
	deleteFn func(ctx context.Context, courseID, postID string) error
}

func (m *mockPostRepo) ListByCourse(ctx context.Context, courseID string) ([]*model.FeedPost, error) {
	return m.listFn(ctx, courseID)
}

func (m *mockPostRepo) FindByID(ctx context.Context, courseID, postID string) (*model.FeedPost, error) {
	return m.findFn(ctx, courseID, postID)
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.FeedPost) error {
	return m.createFn(ctx, post)
}

func (m *mockPostRepo) Update(ctx context.Context, post *model.FeedPost) error {
	return m.updateFn(ctx, post)
}

func (m *mockPostRepo) DeleteByID(ctx context.Context, courseID, postID string) error {
	return m.deleteFn(ctx, courseID, postID)
}

// publishedEvent はモックが記録した発行イベント。
type publishedEvent struct {
	courseID string
	kind     EventKind
	payload  any
}

// mockPublisher はPublisherのモック。発行されたイベントを記録する。
type mockPublisher struct {
	published []publishedEvent
	onPublish func()
}

func (m *mockPublisher) Publish(courseID string, kind EventKind, payload any) {
	if m.onPublish != nil {
		m.onPublish()
	}
	m.published = append(m.published, publishedEvent{courseID, kind, payload})
}

// stubSanitizer はテスト用のサニタイザ。空白トリムのみ行う。
type stubSanitizer struct{}

func (stubSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(raw)
}

// newTestService はテスト用のServiceと依存モック一式を生成する。
func newTestService() (*Service, *mockCourseChecker, *mockPostRepo, *mockPublisher) {
	courses := &mockCourseChecker{
		existsFn: func(ctx context.Context, id string) (bool, error) { return true, nil },
	}
	posts := &mockPostRepo{
		listFn:   func(ctx context.Context, courseID string) ([]*model.FeedPost, error) { return nil, nil },
		findFn:   func(ctx context.Context, courseID, postID string) (*model.FeedPost, error) { return nil, nil },
		createFn: func(ctx context.Context, post *model.FeedPost) error { return nil },
		updateFn: func(ctx context.Context, post *model.FeedPost) error { return nil },
		deleteFn: func(ctx context.Context, courseID, postID string) error { return nil },
	}
	publisher := &mockPublisher{}
	return NewService(courses, posts, publisher, stubSanitizer{}), courses, posts, publisher
}

// TestService_CreatePost_Success は投稿が永続化され、new_postが発行されることを検証する。
func TestService_CreatePost_Success(t *testing.T) {
	svc, _, posts, publisher := newTestService()

	var created *model.FeedPost
	posts.createFn = func(ctx context.Context, post *model.FeedPost) error {
		created = post
		return nil
	}

	post, err := svc.CreatePost(context.Background(), "course-1", "Hello")
	if err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}

	if post.ID == "" {
		t.Error("post.ID should be generated")
	}
	if post.Kind != model.FeedPostKindManual {
		t.Errorf("post.Kind = %q, want %q", post.Kind, model.FeedPostKindManual)
	}
	if post.AuthorRole != model.AuthorRoleLecturer {
		t.Errorf("post.AuthorRole = %q, want %q", post.AuthorRole, model.AuthorRoleLecturer)
	}
	if post.Edited {
		t.Error("post.Edited should be false at creation")
	}
	if created == nil || created.ID != post.ID {
		t.Error("returned post should be the persisted post")
	}

	if len(publisher.published) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.published))
	}
	ev := publisher.published[0]
	if ev.courseID != "course-1" || ev.kind != EventNewPost {
		t.Errorf("published (%q, %q), want (course-1, new_post)", ev.courseID, ev.kind)
	}
	payload, ok := ev.payload.(PostPayload)
	if !ok {
		t.Fatalf("payload type = %T, want PostPayload", ev.payload)
	}
	if payload.Message != "Hello" {
		t.Errorf("payload.Message = %q, want %q", payload.Message, "Hello")
	}
}

// TestService_CreatePost_PersistBeforePublish は永続化が配信より先に行われることを検証する。
func TestService_CreatePost_PersistBeforePublish(t *testing.T) {
	svc, _, posts, publisher := newTestService()

	var order []string
	posts.createFn = func(ctx context.Context, post *model.FeedPost) error {
		order = append(order, "persist")
		return nil
	}
	publisher.onPublish = func() {
		order = append(order, "publish")
	}

	if _, err := svc.CreatePost(context.Background(), "course-1", "Hello"); err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}

	if len(order) != 2 || order[0] != "persist" || order[1] != "publish" {
		t.Errorf("order = %v, want [persist publish]", order)
	}
}

// TestService_CreatePost_EmptyMessage は空メッセージで検証エラーになり、
// 永続化も配信も行われないことを検証する。
func TestService_CreatePost_EmptyMessage(t *testing.T) {
	svc, _, posts, publisher := newTestService()

	createCalled := false
	posts.createFn = func(ctx context.Context, post *model.FeedPost) error {
		createCalled = true
		return nil
	}

	for _, message := range []string{"", "   "} {
		_, err := svc.CreatePost(context.Background(), "course-1", message)

		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("CreatePost(%q) error = %v, want APIError", message, err)
		}
		if apiErr.Code != model.ErrCodeEmptyMessage {
			t.Errorf("error code = %q, want %q", apiErr.Code, model.ErrCodeEmptyMessage)
		}
	}

	if createCalled {
		t.Error("repository Create should not be called for invalid message")
	}
	if len(publisher.published) != 0 {
		t.Error("no event should be published for invalid message")
	}
}

// TestService_CreatePost_CourseNotFound はコース未検出で404系エラーになることを検証する。
func TestService_CreatePost_CourseNotFound(t *testing.T) {
	svc, courses, _, publisher := newTestService()
	courses.existsFn = func(ctx context.Context, id string) (bool, error) { return false, nil }

	_, err := svc.CreatePost(context.Background(), "missing", "Hello")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Code != model.ErrCodeCourseNotFound {
		t.Errorf("error code = %q, want %q", apiErr.Code, model.ErrCodeCourseNotFound)
	}
	if len(publisher.published) != 0 {
		t.Error("no event should be published for missing course")
	}
}

// TestService_CreatePost_PersistenceFailure は永続化失敗時に配信されないことを検証する。
// 配信すべき確定状態が存在しないため。
func TestService_CreatePost_PersistenceFailure(t *testing.T) {
	svc, _, posts, publisher := newTestService()
	posts.createFn = func(ctx context.Context, post *model.FeedPost) error {
		return errors.New("db down")
	}

	_, err := svc.CreatePost(context.Background(), "course-1", "Hello")
	if err == nil {
		t.Fatal("expected error when persistence fails")
	}
	if len(publisher.published) != 0 {
		t.Error("no event should be published when persistence fails")
	}
}

// TestService_RecordAutoEvent_Success はシステム投稿が作成・配信されることを検証する。
func TestService_RecordAutoEvent_Success(t *testing.T) {
	svc, _, posts, publisher := newTestService()

	var created *model.FeedPost
	posts.createFn = func(ctx context.Context, post *model.FeedPost) error {
		created = post
		return nil
	}

	svc.RecordAutoEvent(context.Background(), "course-1", `New material: "講義スライド"`)

	if created == nil {
		t.Fatal("system post should be persisted")
	}
	if created.Kind != model.FeedPostKindSystem {
		t.Errorf("created.Kind = %q, want %q", created.Kind, model.FeedPostKindSystem)
	}
	if created.AuthorRole != model.AuthorRoleSystem {
		t.Errorf("created.AuthorRole = %q, want %q", created.AuthorRole, model.AuthorRoleSystem)
	}
	if len(publisher.published) != 1 || publisher.published[0].kind != EventNewPost {
		t.Error("new_post event should be published")
	}
}

// TestService_RecordAutoEvent_SwallowsPersistenceError は永続化失敗が
// 呼び出し元に伝播せず、配信も行われないことを検証する。
// 教材追加はフィードイベントの副作用が失敗しても成功しなければならない。
func TestService_RecordAutoEvent_SwallowsPersistenceError(t *testing.T) {
	svc, _, posts, publisher := newTestService()
	posts.createFn = func(ctx context.Context, post *model.FeedPost) error {
		return errors.New("db down")
	}

	svc.RecordAutoEvent(context.Background(), "course-1", "New quiz: \"確認テスト\"")

	if len(publisher.published) != 0 {
		t.Error("no event should be published when persistence fails")
	}
}

// TestService_EditPost_Success は編集でEdited/EditedAtが設定され、
// updated_postが発行されることを検証する。
func TestService_EditPost_Success(t *testing.T) {
	svc, _, posts, publisher := newTestService()

	existing := &model.FeedPost{
		ID:         "post-1",
		CourseID:   "course-1",
		Kind:       model.FeedPostKindManual,
		Message:    "Hello",
		AuthorRole: model.AuthorRoleLecturer,
		CreatedAt:  time.Now().Add(-time.Hour),
		UpdatedAt:  time.Now().Add(-time.Hour),
	}
	posts.findFn = func(ctx context.Context, courseID, postID string) (*model.FeedPost, error) {
		return existing, nil
	}

	post, err := svc.EditPost(context.Background(), "course-1", "post-1", "Hello v2")
	if err != nil {
		t.Fatalf("EditPost returned error: %v", err)
	}

	if post.Message != "Hello v2" {
		t.Errorf("post.Message = %q, want %q", post.Message, "Hello v2")
	}
	if !post.Edited {
		t.Error("post.Edited should be true after edit")
	}
	if post.EditedAt == nil {
		t.Error("post.EditedAt should be set after edit")
	}

	if len(publisher.published) != 1 || publisher.published[0].kind != EventUpdatedPost {
		t.Fatal("updated_post event should be published")
	}
	payload := publisher.published[0].payload.(PostPayload)
	if payload.Message != "Hello v2" || !payload.Edited {
		t.Errorf("payload = %+v, want edited post with new message", payload)
	}
}

// TestService_EditPost_SystemPostIsEditable はシステム投稿も編集できることを検証する。
// kindによる編集制限は意図的に行っていない。
func TestService_EditPost_SystemPostIsEditable(t *testing.T) {
	svc, _, posts, _ := newTestService()

	posts.findFn = func(ctx context.Context, courseID, postID string) (*model.FeedPost, error) {
		return &model.FeedPost{
			ID:         "post-1",
			CourseID:   "course-1",
			Kind:       model.FeedPostKindSystem,
			Message:    `New material: "旧資料"`,
			AuthorRole: model.AuthorRoleSystem,
		}, nil
	}

	post, err := svc.EditPost(context.Background(), "course-1", "post-1", "訂正: 資料を差し替えました")
	if err != nil {
		t.Fatalf("EditPost on system post returned error: %v", err)
	}
	if post.Kind != model.FeedPostKindSystem {
		t.Error("kind should remain system after edit")
	}
}

// TestService_EditPost_PostNotFound は投稿未検出で404系エラーになることを検証する。
func TestService_EditPost_PostNotFound(t *testing.T) {
	svc, _, posts, publisher := newTestService()
	posts.findFn = func(ctx context.Context, courseID, postID string) (*model.FeedPost, error) {
		return nil, nil
	}

	_, err := svc.EditPost(context.Background(), "course-1", "missing", "Hello v2")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Code != model.ErrCodePostNotFound {
		t.Errorf("error code = %q, want %q", apiErr.Code, model.ErrCodePostNotFound)
	}
	if len(publisher.published) != 0 {
		t.Error("no event should be published for missing post")
	}
}

// TestService_DeletePost_Success は削除でIDのみのペイロードが発行されることを検証する。
func TestService_DeletePost_Success(t *testing.T) {
	svc, _, posts, publisher := newTestService()

	posts.findFn = func(ctx context.Context, courseID, postID string) (*model.FeedPost, error) {
		return &model.FeedPost{ID: postID, CourseID: courseID}, nil
	}

	deleted := false
	posts.deleteFn = func(ctx context.Context, courseID, postID string) error {
		deleted = true
		return nil
	}

	if err := svc.DeletePost(context.Background(), "course-1", "post-1"); err != nil {
		t.Fatalf("DeletePost returned error: %v", err)
	}

	if !deleted {
		t.Error("repository DeleteByID should be called")
	}
	if len(publisher.published) != 1 || publisher.published[0].kind != EventDeletedPost {
		t.Fatal("deleted_post event should be published")
	}
	payload, ok := publisher.published[0].payload.(DeletePayload)
	if !ok {
		t.Fatalf("payload type = %T, want DeletePayload", publisher.published[0].payload)
	}
	if payload.ID != "post-1" {
		t.Errorf("payload.ID = %q, want %q", payload.ID, "post-1")
	}
}

// TestService_DeletePost_PostNotFound は投稿未検出で404系エラーになることを検証する。
func TestService_DeletePost_PostNotFound(t *testing.T) {
	svc, _, posts, _ := newTestService()
	posts.findFn = func(ctx context.Context, courseID, postID string) (*model.FeedPost, error) {
		return nil, nil
	}

	err := svc.DeletePost(context.Background(), "course-1", "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Code != model.ErrCodePostNotFound {
		t.Errorf("error code = %q, want %q", apiErr.Code, model.ErrCodePostNotFound)
	}
}

// TestService_ListPosts_EmptyCourse は投稿0件で空スライスが返ることを検証する。
func TestService_ListPosts_EmptyCourse(t *testing.T) {
	svc, _, _, _ := newTestService()

	posts, err := svc.ListPosts(context.Background(), "course-1")
	if err != nil {
		t.Fatalf("ListPosts returned error: %v", err)
	}
	if posts == nil {
		t.Error("ListPosts should return empty slice, not nil")
	}
	if len(posts) != 0 {
		t.Errorf("len(posts) = %d, want 0", len(posts))
	}
}

// TestService_ListPosts_CourseNotFound はコース未検出で404系エラーになることを検証する。
func TestService_ListPosts_CourseNotFound(t *testing.T) {
	svc, courses, _, _ := newTestService()
	courses.existsFn = func(ctx context.Context, id string) (bool, error) { return false, nil }

	_, err := svc.ListPosts(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Code != model.ErrCodeCourseNotFound {
		t.Errorf("error code = %q, want %q", apiErr.Code, model.ErrCodeCourseNotFound)
	}
}

// TestService_SequentialMutations_PublishInOrder は同一コースへの連続した変更が
// 発行順どおりに記録されることを検証する。
func TestService_SequentialMutations_PublishInOrder(t *testing.T) {
	svc, _, posts, publisher := newTestService()

	stored := &model.FeedPost{}
	posts.createFn = func(ctx context.Context, post *model.FeedPost) error {
		*stored = *post
		return nil
	}
	posts.findFn = func(ctx context.Context, courseID, postID string) (*model.FeedPost, error) {
		copied := *stored
		return &copied, nil
	}

	post, err := svc.CreatePost(context.Background(), "course-1", "Hello")
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if _, err := svc.EditPost(context.Background(), "course-1", post.ID, "Hello v2"); err != nil {
		t.Fatalf("EditPost: %v", err)
	}
	if err := svc.DeletePost(context.Background(), "course-1", post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}

	want := []EventKind{EventNewPost, EventUpdatedPost, EventDeletedPost}
	if len(publisher.published) != len(want) {
		t.Fatalf("published %d events, want %d", len(publisher.published), len(want))
	}
	for i, ev := range publisher.published {
		if ev.kind != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, ev.kind, want[i])
		}
	}
}
