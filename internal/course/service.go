// Package course はコース管理のドメインロジックを提供する。
package course

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/courseman/internal/model"
	"github.com/hitoshi/courseman/internal/repository"
)

// SubscriptionDropper はコース削除時に購読者を切断する依存。
// feed.Registryを抽象化してテスタビリティを向上させる。
type SubscriptionDropper interface {
	DropCourse(courseID string)
}

// Sanitizer はクライアント入力テキストのサニタイズを行う依存。
type Sanitizer interface {
	Sanitize(raw string) string
}

// CourseService はコース操作のインターフェース。
type CourseService interface {
	// ListCourses は全コースを新しい順で返す。教材は含まない。
	ListCourses(ctx context.Context) ([]*model.Course, error)

	// GetCourse は指定IDのコースを教材込みで返す。
	GetCourse(ctx context.Context, id string) (*model.Course, error)

	// CreateCourse はコースを作成する。名前は必須。
	CreateCourse(ctx context.Context, name, description string) (*model.Course, error)

	// UpdateCourse はコースの名前・説明を部分更新する。nilのフィールドは変更しない。
	UpdateCourse(ctx context.Context, id string, name, description *string) (*model.Course, error)

	// DeleteCourse はコースを削除し、フィードの購読者を全員切断する。
	DeleteCourse(ctx context.Context, id string) error

	// Exists は指定IDのコースが存在するかを返す。
	Exists(ctx context.Context, id string) (bool, error)
}

// Service はCourseServiceの実装。
type Service struct {
	courses   repository.CourseRepository
	dropper   SubscriptionDropper
	sanitizer Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(courses repository.CourseRepository, dropper SubscriptionDropper, sanitizer Sanitizer) *Service {
	return &Service{
		courses:   courses,
		dropper:   dropper,
		sanitizer: sanitizer,
	}
}

// ListCourses は全コースを新しい順で返す。
func (s *Service) ListCourses(ctx context.Context) ([]*model.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []*model.Course{}
	}
	return courses, nil
}

// GetCourse は指定IDのコースを教材込みで返す。
func (s *Service) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(id)
	}
	if course.Materials == nil {
		course.Materials = []model.Material{}
	}
	return course, nil
}

// CreateCourse はコースを作成する。
func (s *Service) CreateCourse(ctx context.Context, name, description string) (*model.Course, error) {
	name = s.sanitizer.Sanitize(name)
	description = s.sanitizer.Sanitize(description)
	if name == "" {
		return nil, model.NewNameRequiredError()
	}

	now := time.Now()
	course := &model.Course{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Materials:   []model.Material{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// UpdateCourse はコースの名前・説明を部分更新する。
func (s *Service) UpdateCourse(ctx context.Context, id string, name, description *string) (*model.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(id)
	}

	if name != nil {
		sanitized := s.sanitizer.Sanitize(*name)
		if sanitized == "" {
			return nil, model.NewNameRequiredError()
		}
		course.Name = sanitized
	}
	if description != nil {
		course.Description = s.sanitizer.Sanitize(*description)
	}
	course.UpdatedAt = time.Now()

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("コースの更新に失敗しました: %w", err)
	}
	if course.Materials == nil {
		course.Materials = []model.Material{}
	}
	return course, nil
}

// DeleteCourse はコースを削除し、フィードの購読者を全員切断する。
// 購読者の切断は削除の確定後に行う。関連レコードはDBのCASCADEで削除される。
func (s *Service) DeleteCourse(ctx context.Context, id string) error {
	exists, err := s.courses.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("コースの存在確認に失敗しました: %w", err)
	}
	if !exists {
		return model.NewCourseNotFoundError(id)
	}

	if err := s.courses.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.dropper.DropCourse(id)
	return nil
}

// Exists は指定IDのコースが存在するかを返す。
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.courses.Exists(ctx, id)
}

// compile-time interface check
var _ CourseService = (*Service)(nil)
