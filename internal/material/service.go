// Package material はコース教材のドメインロジックを提供する。
// 教材はコース行のJSONBカラムに埋め込みで保存される。
package material

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/courseman/internal/linkmeta"
	"github.com/hitoshi/courseman/internal/metrics"
	"github.com/hitoshi/courseman/internal/model"
	"github.com/hitoshi/courseman/internal/repository"
)

// enrichTimeout はリンクメタデータ取得全体の打ち切り時間。
const enrichTimeout = 30 * time.Second

// FeedEventRecorder は教材作成時のシステムフィード投稿を行う依存。
type FeedEventRecorder interface {
	RecordAutoEvent(ctx context.Context, courseID, message string)
}

// MetadataFetcher はURL教材のタイトル・favicon取得を行う依存。
type MetadataFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*linkmeta.Metadata, error)
}

// URLValidator はURL教材の事前検証を行う依存。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Sanitizer はクライアント入力テキストのサニタイズを行う依存。
type Sanitizer interface {
	Sanitize(raw string) string
}

// CreateMaterialInput は教材作成の入力。
type CreateMaterialInput struct {
	Type        model.MaterialType
	Name        string
	Description string
	URL         string
	FileURL     string
	MimeType    string
	SizeBytes   int64
}

// UpdateMaterialInput は教材更新の入力。nilのフィールドは変更しない。
type UpdateMaterialInput struct {
	Name        *string
	Description *string
	URL         *string
}

// MaterialService は教材操作のインターフェース。
type MaterialService interface {
	// ListMaterials はコースの教材一覧を返す。
	ListMaterials(ctx context.Context, courseID string) ([]model.Material, error)

	// CreateMaterial は教材を作成し、システムフィード投稿を追加する。
	// URL教材の場合はタイトル・faviconの取得を非同期で行う。
	CreateMaterial(ctx context.Context, courseID string, input CreateMaterialInput) (*model.Material, error)

	// UpdateMaterial は教材を部分更新する。
	UpdateMaterial(ctx context.Context, courseID, materialID string, input UpdateMaterialInput) (*model.Material, error)

	// DeleteMaterial は教材を削除する。
	DeleteMaterial(ctx context.Context, courseID, materialID string) error
}

// Service はMaterialServiceの実装。
type Service struct {
	courses   repository.CourseRepository
	feed      FeedEventRecorder
	fetcher   MetadataFetcher
	validator URLValidator
	metrics   metrics.MetricsCollector
	sanitizer Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
// fetcherがnilの場合、リンクメタデータの取得は行わない。
func NewService(
	courses repository.CourseRepository,
	feed FeedEventRecorder,
	fetcher MetadataFetcher,
	validator URLValidator,
	collector metrics.MetricsCollector,
	sanitizer Sanitizer,
) *Service {
	return &Service{
		courses:   courses,
		feed:      feed,
		fetcher:   fetcher,
		validator: validator,
		metrics:   collector,
		sanitizer: sanitizer,
	}
}

// ListMaterials はコースの教材一覧を返す。
func (s *Service) ListMaterials(ctx context.Context, courseID string) ([]model.Material, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(courseID)
	}
	if course.Materials == nil {
		return []model.Material{}, nil
	}
	return course.Materials, nil
}

// CreateMaterial は教材を作成し、システムフィード投稿を追加する。
// フィード投稿の失敗は教材作成を失敗させない。
func (s *Service) CreateMaterial(ctx context.Context, courseID string, input CreateMaterialInput) (*model.Material, error) {
	material, err := s.buildMaterial(input)
	if err != nil {
		return nil, err
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(courseID)
	}

	materials := append(course.Materials, *material)
	if err := s.courses.UpdateMaterials(ctx, courseID, materials); err != nil {
		return nil, err
	}

	s.feed.RecordAutoEvent(ctx, courseID, fmt.Sprintf("New material: %q", material.Name))

	// URL教材はタイトル・faviconを非同期で補完する。リクエストの完了を待たせない。
	if material.Type == model.MaterialTypeURL && s.fetcher != nil {
		go func(courseID, materialID, pageURL string) {
			ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
			defer cancel()
			s.enrichMaterial(ctx, courseID, materialID, pageURL)
		}(courseID, material.ID, material.URL)
	}

	return material, nil
}

// UpdateMaterial は教材を部分更新する。
func (s *Service) UpdateMaterial(ctx context.Context, courseID, materialID string, input UpdateMaterialInput) (*model.Material, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(courseID)
	}

	idx := findMaterial(course.Materials, materialID)
	if idx < 0 {
		return nil, model.NewMaterialNotFoundError(materialID)
	}

	material := &course.Materials[idx]
	if input.Name != nil {
		sanitized := s.sanitizer.Sanitize(*input.Name)
		if sanitized == "" {
			return nil, model.NewInvalidMaterialError("nameは必須です")
		}
		material.Name = sanitized
	}
	if input.Description != nil {
		material.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if input.URL != nil {
		if material.Type != model.MaterialTypeURL {
			return nil, model.NewInvalidMaterialError("file教材にurlは指定できません")
		}
		if err := s.validator.ValidateURL(*input.URL); err != nil {
			return nil, model.NewInvalidMaterialError(fmt.Sprintf("urlが不正です: %v", err))
		}
		material.URL = *input.URL
		// リンク先が変わったため取得済みメタデータは無効
		material.FaviconURL = nil
		material.LinkTitle = nil
	}

	if err := s.courses.UpdateMaterials(ctx, courseID, course.Materials); err != nil {
		return nil, err
	}
	return material, nil
}

// DeleteMaterial は教材を削除する。
func (s *Service) DeleteMaterial(ctx context.Context, courseID, materialID string) error {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return model.NewCourseNotFoundError(courseID)
	}

	idx := findMaterial(course.Materials, materialID)
	if idx < 0 {
		return model.NewMaterialNotFoundError(materialID)
	}

	materials := append(course.Materials[:idx], course.Materials[idx+1:]...)
	return s.courses.UpdateMaterials(ctx, courseID, materials)
}

// buildMaterial は入力を検証して新しい教材を構築する。
func (s *Service) buildMaterial(input CreateMaterialInput) (*model.Material, error) {
	name := s.sanitizer.Sanitize(input.Name)
	if name == "" {
		return nil, model.NewInvalidMaterialError("nameは必須です")
	}

	material := &model.Material{
		ID:          uuid.NewString(),
		Type:        input.Type,
		Name:        name,
		Description: s.sanitizer.Sanitize(input.Description),
		CreatedAt:   time.Now(),
	}

	switch input.Type {
	case model.MaterialTypeURL:
		if input.URL == "" {
			return nil, model.NewInvalidMaterialError("url教材にはurlが必要です")
		}
		if err := s.validator.ValidateURL(input.URL); err != nil {
			return nil, model.NewInvalidMaterialError(fmt.Sprintf("urlが不正です: %v", err))
		}
		material.URL = input.URL
	case model.MaterialTypeFile:
		material.FileURL = input.FileURL
		if input.MimeType != "" {
			mime := input.MimeType
			material.MimeType = &mime
		}
		material.SizeBytes = input.SizeBytes
	default:
		return nil, model.NewInvalidMaterialError(fmt.Sprintf("未知のtype: %s", input.Type))
	}

	return material, nil
}

// enrichMaterial はURL教材のリンク先タイトルとfavicon URLを取得して保存する。
// タイトルは教材名の候補としてクライアントに提示するために保持する。
// 教材作成はすでに成功しているため、ここでの失敗はログに残すだけでよい。
func (s *Service) enrichMaterial(ctx context.Context, courseID, materialID, pageURL string) {
	meta, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		slog.Warn("リンクメタデータの取得に失敗",
			"course_id", courseID, "material_id", materialID, "url", pageURL, "error", err)
		if s.metrics != nil {
			s.metrics.RecordLinkFetchFailure()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.RecordLinkFetchSuccess()
	}
	if meta.Title == "" && meta.FaviconURL == nil {
		return
	}

	// 取得中に教材が削除・変更されている可能性があるため読み直す
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil || course == nil {
		return
	}
	idx := findMaterial(course.Materials, materialID)
	if idx < 0 {
		return
	}

	if meta.Title != "" {
		title := s.sanitizer.Sanitize(meta.Title)
		if title != "" {
			course.Materials[idx].LinkTitle = &title
		}
	}
	course.Materials[idx].FaviconURL = meta.FaviconURL
	if err := s.courses.UpdateMaterials(ctx, courseID, course.Materials); err != nil {
		slog.Warn("リンクメタデータの保存に失敗",
			"course_id", courseID, "material_id", materialID, "error", err)
	}
}

// findMaterial は教材スライスから指定IDのインデックスを返す。見つからない場合は-1。
func findMaterial(materials []model.Material, materialID string) int {
	for i := range materials {
		if materials[i].ID == materialID {
			return i
		}
	}
	return -1
}

// compile-time interface check
var _ MaterialService = (*Service)(nil)
