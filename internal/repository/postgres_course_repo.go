package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/courseman/internal/model"
)

// PostgresCourseRepo はPostgreSQLを使用したコースリポジトリ。
type PostgresCourseRepo struct {
	db *sql.DB
}

// NewPostgresCourseRepo はPostgresCourseRepoを生成する。
func NewPostgresCourseRepo(db *sql.DB) *PostgresCourseRepo {
	return &PostgresCourseRepo{db: db}
}

// List は全コースを作成日時の降順で返す。教材は含まない。
func (r *PostgresCourseRepo) List(ctx context.Context) ([]*model.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM courses
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("コース一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var courses []*model.Course
	for rows.Next() {
		course := &model.Course{}
		if err := rows.Scan(
			&course.ID, &course.Name, &course.Description,
			&course.CreatedAt, &course.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("コース一覧の読み取りに失敗しました: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コース一覧の走査に失敗しました: %w", err)
	}

	return courses, nil
}

// FindByID は指定IDのコースを教材込みで取得する。見つからない場合はnilを返す。
// UUIDとして解釈できないIDも「見つからない」として扱う。
func (r *PostgresCourseRepo) FindByID(ctx context.Context, id string) (*model.Course, error) {
	if !isUUID(id) {
		return nil, nil
	}

	course := &model.Course{}
	var materialsJSON []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, materials, created_at, updated_at
		 FROM courses WHERE id = $1`,
		id,
	).Scan(
		&course.ID, &course.Name, &course.Description,
		&materialsJSON, &course.CreatedAt, &course.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コースの取得に失敗しました: %w", err)
	}

	if len(materialsJSON) > 0 {
		if err := json.Unmarshal(materialsJSON, &course.Materials); err != nil {
			return nil, fmt.Errorf("教材JSONの解析に失敗しました: %w", err)
		}
	}

	return course, nil
}

// Exists は指定IDのコースが存在するかを返す。
// UUIDとして解釈できないIDは存在しないものとして扱う。
func (r *PostgresCourseRepo) Exists(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("コースの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Create はコースを作成する。
func (r *PostgresCourseRepo) Create(ctx context.Context, course *model.Course) error {
	materialsJSON, err := marshalMaterials(course.Materials)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO courses (id, name, description, materials, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		course.ID, course.Name, course.Description, materialsJSON,
		course.CreatedAt, course.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("コースの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はコースの名前・説明を更新する。
func (r *PostgresCourseRepo) Update(ctx context.Context, course *model.Course) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE courses SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		course.ID, course.Name, course.Description, course.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("コースの更新に失敗しました: %w", err)
	}
	return nil
}

// UpdateMaterials はコースの教材JSONBカラムを丸ごと置き換える。
func (r *PostgresCourseRepo) UpdateMaterials(ctx context.Context, courseID string, materials []model.Material) error {
	materialsJSON, err := marshalMaterials(materials)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE courses SET materials = $2, updated_at = $3 WHERE id = $1`,
		courseID, materialsJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("教材の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのコースを削除する。
func (r *PostgresCourseRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("コースの削除に失敗しました: %w", err)
	}
	return nil
}

// marshalMaterials は教材スライスをJSONB保存用のバイト列に変換する。
// nilスライスは空配列として保存する。
func marshalMaterials(materials []model.Material) ([]byte, error) {
	if materials == nil {
		materials = []model.Material{}
	}
	data, err := json.Marshal(materials)
	if err != nil {
		return nil, fmt.Errorf("教材JSONの生成に失敗しました: %w", err)
	}
	return data, nil
}

// compile-time interface check
var _ CourseRepository = (*PostgresCourseRepo)(nil)
