package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/courseman/internal/model"
)

// PostgresFeedPostRepo はPostgreSQLを使用したフィード投稿リポジトリ。
type PostgresFeedPostRepo struct {
	db *sql.DB
}

// NewPostgresFeedPostRepo はPostgresFeedPostRepoを生成する。
func NewPostgresFeedPostRepo(db *sql.DB) *PostgresFeedPostRepo {
	return &PostgresFeedPostRepo{db: db}
}

// ListByCourse はコースのフィード投稿を作成日時の降順で返す。
func (r *PostgresFeedPostRepo) ListByCourse(ctx context.Context, courseID string) ([]*model.FeedPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, kind, message, author_role, edited, edited_at, created_at, updated_at
		 FROM course_feed_posts
		 WHERE course_id = $1
		 ORDER BY created_at DESC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("フィード投稿一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var posts []*model.FeedPost
	for rows.Next() {
		post, err := scanFeedPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フィード投稿一覧の走査に失敗しました: %w", err)
	}

	return posts, nil
}

// FindByID はコースIDと投稿IDで投稿を取得する。見つからない場合はnilを返す。
// UUIDとして解釈できないIDも「見つからない」として扱う。
func (r *PostgresFeedPostRepo) FindByID(ctx context.Context, courseID, postID string) (*model.FeedPost, error) {
	if !isUUID(courseID) || !isUUID(postID) {
		return nil, nil
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT id, course_id, kind, message, author_role, edited, edited_at, created_at, updated_at
		 FROM course_feed_posts
		 WHERE course_id = $1 AND id = $2`,
		courseID, postID,
	)

	post, err := scanFeedPost(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Create は投稿を作成する。
func (r *PostgresFeedPostRepo) Create(ctx context.Context, post *model.FeedPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO course_feed_posts (id, course_id, kind, message, author_role, edited, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		post.ID, post.CourseID, string(post.Kind), post.Message,
		string(post.AuthorRole), post.Edited, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("フィード投稿の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は投稿の本文と編集フラグを更新する。
func (r *PostgresFeedPostRepo) Update(ctx context.Context, post *model.FeedPost) error {
	var editedAt sql.NullTime
	if post.EditedAt != nil {
		editedAt = sql.NullTime{Time: *post.EditedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE course_feed_posts
		 SET message = $3, edited = $4, edited_at = $5, updated_at = $6
		 WHERE course_id = $1 AND id = $2`,
		post.CourseID, post.ID, post.Message, post.Edited, editedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("フィード投稿の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID はコースIDと投稿IDで投稿を削除する。
func (r *PostgresFeedPostRepo) DeleteByID(ctx context.Context, courseID, postID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM course_feed_posts WHERE course_id = $1 AND id = $2`,
		courseID, postID,
	)
	if err != nil {
		return fmt.Errorf("フィード投稿の削除に失敗しました: %w", err)
	}
	return nil
}

// scanFeedPost は1行分のフィード投稿を読み取る。
func scanFeedPost(scan func(dest ...any) error) (*model.FeedPost, error) {
	post := &model.FeedPost{}
	var kind, authorRole string
	var editedAt sql.NullTime

	err := scan(
		&post.ID, &post.CourseID, &kind, &post.Message,
		&authorRole, &post.Edited, &editedAt,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("フィード投稿の読み取りに失敗しました: %w", err)
	}

	post.Kind = model.FeedPostKind(kind)
	post.AuthorRole = model.AuthorRole(authorRole)
	if editedAt.Valid {
		t := editedAt.Time
		post.EditedAt = &t
	}

	return post, nil
}

// compile-time interface check
var _ FeedPostRepository = (*PostgresFeedPostRepo)(nil)
