package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/courseman/internal/model"
)

// PostgresQuizRepo はPostgreSQLを使用したクイズリポジトリ。
type PostgresQuizRepo struct {
	db *sql.DB
}

// NewPostgresQuizRepo はPostgresQuizRepoを生成する。
func NewPostgresQuizRepo(db *sql.DB) *PostgresQuizRepo {
	return &PostgresQuizRepo{db: db}
}

// ListByCourse はコースのクイズ一覧を作成日時の降順で返す。
func (r *PostgresQuizRepo) ListByCourse(ctx context.Context, courseID string) ([]*model.Quiz, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, title, description, questions, attempts_count, created_at, updated_at
		 FROM quizzes
		 WHERE course_id = $1
		 ORDER BY created_at DESC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("クイズ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var quizzes []*model.Quiz
	for rows.Next() {
		quiz, err := scanQuiz(rows.Scan)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("クイズ一覧の走査に失敗しました: %w", err)
	}

	return quizzes, nil
}

// FindByID は指定IDのクイズを取得する。見つからない場合はnilを返す。
// UUIDとして解釈できないIDも「見つからない」として扱う。
func (r *PostgresQuizRepo) FindByID(ctx context.Context, id string) (*model.Quiz, error) {
	if !isUUID(id) {
		return nil, nil
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT id, course_id, title, description, questions, attempts_count, created_at, updated_at
		 FROM quizzes WHERE id = $1`,
		id,
	)

	quiz, err := scanQuiz(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

// Create はクイズを作成する。
func (r *PostgresQuizRepo) Create(ctx context.Context, quiz *model.Quiz) error {
	questionsJSON, err := marshalQuestions(quiz.Questions)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO quizzes (id, course_id, title, description, questions, attempts_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		quiz.ID, quiz.CourseID, quiz.Title, quiz.Description,
		questionsJSON, quiz.AttemptsCount, quiz.CreatedAt, quiz.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("クイズの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はクイズのタイトル・説明・設問を更新する。
func (r *PostgresQuizRepo) Update(ctx context.Context, quiz *model.Quiz) error {
	questionsJSON, err := marshalQuestions(quiz.Questions)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE quizzes SET title = $2, description = $3, questions = $4, updated_at = $5
		 WHERE id = $1`,
		quiz.ID, quiz.Title, quiz.Description, questionsJSON, quiz.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("クイズの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのクイズを削除する。
func (r *PostgresQuizRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("クイズの削除に失敗しました: %w", err)
	}
	return nil
}

// IncrementAttempts は提出回数カウンタを1増やす。
func (r *PostgresQuizRepo) IncrementAttempts(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE quizzes SET attempts_count = attempts_count + 1, updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("提出回数の更新に失敗しました: %w", err)
	}
	return nil
}

// scanQuiz は1行分のクイズを読み取る。
func scanQuiz(scan func(dest ...any) error) (*model.Quiz, error) {
	quiz := &model.Quiz{}
	var questionsJSON []byte

	err := scan(
		&quiz.ID, &quiz.CourseID, &quiz.Title, &quiz.Description,
		&questionsJSON, &quiz.AttemptsCount, &quiz.CreatedAt, &quiz.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("クイズの読み取りに失敗しました: %w", err)
	}

	if len(questionsJSON) > 0 {
		if err := json.Unmarshal(questionsJSON, &quiz.Questions); err != nil {
			return nil, fmt.Errorf("設問JSONの解析に失敗しました: %w", err)
		}
	}

	return quiz, nil
}

// marshalQuestions は設問スライスをJSONB保存用のバイト列に変換する。
// nilスライスは空配列として保存する。
func marshalQuestions(questions []model.Question) ([]byte, error) {
	if questions == nil {
		questions = []model.Question{}
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("設問JSONの生成に失敗しました: %w", err)
	}
	return data, nil
}

// compile-time interface check
var _ QuizRepository = (*PostgresQuizRepo)(nil)
