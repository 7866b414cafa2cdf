package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/courseman/internal/model"
)

// PostgresQuizResultRepo はPostgreSQLを使用したクイズ結果リポジトリ。
type PostgresQuizResultRepo struct {
	db *sql.DB
}

// NewPostgresQuizResultRepo はPostgresQuizResultRepoを生成する。
func NewPostgresQuizResultRepo(db *sql.DB) *PostgresQuizResultRepo {
	return &PostgresQuizResultRepo{db: db}
}

// Create は採点結果を保存する。
func (r *PostgresQuizResultRepo) Create(ctx context.Context, result *model.QuizResult) error {
	answers := result.Answers
	if answers == nil {
		answers = []model.Answer{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("回答JSONの生成に失敗しました: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO quiz_results (id, quiz_id, answers, score, is_passed, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		result.ID, result.QuizID, answersJSON,
		result.Score, result.IsPassed, result.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("採点結果の保存に失敗しました: %w", err)
	}
	return nil
}

// ListByQuiz はクイズの提出結果を提出日時の降順で返す。
func (r *PostgresQuizResultRepo) ListByQuiz(ctx context.Context, quizID string) ([]*model.QuizResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, quiz_id, answers, score, is_passed, submitted_at
		 FROM quiz_results
		 WHERE quiz_id = $1
		 ORDER BY submitted_at DESC`,
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("採点結果一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []*model.QuizResult
	for rows.Next() {
		result := &model.QuizResult{}
		var answersJSON []byte

		if err := rows.Scan(
			&result.ID, &result.QuizID, &answersJSON,
			&result.Score, &result.IsPassed, &result.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("採点結果の読み取りに失敗しました: %w", err)
		}

		if len(answersJSON) > 0 {
			if err := json.Unmarshal(answersJSON, &result.Answers); err != nil {
				return nil, fmt.Errorf("回答JSONの解析に失敗しました: %w", err)
			}
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("採点結果一覧の走査に失敗しました: %w", err)
	}

	return results, nil
}

// compile-time interface check
var _ QuizResultRepository = (*PostgresQuizResultRepo)(nil)
