// Package model はドメインモデルを定義する。
package model

import "time"

// QuestionType は設問の種類（単一選択/複数選択）を表す。
type QuestionType string

const (
	// QuestionTypeSingle は単一選択の設問。
	QuestionTypeSingle QuestionType = "single"
	// QuestionTypeMultiple は複数選択の設問。
	QuestionTypeMultiple QuestionType = "multiple"
)

// Question はクイズの設問を表す。
// クイズのquestions JSONBカラムにそのままシリアライズされるためjsonタグを持つ。
type Question struct {
	ID             string       `json:"id"`
	Type           QuestionType `json:"type"`
	Text           string       `json:"text"`
	Options        []string     `json:"options"`
	CorrectAnswers []string     `json:"correctAnswers,omitempty"`
}

// Quiz はコースに属するクイズを表す。
type Quiz struct {
	ID            string
	CourseID      string
	Title         string
	Description   string
	Questions     []Question
	AttemptsCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Answer は受講者の1設問に対する回答を表す。
// 採点後はIsCorrectが設定され、結果のanswers JSONBカラムに保存される。
type Answer struct {
	QuestionID      string   `json:"questionId"`
	SelectedOptions []string `json:"selectedOptions"`
	IsCorrect       *bool    `json:"isCorrect,omitempty"`
}

// QuizResult はクイズ提出の採点結果を表す。
// Scoreは0〜100のパーセント値。50以上でIsPassedがtrueになる。
type QuizResult struct {
	ID          string
	QuizID      string
	Answers     []Answer
	Score       float64
	IsPassed    bool
	SubmittedAt time.Time
}

// PassingScore は合格となる最低スコア（パーセント）。
const PassingScore = 50.0
