// Package model はドメインモデルを定義する。
package model

import "time"

// FeedPostKind はフィード投稿の種類を表す。
type FeedPostKind string

const (
	// FeedPostKindManual は講師が手動で作成した投稿。
	FeedPostKindManual FeedPostKind = "manual"
	// FeedPostKindSystem は教材・クイズ作成時に自動生成される投稿。
	FeedPostKindSystem FeedPostKind = "system"
)

// AuthorRole はフィード投稿の作成者ロールを表す。
type AuthorRole string

const (
	// AuthorRoleLecturer は講師による投稿。
	AuthorRoleLecturer AuthorRole = "lecturer"
	// AuthorRoleSystem はシステムによる自動投稿。
	AuthorRoleSystem AuthorRole = "system"
)

// FeedPost はコースのフィードの1エントリを表す。
// EditedAtは一度も編集されていない間はnilで、Editedがtrueのときのみ非nilになる。
type FeedPost struct {
	ID         string
	CourseID   string
	Kind       FeedPostKind
	Message    string
	AuthorRole AuthorRole
	Edited     bool
	EditedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
