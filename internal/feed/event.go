// Package feed はコースフィードの永続化と購読者へのライブ配信を提供する。
package feed

import (
	"time"

	"github.com/hitoshi/courseman/internal/model"
)

// EventKind はフィードイベントの種類を表す。
// SSEのeventフィールドにそのまま書き出される。
type EventKind string

const (
	// EventNewPost は投稿作成イベント。
	EventNewPost EventKind = "new_post"
	// EventUpdatedPost は投稿編集イベント。
	EventUpdatedPost EventKind = "updated_post"
	// EventDeletedPost は投稿削除イベント。ペイロードはIDのみ。
	EventDeletedPost EventKind = "deleted_post"
)

// PostPayload はフィード投稿のワイヤ表現。
// APIレスポンスとSSEのdataフィールドの両方で同じ形を使う。
type PostPayload struct {
	ID         string             `json:"id"`
	CourseID   string             `json:"courseId"`
	Kind       model.FeedPostKind `json:"kind"`
	Message    string             `json:"message"`
	AuthorRole model.AuthorRole   `json:"authorRole"`
	Edited     bool               `json:"edited"`
	EditedAt   *time.Time         `json:"editedAt"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// NewPostPayload はFeedPostからワイヤ表現を構築する。
func NewPostPayload(post *model.FeedPost) PostPayload {
	return PostPayload{
		ID:         post.ID,
		CourseID:   post.CourseID,
		Kind:       post.Kind,
		Message:    post.Message,
		AuthorRole: post.AuthorRole,
		Edited:     post.Edited,
		EditedAt:   post.EditedAt,
		CreatedAt:  post.CreatedAt,
		UpdatedAt:  post.UpdatedAt,
	}
}

// DeletePayload は削除イベントのワイヤ表現。
// 投稿本体は既に存在しないため、IDのみを配信する。
type DeletePayload struct {
	ID string `json:"id"`
}
