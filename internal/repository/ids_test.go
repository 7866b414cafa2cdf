package repository

import (
	"context"
	"testing"
)

// isUUIDがUUID形式の文字列のみを受理することを検証
func TestIsUUID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"ValidUUID", "7b3e1c52-9d04-4f7e-8a15-2c6f0de9b7a1", true},
		{"Empty", "", false},
		{"PlainString", "abc", false},
		{"PathTraversal", "../etc/passwd", false},
		{"TooLong", "7b3e1c52-9d04-4f7e-8a15-2c6f0de9b7a1x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUUID(tt.id); got != tt.want {
				t.Errorf("isUUID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

// 形式不正なIDがDB問い合わせなしで「見つからない」になることを検証。
// dbがnilのため、ガードを通過するとnilポインタ参照で失敗する。
func TestPostgresCourseRepo_MalformedIDIsNotFound(t *testing.T) {
	repo := NewPostgresCourseRepo(nil)

	course, err := repo.FindByID(context.Background(), "abc")
	if err != nil {
		t.Fatalf("FindByID error = %v, want nil", err)
	}
	if course != nil {
		t.Error("FindByID should return nil for a malformed id")
	}

	exists, err := repo.Exists(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Exists error = %v, want nil", err)
	}
	if exists {
		t.Error("Exists should return false for a malformed id")
	}
}

// クイズリポジトリでも形式不正なIDが「見つからない」になることを検証
func TestPostgresQuizRepo_MalformedIDIsNotFound(t *testing.T) {
	repo := NewPostgresQuizRepo(nil)

	quiz, err := repo.FindByID(context.Background(), "not-a-uuid")
	if err != nil {
		t.Fatalf("FindByID error = %v, want nil", err)
	}
	if quiz != nil {
		t.Error("FindByID should return nil for a malformed id")
	}
}

// フィード投稿リポジトリでも形式不正なIDが「見つからない」になることを検証
func TestPostgresFeedPostRepo_MalformedIDIsNotFound(t *testing.T) {
	repo := NewPostgresFeedPostRepo(nil)

	post, err := repo.FindByID(context.Background(), "7b3e1c52-9d04-4f7e-8a15-2c6f0de9b7a1", "not-a-uuid")
	if err != nil {
		t.Fatalf("FindByID error = %v, want nil", err)
	}
	if post != nil {
		t.Error("FindByID should return nil for a malformed post id")
	}
}
