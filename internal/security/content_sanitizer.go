// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はフィード投稿の本文や教材の名前・説明など、
// クライアント入力のテキストをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリの厳格ポリシーで、全てのHTMLタグを除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はテキストのサニタイズ機能のインターフェースを定義する。
// フィード投稿の作成・編集時、および教材の名前・説明の保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力テキストから全てのHTMLタグを除去したプレーンテキストを返す。
	// script, iframe, style等のタグおよびon*イベント属性を含む全てのマークアップが除去される。
	// 前後の空白もトリミングされる。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// フィード投稿と教材テキストはリッチテキストを持たないため、
// タグを一切許可しないStrictPolicyを使用する。
// タグの中身のテキストは保持される（例: "<b>重要</b>なお知らせ" → "重要なお知らせ"）。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストから全てのHTMLタグを除去したプレーンテキストを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
