package repository

import "github.com/google/uuid"

// isUUID は文字列がUUIDとして解釈できるかを返す。
// uuid型カラムへの問い合わせ前に検証する。形式不正なIDをそのまま渡すと
// Postgresがキャストエラー（22P02）を返すため、「存在しない」と同じ扱いにする。
func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
