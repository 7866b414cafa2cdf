// Package model はドメインモデルを定義する。
package model

import "time"

// Course は講師が開設するコースを表す。
// MaterialsはJSONBカラムに埋め込みで保存される。
type Course struct {
	ID          string
	Name        string
	Description string
	Materials   []Material
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MaterialType は教材の種類を表す。
type MaterialType string

const (
	// MaterialTypeURL はリンク教材。
	MaterialTypeURL MaterialType = "url"
	// MaterialTypeFile はファイル教材（メタデータのみ。実ファイルは扱わない）。
	MaterialTypeFile MaterialType = "file"
)

// Material はコースに添付される教材を表す。
// コースのJSONBカラムにそのままシリアライズされるためjsonタグを持つ。
type Material struct {
	ID          string       `json:"id"`
	Type        MaterialType `json:"type"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	URL         string       `json:"url,omitempty"`
	FaviconURL  *string      `json:"faviconUrl"`
	LinkTitle   *string      `json:"linkTitle,omitempty"`
	FileURL     string       `json:"fileUrl,omitempty"`
	MimeType    *string      `json:"mimeType,omitempty"`
	SizeBytes   int64        `json:"sizeBytes,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}
