package feed

import (
	"encoding/json"
	"log/slog"

	"github.com/hitoshi/courseman/internal/metrics"
)

// Publisher はフィードイベント配信のインターフェース。
// サービス層から利用し、テストではモックに差し替える。
type Publisher interface {
	// Publish はコースの全購読者にイベントを配信する。
	// 配信はベストエフォートであり、エラーを返さない。
	Publish(courseID string, kind EventKind, payload any)
}

// Dispatcher はPublisherの実装。
// ペイロードを1回だけシリアライズし、レジストリのスナップショットに従って
// 全購読者へ書き込む。書き込みに失敗したハンドルはその場で登録解除して閉じる。
type Dispatcher struct {
	registry *Registry
	metrics  metrics.MetricsCollector
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
// metricsはnilでもよい（テスト用）。
func NewDispatcher(registry *Registry, collector metrics.MetricsCollector) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		metrics:  collector,
	}
}

// Publish はコースの全購読者にイベントを配信する。
// 購読者が0の場合は何もしない（配信先がいないことはエラーではない。
// 永続キューは持たず、発行時に接続していない購読者はそのイベントを受け取らない）。
// 1購読者への書き込み失敗は他の購読者への配信を妨げず、呼び出し元にも伝播しない。
func (d *Dispatcher) Publish(courseID string, kind EventKind, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		// ペイロードは自前の構造体なので通常は到達しない
		slog.Error("フィード配信: ペイロードのシリアライズに失敗",
			"course_id", courseID, "kind", string(kind), "error", err)
		return
	}

	// カウンタは配信数ではなく発行数を数える。購読者0でも記録する。
	if d.metrics != nil {
		d.metrics.RecordFeedEventPublished(string(kind))
	}

	handles := d.registry.SubscribersOf(courseID)
	if len(handles) == 0 {
		return
	}

	for _, h := range handles {
		if err := h.Send(kind, data); err != nil {
			// 切断済みの購読者はこのpublishの中で刈り取る
			d.registry.Unregister(courseID, h)
			h.Close()
			slog.Warn("フィード配信: 購読者への書き込みに失敗",
				"course_id", courseID, "kind", string(kind), "error", err)
			if d.metrics != nil {
				d.metrics.RecordFeedWriteFailure()
			}
		}
	}
}

// compile-time interface check
var _ Publisher = (*Dispatcher)(nil)
