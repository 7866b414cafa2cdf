package feed

import "sync"

// Handle は1本の購読接続への書き込み可能なハンドル。
// 実体はSSEレスポンスライターだが、レジストリとディスパッチャからは
// このインターフェースを通してのみ触る。
type Handle interface {
	// Send は1イベントを購読者に書き込む。
	// 接続が既に切断されている場合はエラーを返す。
	Send(kind EventKind, data []byte) error

	// Close は基盤のトランスポートを閉じる。複数回呼んでも安全であること。
	Close()
}

// Registry はコースIDから購読中の接続ハンドル集合へのマッピング。
// プロセス全体で1つだけ生成され、ゲートウェイとディスパッチャに注入される。
type Registry struct {
	mu   sync.RWMutex
	subs map[string]map[Handle]struct{}
}

// NewRegistry はRegistryの新しいインスタンスを生成する。
func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[string]map[Handle]struct{}),
	}
}

// Register はコースの購読者集合にハンドルを追加する。
// 集合が無ければ作成する。コースの存在確認は呼び出し側の責務。
func (r *Registry) Register(courseID string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.subs[courseID]
	if !ok {
		set = make(map[Handle]struct{})
		r.subs[courseID] = set
	}
	set[h] = struct{}{}
}

// Unregister はハンドルを購読者集合から取り除く。
// 切断経路と書き込み失敗経路が同じハンドルの除去を競合して呼ぶことがあるため、
// 既に存在しない場合もエラーにはしない（冪等）。
// 空になった集合はコース削除まで残してよい。
func (r *Registry) Unregister(courseID string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.subs[courseID]
	if !ok {
		return
	}
	delete(set, h)
}

// SubscribersOf は現在の購読者集合のスナップショットを返す。
// スナップショット取得後の登録・除去は返却済みスライスに影響しない。
func (r *Registry) SubscribersOf(courseID string) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.subs[courseID]
	if !ok {
		return nil
	}

	handles := make([]Handle, 0, len(set))
	for h := range set {
		handles = append(handles, h)
	}
	return handles
}

// DropCourse はコースの全ハンドルを強制的に閉じて集合ごと削除する。
// コース削除時に呼ばれ、存在しなくなったコースのストリームへの
// 以降の書き込みを防ぐ。
func (r *Registry) DropCourse(courseID string) {
	r.mu.Lock()
	set, ok := r.subs[courseID]
	if ok {
		delete(r.subs, courseID)
	}
	r.mu.Unlock()

	// Closeは接続の切断を待つ可能性があるためロックの外で呼ぶ
	for h := range set {
		h.Close()
	}
}

// SubscriberCount は指定コースの現在の購読者数を返す。
func (r *Registry) SubscriberCount(courseID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[courseID])
}
