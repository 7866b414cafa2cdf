package handler

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/courseman/internal/feed"
	"github.com/hitoshi/courseman/internal/metrics"
	"github.com/hitoshi/courseman/internal/model"
)

// CourseExistenceChecker はストリーム開始前のコース存在確認を行う依存。
type CourseExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// StreamHandler はコースフィードのSSEストリームを提供するHTTPハンドラー。
// 接続ごとにsseHandleを生成してレジストリに登録し、切断まで保持する。
type StreamHandler struct {
	courses  CourseExistenceChecker
	registry *feed.Registry
	metrics  metrics.MetricsCollector
}

// NewStreamHandler はStreamHandlerを生成する。collectorはnilでもよい。
func NewStreamHandler(courses CourseExistenceChecker, registry *feed.Registry, collector metrics.MetricsCollector) *StreamHandler {
	return &StreamHandler{
		courses:  courses,
		registry: registry,
		metrics:  collector,
	}
}

// Stream はSSEストリームを開始する。
// GET /courses/{courseId}/feed/stream
//
// 接続確立時に `: connected` コメントを送り、以降はディスパッチャ経由で
// `event: <kind>` と `data: <json>` のブロックを配信する。
// クライアント切断またはコース削除（DropCourse）まで応答し続ける。
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	exists, err := h.courses.Exists(r.Context(), courseID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !exists {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewCourseNotFoundError(courseID))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     "STREAMING_UNSUPPORTED",
			Message:  "ストリーミングに対応していない接続です。",
			Category: "system",
			Action:   "SSEに対応したクライアントで接続してください。",
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// 接続確立をクライアントに伝えるコメント行
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	handle := newSSEHandle(w, flusher)
	h.registry.Register(courseID, handle)
	if h.metrics != nil {
		h.metrics.RecordSubscriberOpened()
	}

	defer func() {
		// クローズを先に確定させる。ディスパッチャが切断前のスナップショットを
		// 持っていても、以降のSendは書き込まずにエラーを返す。
		handle.Close()
		h.registry.Unregister(courseID, handle)
		if h.metrics != nil {
			h.metrics.RecordSubscriberClosed()
		}
	}()

	// クライアント切断か強制クローズ（コース削除）まで待つ
	select {
	case <-r.Context().Done():
	case <-handle.closed:
	}
}

// sseHandle は1本のSSE接続に対するfeed.Handleの実装。
// Sendはディスパッチャのゴルーチンから、Closeはレジストリから呼ばれるため、
// 書き込みはミューテックスで直列化する。
type sseHandle struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher

	closeOnce sync.Once
	closed    chan struct{}
}

// newSSEHandle はsseHandleを生成する。
func newSSEHandle(w http.ResponseWriter, flusher http.Flusher) *sseHandle {
	return &sseHandle{
		w:       w,
		flusher: flusher,
		closed:  make(chan struct{}),
	}
}

// Send は1イベントをSSEブロックとして書き込む。
// 既にクローズ済みの場合はエラーを返す。
func (h *sseHandle) Send(kind feed.EventKind, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.closed:
		return fmt.Errorf("接続は既に閉じられています")
	default:
	}

	if _, err := fmt.Fprintf(h.w, "event: %s\ndata: %s\n\n", kind, data); err != nil {
		return fmt.Errorf("SSEイベントの書き込みに失敗しました: %w", err)
	}
	h.flusher.Flush()
	return nil
}

// Close はハンドラのゴルーチンに終了を通知する。複数回呼んでも安全。
// Sendと同じミューテックスの下でクローズ状態を確定させることで、
// 実行中の書き込みを待ってから以降のSendを失敗させる。
func (h *sseHandle) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		close(h.closed)
	})
}

// compile-time interface check
var _ feed.Handle = (*sseHandle)(nil)
