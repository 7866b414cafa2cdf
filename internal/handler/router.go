package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/courseman/internal/feed"
	"github.com/hitoshi/courseman/internal/metrics"
	"github.com/hitoshi/courseman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector

	// ドメインサービス
	CourseService   CourseServiceInterface
	MaterialService MaterialServiceInterface
	QuizService     QuizServiceInterface
	FeedService     FeedServiceInterface

	// SSEストリーム
	CourseChecker CourseExistenceChecker
	Registry      *feed.Registry
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → RateLimit(General) → RateLimit(Mutation)
//
// /healthのみレート制限の対象外とする。SSEストリームは接続時に
// 通常のGETとして1トークンを消費する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))

	courseHandler := NewCourseHandler(deps.CourseService)
	materialHandler := NewMaterialHandler(deps.MaterialService)
	quizHandler := NewQuizHandler(deps.QuizService)
	feedHandler := NewFeedHandler(deps.FeedService)
	streamHandler := NewStreamHandler(deps.CourseChecker, deps.Registry, deps.Metrics)

	// ヘルスチェック（レート制限の対象外）
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(deps.RateLimiter.MutationMiddleware())

		// コース管理
		r.Route("/courses", func(r chi.Router) {
			r.Get("/", courseHandler.ListCourses)
			r.Post("/", courseHandler.CreateCourse)

			r.Route("/{courseId}", func(r chi.Router) {
				r.Get("/", courseHandler.GetCourse)
				r.Put("/", courseHandler.UpdateCourse)
				r.Delete("/", courseHandler.DeleteCourse)

				// 教材管理
				r.Route("/materials", func(r chi.Router) {
					r.Get("/", materialHandler.ListMaterials)
					r.Post("/", materialHandler.CreateMaterial)
					r.Put("/{materialId}", materialHandler.UpdateMaterial)
					r.Delete("/{materialId}", materialHandler.DeleteMaterial)
				})

				// コース配下のクイズ
				r.Route("/quizzes", func(r chi.Router) {
					r.Get("/", quizHandler.ListQuizzes)
					r.Post("/", quizHandler.CreateQuiz)
				})

				// コースフィード
				r.Route("/feed", func(r chi.Router) {
					r.Get("/", feedHandler.ListPosts)
					r.Post("/", feedHandler.CreatePost)
					r.Get("/stream", streamHandler.Stream)
					r.Put("/{postId}", feedHandler.EditPost)
					r.Delete("/{postId}", feedHandler.DeletePost)
				})
			})
		})

		// クイズ単体の操作
		r.Route("/quizzes/{quizId}", func(r chi.Router) {
			r.Get("/detail", quizHandler.GetQuizDetail)
			r.Get("/take", quizHandler.GetQuizForTaking)
			r.Put("/", quizHandler.UpdateQuiz)
			r.Delete("/", quizHandler.DeleteQuiz)

			r.Put("/questions/{questionId}", quizHandler.UpdateQuestion)
			r.Delete("/questions/{questionId}", quizHandler.DeleteQuestion)

			r.Post("/submit", quizHandler.Submit)
			r.Get("/results", quizHandler.Results)
		})
	})

	return r
}
