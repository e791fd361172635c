package http

import (
	"net/http"

	"quiz-event-service/internal/app"
	"github.com/rs/cors"
)

// NewRouter wires every endpoint behind a permissive CORS policy: any origin,
// method and header, with credentials.
func NewRouter(service *app.QuizService) http.Handler {
	handler := NewHandler(service)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /login-or-register", handler.LoginOrRegister)
	mux.HandleFunc("GET /questions", handler.Questions)
	mux.HandleFunc("POST /submit-score", handler.SubmitScore)
	mux.HandleFunc("GET /ws/scores", wsHandler.ServeScores)

	policy := cors.New(cors.Options{
		AllowOriginFunc: func(string) bool { return true },
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return policy.Handler(mux)
}
