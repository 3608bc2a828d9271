package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/konema-hr/hrmis-backend-go/internal/handler/http/middleware"
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/jwt"
)

func NewRouter(jwtService jwt.Service, payrollHandler PayrollHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hrmis-payroll"),
		slog.String("version", "v1.0.0"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/payroll", func(r chi.Router) {
				// HR / admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RoleRequired("hr", "admin"))

					r.Route("/runs", func(r chi.Router) {
						r.Post("/", payrollHandler.CreateRun)
						r.Get("/", payrollHandler.ListRuns)
						r.Get("/{id}", payrollHandler.GetRun)
						r.Post("/{id}/generate", payrollHandler.GenerateRun)
						r.Post("/{id}/close", payrollHandler.CloseRun)
						r.Post("/{id}/reopen", payrollHandler.ReopenRun)
						r.Get("/{id}/payslips", payrollHandler.ListRunPayslips)
						r.Get("/{id}/variable-inputs", payrollHandler.ListVariableInputs)
					})

					r.Get("/payslips/{id}", payrollHandler.GetPayslip)
					r.Post("/variable-inputs", payrollHandler.CreateVariableInput)
				})

				r.Get("/components", payrollHandler.ListComponents)
				r.Get("/me/payslips", payrollHandler.ListMyPayslips)
			})
		})
	})
	return r
}
