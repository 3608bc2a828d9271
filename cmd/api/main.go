package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/konema-hr/hrmis-backend-go/internal/config"
	payrollDomain "github.com/konema-hr/hrmis-backend-go/internal/domain/payroll"
	appHTTP "github.com/konema-hr/hrmis-backend-go/internal/handler/http"
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/database"
	"github.com/konema-hr/hrmis-backend-go/internal/pkg/jwt"
	"github.com/konema-hr/hrmis-backend-go/internal/repository/postgresql"
	notificationService "github.com/konema-hr/hrmis-backend-go/internal/service/notification"
	payrollService "github.com/konema-hr/hrmis-backend-go/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	referenceRepo := postgresql.NewReferenceRepository(db)
	compensationRepo := postgresql.NewCompensationRepository(db)
	runRepo := postgresql.NewRunRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	situationRepo := postgresql.NewSituationRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	dispatcher := notificationService.NewDispatcher(notificationRepo, notificationService.Config{
		BatchSize:     cfg.Payroll.NotifyBatchSize,
		FlushInterval: cfg.Payroll.NotifyFlushInterval,
		WorkerCount:   cfg.Payroll.NotifyWorkers,
		QueueSize:     cfg.Payroll.NotifyQueueSize,
	})
	defer dispatcher.Stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	runService := payrollService.NewRunService(
		db,
		referenceRepo,
		compensationRepo,
		runRepo,
		employeeRepo,
		situationRepo,
		dispatcher,
		payrollDomain.MissingRatePolicy(cfg.Payroll.OnMissingRate),
		logger,
	)

	payrollHandler := appHTTP.NewPayrollHandler(runService)

	router := appHTTP.NewRouter(jwtService, payrollHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
