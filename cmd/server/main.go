package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/itangbaotop/manuflex-sub000/internal/application/services"
	"github.com/itangbaotop/manuflex-sub000/internal/bootstrap"
	"github.com/itangbaotop/manuflex-sub000/internal/infrastructure/database"
	"github.com/itangbaotop/manuflex-sub000/internal/infrastructure/persistence"
	"github.com/itangbaotop/manuflex-sub000/internal/interfaces/rest"
)

func main() {
	// Optional .env for local development; env vars win in deployment.
	if err := godotenv.Load(); err == nil {
		log.Println("📝 Loaded .env file")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3002"
	}

	conn, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db := conn.DB()
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize definition tables: %v", err)
	}

	catalog := persistence.NewColumnCatalog(db)
	tableSvc := services.NewTableService(persistence.NewTableRepository(db, catalog), catalog)
	schemaSvc := services.NewSchemaService(
		persistence.NewSchemaRepository(db),
		tableSvc,
		persistence.NewTransactionManager(db),
	)
	recordSvc := services.NewRecordService(schemaSvc, persistence.NewRecordRepository(db))
	log.Println("🔧 Services initialized")

	router := rest.NewRouter(schemaSvc, recordSvc)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⚠️ Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	_ = conn.Close()
	log.Println("✅ Server stopped")
}
