package main

import (
	"approvals-backend/config"
	apiv1 "approvals-backend/controllers/v1"
	"approvals-backend/fiberlog"
	"approvals-backend/initializers"
	"approvals-backend/middleware"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberRecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	initializers.InitAllServices(ctx)

	app := newApp()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-stop
		log.Info("Остановка сервиса...")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("ошибка остановки http сервера")
		}
	}()

	addr := fmt.Sprintf("%s:%d", config.Conf.App.ListenAddr, config.Conf.App.Port)
	log.WithField("addr", addr).Info("Запуск http сервера")
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
	wg.Wait()
	log.Info("Сервис остановлен")
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: int(config.Conf.App.BodyLimit),
	})
	app.Use(fiberRecover.New())
	app.Use(swagger.New(swagger.Config{
		Path:     "/swagger",
		FilePath: "./docs/swagger.json",
	}))

	apiV1 := fiber.New()
	apiV1.Use(requestid.New())
	apiV1.Use(fiberlog.New(*initializers.LoggerConfig))
	apiV1.Use(middleware.ErrNotify(config.Conf.App.ErrNotifyAddr))
	apiV1.Use(middleware.WithBodyLimit(config.Conf.App.BodyLimit))
	apiV1.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, PUT",
	}))
	app.Mount("/api/v1", apiV1)
	apiv1.InitHealthApiRouters(apiV1)

	company := fiber.New()
	company.Use(middleware.AuthorizationRequired())
	company.Use(middleware.CompanyMemberRequired())
	apiv1.InitApprovalApiRouters(company)
	apiv1.InitApprovalLevelApiRouters(company)
	apiV1.Mount("/company", company)
	return app
}
