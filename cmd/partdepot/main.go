package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/partdepot/partdepot/config"
	"github.com/partdepot/partdepot/internal/adminapi"
	"github.com/partdepot/partdepot/internal/app"
	"github.com/partdepot/partdepot/internal/webserver"
)

var (
	cfile    = flag.String("c", "/etc/partdepot.yml", "config file")
	initdb   = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	showVer  = flag.Bool("v", false, "print version and exit")
	gitBuild = "dev"
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println("partdepot", gitBuild)
		return
	}

	cfg := config.LoadConfig(*cfile)
	_ = os.MkdirAll(cfg.System.Workdir, 0o755)

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	server := webserver.Init(application)
	adminapi.InitRouter()

	go func() {
		if err := server.Listen(); err != nil {
			zap.L().Error("web server stopped", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	zap.L().Info("shutting down")
	_ = server.Shutdown()
}
