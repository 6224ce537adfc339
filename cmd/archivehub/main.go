// FilePath: cmd/archivehub/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"

	"github.com/skyfield/archivehub/internal/config"
	"github.com/skyfield/archivehub/internal/daylight"
	"github.com/skyfield/archivehub/internal/daylong"
	"github.com/skyfield/archivehub/internal/executor"
	"github.com/skyfield/archivehub/internal/models"
	"github.com/skyfield/archivehub/internal/notify"
	"github.com/skyfield/archivehub/internal/registry"
	"github.com/skyfield/archivehub/internal/server"
	"github.com/skyfield/archivehub/internal/storage"
	"github.com/skyfield/archivehub/internal/video"
)

func main() {
	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	// Initialize version info
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting ArchiveHub storage server v%s", nuts.GetVersion())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		nuts.L.Fatalf("[Main] Failed to initialize resource registry: %v", err)
	}
	defer reg.Close()

	advisor := daylight.NewAdvisor(daylight.FixedCalculator{
		SunriseHour: cfg.Daylight.SunriseHour,
		SunsetHour:  cfg.Daylight.SunsetHour,
	})
	tools := video.NewFFmpegToolset(cfg.Video)
	engine := storage.NewEngine(cfg.Storage, advisor, tools)

	resources, err := reg.ListAll(context.Background())
	if err != nil {
		nuts.L.Fatalf("[Main] Failed to list resources: %v", err)
	}
	seed := make([]models.Resource, 0, len(resources))
	for _, r := range resources {
		seed = append(seed, *r)
	}
	if err := engine.EnsureGenericFolders(seed); err != nil {
		nuts.L.Fatalf("[Main] Failed to prepare storage folders: %v", err)
	}

	builder := daylong.NewBuilder(engine, tools, buildLocker(cfg), notify.LogNotifier{},
		cfg.Video, cfg.Storage.HourMovieLength)
	exec := executor.New(reg, engine, builder)

	srv := server.New(cfg, exec, engine)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

func buildRegistry(cfg *config.Config) (registry.Registry, error) {
	if cfg.Registry.Host != "" {
		return registry.NewPostgresRegistry(cfg.Registry)
	}
	nuts.L.Infof("[Main] No registry database configured, using static resource list")
	return registry.NewStaticRegistry(cfg.Resources), nil
}

func buildLocker(cfg *config.Config) daylong.Locker {
	if cfg.Redis.Host == "" {
		return daylong.NewLocalLocker()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return daylong.NewRedisLocker(client)
}

// ClearConsole clears the console screen and draws the logo.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"    ___              __    _           __  __      __  ",
		"   /   |  __________/ /_  (_)  _____  / / / /_  __/ /_ ",
		"  / /| | / ___/ ___/ __ \\/ / | / / _ \\/ /_/ / / / / __ \\",
		" / ___ |/ /  / /__/ / / / /| |/ /  __/ __  / /_/ / /_/ /",
		"/_/  |_/_/   \\___/_/ /_/_/ |___/\\___/_/ /_/\\__,_/_.___/ ",
		"........................................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
