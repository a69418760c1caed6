// bspview renders a GoldSrc (BSP v30) map with its textures and lightmaps.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/bspview/internal/config"
	"github.com/Faultbox/bspview/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	args := config.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: bspview [flags] <map.bsp>")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== BSP Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := NewViewer(cfg, args[0], logger.Log)
	if err != nil {
		logger.Error("failed to open map", zap.String("path", args[0]), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	defer v.Close()

	v.Run()
	logger.Info("viewer closed normally")
}
