// Command gltfinfo loads one or more glTF assets through the full
// pipeline, validates them and prints a summary of each scene.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-assets/config"
	"github.com/Carmen-Shannon/oxy-assets/diag"
	"github.com/Carmen-Shannon/oxy-assets/internal/logger"
	"github.com/Carmen-Shannon/oxy-assets/loader"
	"github.com/Carmen-Shannon/oxy-assets/texture"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	logLevel := flag.String("log-level", "", "override the configured log level")
	noTextures := flag.Bool("no-textures", false, "skip texture preloading and decoding")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: gltfinfo [flags] asset.gltf [asset.glb ...]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *noTextures {
		cfg.Loader.PreloadTextures = false
	}

	var fileCfg logger.FileConfig
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	log, err := logger.New(cfg.Logging.Level, fileCfg, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	l := loader.NewLoader(
		loader.WithLoadOptions(cfg.Loader),
		loader.WithDiagnostics(diag.New(log)),
		loader.WithTextureLoader(texture.NewDecoder(cfg.Loader.MaxTextureSize)),
	)

	failed := 0
	for _, path := range flag.Args() {
		s, err := l.Load(path)
		if err != nil {
			log.Error("load failed", zap.String("asset", path), zap.Error(err))
			failed++
			continue
		}
		fmt.Print(s.Summary())
	}
	if failed > 0 {
		os.Exit(1)
	}
}
