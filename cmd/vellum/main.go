// cmd/vellum/main.go
//
// Vellum – static site generator entry point.
//
// Subcommands
// -----------
//
//	vellum build        – one-shot site build (the default)
//	vellum serve        – build, then serve the output with optional rebuild
//	                      on source changes and Prometheus metrics on /metrics
//	vellum init [dir]   – scaffold a starter project (default: current dir)
//	vellum now          – print the current UTC datetime in the front-matter
//	                      format, for pasting into published_datetime
//
// Startup order matters: env file → logger → config → run.  The logger
// comes up before config so config errors land in the daily log, and
// config cannot come first because it needs VELLUM_* env overrides.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yanizio/vellum/internal/config"
	"github.com/yanizio/vellum/internal/logger"
	"github.com/yanizio/vellum/internal/metrics"
	"github.com/yanizio/vellum/internal/scaffold"
	"github.com/yanizio/vellum/internal/server"
	"github.com/yanizio/vellum/internal/site"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "build"
	}

	// `vellum now` and `vellum init` need no config or logger.
	if cmd == "now" {
		fmt.Println(time.Now().UTC().Format("2006-01-02T15:04:05Z"))
		return
	}
	if cmd == "init" {
		dest := flag.Arg(1)
		if dest == "" {
			dest = "."
		}
		if err := scaffold.Create(dest); err != nil {
			log.Fatalf("init: %v", err)
		}
		abs, _ := filepath.Abs(dest)
		fmt.Printf("project created at %s\n", abs)
		return
	}

	_ = godotenv.Load()

	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY(), *verbose)
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	builder := site.New(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "build":
		start := time.Now()
		if err := builder.Build(ctx); err != nil {
			logOut.Fatalf("build: %v", err)
		}
		logOut.Infow("build finished", "took", time.Since(start).String())

	case "serve":
		if err := builder.Build(ctx); err != nil {
			logOut.Fatalf("build: %v", err)
		}
		metrics.RebuildsTotal.Inc()

		buildDir := cfg.Paths.Abs(cfg.Paths.Build)
		srv := server.New(cfg.Serve.ListenAddr, server.Handler(buildDir))

		if cfg.Serve.Watch {
			roots := []string{
				cfg.Paths.Abs(cfg.Paths.Views),
				cfg.Paths.Abs(cfg.Paths.Markdown),
				cfg.Paths.Abs(cfg.Paths.Store),
				cfg.Paths.Abs(cfg.Paths.Styles),
				cfg.Paths.Abs(cfg.Paths.Scripts),
				cfg.Paths.Abs(cfg.Paths.Images),
			}
			go func() {
				if err := server.Watch(ctx, roots, builder.Build); err != nil && ctx.Err() == nil {
					logOut.Errorw("watcher stopped", "err", err)
				}
			}()
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logOut.Infow("serving site", "addr", cfg.Serve.ListenAddr, "dir", buildDir, "watch", cfg.Serve.Watch)
		if err := srv.ListenAndServe(); err != nil && ctx.Err() == nil {
			logOut.Fatalf("serve: %v", err)
		}

	default:
		logOut.Fatalf("unknown command %q (want build, serve, init, or now)", cmd)
	}
}
