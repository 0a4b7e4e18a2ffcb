package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justyntemme/docview/internal/app"
	"github.com/justyntemme/docview/internal/config"
	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/metrics"
	"github.com/justyntemme/docview/internal/model"
	"github.com/justyntemme/docview/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Config file (default ~/.config/docview/config.json)")
	mode := flag.String("mode", "", "Initial display mode: list or grid")
	sortOrder := flag.String("sort", "", "Initial sort order: name, date or size")
	search := flag.String("search", "", "Search below the start directory")
	debugSpec := flag.String("debug", "", "Debug categories, e.g. APP,FS or all")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	generate := flag.Bool("generate-config", false, "Write a default config file and exit")
	flag.Parse()

	if *debugSpec != "" {
		debug.Configure(*debugSpec)
	}
	defer debug.Sync()

	if *generate {
		backup, err := config.GenerateConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if backup != "" {
			fmt.Println("Backed up previous config to", backup)
		}
		return
	}

	if err := run(*configPath, *mode, *sortOrder, *search, *metricsAddr, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, mode, sortOrder, search, metricsAddr, startPath string) error {
	mgr := config.NewManager()
	if err := mgr.Load(configPath); err != nil {
		debug.Warn(debug.APP, "Config load failed: %v", err)
	}
	if err := mgr.ParseError(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
	}
	cfg := mgr.Get()

	if mode != "" {
		if _, err := model.ParseMode(mode); err != nil {
			return err
		}
		cfg.Display.DefaultMode = mode
	}
	if sortOrder != "" {
		if _, err := model.ParseSortOrder(sortOrder); err != nil {
			return err
		}
		cfg.Display.DefaultSort = sortOrder
	}

	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Addr
	}
	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				debug.Warn(debug.APP, "Metrics server: %v", err)
			}
		}()
		defer srv.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer := ui.NewRenderer(os.Stdout, 0, 0)
	o := app.NewOrchestrator(cfg, mgr.StorePath(), renderer)

	r := newREPL(o, renderer, mgr, cfg.Aliases, os.Stdout)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if r.exec(scanner.Text()) {
				return
			}
		}
		o.Quit()
	}()

	o.Navigate(startPath)
	if search != "" {
		o.Search(search)
	}
	return o.Run(ctx)
}
