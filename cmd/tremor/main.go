package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/views"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) || errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := LoadSettings(fs)
	if err != nil {
		return err
	}
	if ok, _ := fs.GetBool("print-config"); ok {
		return PrintSettings(os.Stdout, s)
	}

	logger, closer, err := NewLogger(s.Log, s.Headless)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
		_ = closer.Close()
	}()

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	a, err := OpenArchive(ctx, s.Archive)
	if err != nil {
		return err
	}
	if a != nil {
		defer func() { _ = a.Close() }()
	}

	ld := NewLoader(s, a, logger)
	c, err := ld.Load(ctx)
	if err != nil {
		return err
	}
	cfg, err := s.Playback.Config(logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics, err := views.NewMetrics(reg)
	if err != nil {
		return err
	}
	extra := []tremor.View{metrics}
	if stream := ld.FrameStream(ctx); stream != nil {
		extra = append(extra, stream)
	}

	if s.Metrics.Addr != "" {
		srv := serveMetrics(s.Metrics.Addr, reg, logger)
		defer func() {
			sctx, cancel := context.WithTimeout(
				context.Background(), shutdownTimeout,
			)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	if s.Headless {
		return runHeadless(ctx, s, ld, c, cfg, logger, extra)
	}
	return runTerminal(ctx, s, ld, c, cfg, logger, extra)
}

func runHeadless(
	ctx context.Context, s Settings, ld *Loader, c *tremor.Catalog,
	cfg tremor.Config, logger *zap.Logger, extra []tremor.View,
) error {
	reloads := make(chan *tremor.Catalog, 1)
	if s.Watch && s.Data != "" {
		w, err := WatchCatalog(ctx, s.Data, logger, ld.Reload,
			func(wctx context.Context, c *tremor.Catalog) {
				select {
				case reloads <- c:
				case <-wctx.Done():
				}
			},
		)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
	}
	return RunHeadless(ctx, c, cfg, logger, reloads, extra...)
}

func runTerminal(
	ctx context.Context, s Settings, ld *Loader, c *tremor.Catalog,
	cfg tremor.Config, logger *zap.Logger, extra []tremor.View,
) error {
	m := NewModel(c, cfg, extra...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if s.Watch && s.Data != "" {
		reload := func(ctx context.Context) (*tremor.Catalog, error) {
			c, err := ld.Reload(ctx)
			if err != nil {
				p.Send(errMsg{err: err})
			}
			return c, err
		}
		w, err := WatchCatalog(ctx, s.Data, logger, reload,
			func(_ context.Context, c *tremor.Catalog) {
				p.Send(catalogMsg{catalog: c})
			},
		)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func serveMetrics(
	addr string, reg *prometheus.Registry, logger *zap.Logger,
) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("Serving metrics", zap.String("addr", addr))
	return srv
}
