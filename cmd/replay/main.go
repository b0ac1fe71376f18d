package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"market-replay-go/config"
	"market-replay-go/infrastructure/logger"
	"market-replay-go/infrastructure/monitor"
	"market-replay-go/internal/store"
	"market-replay-go/internal/stream"
	"market-replay-go/market"
	"market-replay-go/metrics"
	"market-replay-go/sim"
)

// 回放历史订单数据集并模拟参与者。
// 用法：
//
//	go run ./cmd/replay -config configs/replay.yaml -data data/orders.csv -out summary.csv
func main() {
	var opts options
	flag.StringVar(&opts.cfgPath, "config", "configs/replay.yaml", "配置文件路径")
	envFile := flag.String("env", ".env", "环境变量文件，不存在时忽略")
	flag.StringVar(&opts.flags.data, "data", "", "数据集 CSV，覆盖配置中的 dataset.path")
	flag.StringVar(&opts.outPath, "out", "", "若指定则写入 CSV 汇总")
	flag.StringVar(&opts.flags.metricsAddr, "metricsAddr", "", "指标服务地址，覆盖配置中的 metrics.addr")
	flag.StringVar(&opts.flags.journal, "journal", "", "Pebble 回放记录目录，覆盖配置中的 journal.path")
	flag.BoolVar(&opts.watch, "watch", false, "配置文件变化后重新回放")
	flag.BoolVar(&opts.serve, "serve", false, "回放结束后继续提供 /metrics 与 /stream，直到收到退出信号")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("加载 %s 失败: %v", *envFile, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, opts)
	stop()
	if err != nil {
		log.Printf("replay: %v", err)
		os.Exit(1)
	}
}

// options 命令行参数。
type options struct {
	cfgPath string
	outPath string
	watch   bool
	serve   bool
	flags   overrides
}

// run 出错时返回错误，由 main 决定退出码。
func run(ctx context.Context, opts options) error {
	cfg, err := config.LoadWithEnvOverrides(opts.cfgPath, opts.flags.apply)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer lg.Close()

	app, err := newApp(cfg, lg)
	if err != nil {
		lg.Error("app_init_failed", zap.Error(err))
		return err
	}
	defer app.close()

	sum, replayErr := app.replay(ctx, cfg)
	if replayErr != nil {
		lg.Error("replay_failed", zap.Error(replayErr))
	} else {
		report(sum, opts.outPath, lg)
	}

	if opts.watch {
		w := config.Watcher{
			Path:      opts.cfgPath,
			Cooldown:  time.Second,
			Overrides: []config.Override{opts.flags.apply},
			Log:       lg.Logger,
		}
		err := w.Start(ctx, func(next config.AppConfig) {
			sum, err := app.replay(ctx, next)
			if err != nil {
				lg.Error("replay_failed", zap.Error(err))
				return
			}
			report(sum, opts.outPath, lg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("config watch: %w", err)
		}
		return nil
	}
	if opts.serve && app.server != nil {
		lg.Info("serving", zap.String("addr", app.server.Addr()))
		<-ctx.Done()
	}
	return replayErr
}

// overrides 命令行参数优先于配置与环境变量。
type overrides struct {
	data        string
	metricsAddr string
	journal     string
}

func (o overrides) apply(cfg *config.AppConfig) {
	if o.data != "" {
		cfg.Dataset.Path = o.data
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if o.journal != "" {
		cfg.Journal.Path = o.journal
	}
}

// app 跨多次回放共享的组件：指标、推送与持久化。
type app struct {
	log     *logger.Logger
	monitor *monitor.Monitor
	hub     *stream.Hub
	journal *store.Journal
	server  *metrics.Server
	errCh   <-chan error
}

func newApp(cfg config.AppConfig, lg *logger.Logger) (*app, error) {
	a := &app{log: lg}
	mcfg := monitor.DefaultConfig()
	if cfg.Metrics.Namespace != "" {
		mcfg.Namespace = cfg.Metrics.Namespace
	}
	a.monitor = monitor.New(mcfg)

	if cfg.Journal.Path != "" {
		j, err := store.Open(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		a.journal = j
	}
	if cfg.Metrics.Addr != "" {
		extra := map[string]http.Handler{}
		if cfg.Stream.Enabled {
			a.hub = stream.NewHub(lg.Logger)
			extra[cfg.Stream.Path] = a.hub
		}
		srv, err := metrics.NewServer(cfg.Metrics.Addr, a.monitor.Registry(), extra)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("start metrics server: %w", err)
		}
		a.server = srv
		a.errCh = srv.Start()
		if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
			lg.Warn("sd_notify_failed", zap.Error(err))
		} else if ok {
			lg.Info("sd_notify_ready")
		}
		lg.Info("metrics_server_started", zap.String("addr", srv.Addr()))
	}
	return a, nil
}

func (a *app) replay(ctx context.Context, cfg config.AppConfig) (sim.Summary, error) {
	if cfg.Dataset.Path == "" {
		return sim.Summary{}, errors.New("dataset path is required (dataset.path, MR_DATASET_PATH or -data)")
	}
	ds, st, err := market.LoadCSV(cfg.Dataset.Path)
	if err != nil {
		return sim.Summary{}, err
	}
	a.log.Info("dataset_loaded",
		zap.String("path", cfg.Dataset.Path),
		zap.Int("rows", st.Rows),
		zap.Int("accepted", st.Accepted),
		zap.Int("malformed", st.Malformed),
		zap.Int("timestamps", len(ds.Timestamps())),
	)
	for _, e := range st.FirstErrors {
		a.log.Warn("dataset_row_skipped", zap.Error(e))
	}

	r, err := sim.BuildRunner(cfg.RunnerConfig(), ds, a.log)
	if err != nil {
		return sim.Summary{}, err
	}
	r.Recorders = append(r.Recorders, a.monitor)
	if a.hub != nil {
		r.Recorders = append(r.Recorders, a.hub)
	}
	if a.journal != nil {
		if err := a.journal.SaveRun(store.RunRecord{
			RunID:       r.RunID,
			Participant: r.Participant,
			Dataset:     cfg.Dataset.Path,
			StartedAt:   time.Now().UTC(),
		}); err != nil {
			return sim.Summary{}, err
		}
		r.Recorders = append(r.Recorders, a.journal)
	}
	return r.Run(ctx)
}

func (a *app) close() {
	if a.server != nil {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.server.Shutdown(ctx)
		cancel()
		if err := <-a.errCh; err != nil {
			a.log.Error("metrics_server_error", zap.Error(err))
		}
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Error("journal_close_failed", zap.Error(err))
		}
	}
}

func report(sum sim.Summary, outPath string, lg *logger.Logger) {
	log.Printf("run=%s ticks=%d placed=%d cancelled=%d skipped=%d trades=%d marketTrades=%d open=%d value %.4f -> %.4f %s",
		sum.RunID, sum.Ticks, sum.Placed, sum.Cancelled, sum.Skipped, sum.Trades, sum.MarketTrades,
		sum.OpenOrders, sum.InitialValue.Total, sum.FinalValue.Total, sum.FinalValue.Quote)
	if outPath == "" {
		return
	}
	if err := writeSummaryCSV(outPath, sum); err != nil {
		lg.Error("write_summary_failed", zap.String("path", outPath), zap.Error(err))
		return
	}
	log.Printf("已写入汇总: %s", outPath)
}
