package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/moontrade/threadid"
	"github.com/moontrade/threadid/logger"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/process"
	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	serveInterval time.Duration
)

func init() {
	cmd := newServeCmd()
	cmd.Flags().StringVar(&serveAddr, "addr", ":9100", "Metrics listen address")
	cmd.Flags().DurationVar(&serveInterval, "interval", time.Second, "Pause between churn waves")
	cmd.Flags().IntVarP(&churnWorkers, "workers", "w", 16, "Pool size")
	cmd.Flags().IntVarP(&churnTasks, "tasks", "t", 1000, "Tasks per wave")
	rootCmd.AddCommand(cmd)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve allocator metrics while churning threads",
		Long: `The serve command exposes the default domain's live id allocator on
/metrics and keeps churning threads until interrupted. /api/stats reports
the allocator as JSON and /api/resource compares attached threads with the
process's OS threads.

Example:
  threadid serve --addr :9100 --interval 500ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, threadid.Default(), serveAddr)
		},
	}
}

type resourceRsp struct {
	Attached  int     `json:"attached"`
	OSThreads int32   `json:"os_threads"`
	CPU       float64 `json:"cpu_percent"`
}

type server struct {
	domain *threadid.Domain
	proc   *process.Process
}

func newServer(d *threadid.Domain) (*server, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, "inspect process")
	}
	return &server{domain: d, proc: proc}, nil
}

func (s *server) handler() (http.Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	if err := s.domain.Allocator().Register(reg, "threadid"); err != nil {
		return nil, errors.Wrap(err, "register allocator metrics")
	}
	err := reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "threadid",
		Name:      "attached_threads",
		Help:      "Goroutines currently attached.",
	}, func() float64 { return float64(s.domain.Attached()) }))
	if err != nil {
		return nil, errors.Wrap(err, "register attached gauge")
	}
	err = reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "threadid",
		Name:      "os_threads",
		Help:      "OS threads of the process.",
	}, func() float64 {
		n, err := s.proc.NumThreads()
		if err != nil {
			return 0
		}
		return float64(n)
	}))
	if err != nil {
		return nil, errors.Wrap(err, "register os thread gauge")
	}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.HandleFunc("/api/stats", s.stats).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", s.resource).Methods(http.MethodGet)
	return r, nil
}

func (s *server) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.domain.Allocator().Stats())
}

func (s *server) resource(w http.ResponseWriter, _ *http.Request) {
	rsp := resourceRsp{Attached: s.domain.Attached()}
	var err error
	if rsp.OSThreads, err = s.proc.NumThreads(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rsp.CPU, err = s.proc.CPUPercent(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rsp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WarnErr(err, "write response")
	}
}

func runServe(ctx context.Context, d *threadid.Domain, addr string) error {
	s, err := newServer(d)
	if err != nil {
		return err
	}
	handler, err := s.handler()
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		logger.Log().Infof("serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ticker := time.NewTicker(serveInterval)
	defer ticker.Stop()
	o := churnOptions{workers: churnWorkers, waves: 1, tasks: churnTasks}
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-serveErr:
			return errors.Wrap(err, "serve")
		case <-ticker.C:
			if _, err := runChurn(ctx, d, o); err != nil && ctx.Err() == nil {
				logger.WarnErr(err, "churn wave failed")
			}
		}
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}
