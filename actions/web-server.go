package actions

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
)

const (
	urlContext4Launch  = "/launch"
	urlContext4Metrics = "/metrics"
)

type WebServerConfig struct {
	Scheme string `errorTxt:"scheme" mandatory:"no"`
	Addr   net.IP `errorTxt:"address" mandatory:"no"`
	Port   int    `errorTxt:"port" mandatory:"no"`
}

func (w *WebServerConfig) address() string {
	return net.JoinHostPort(w.Addr.String(), fmt.Sprint(w.Port))
}

type ServeConfig struct {
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic bool
	Pipeline         config.PipelineConfig
	SkipValidate     bool
	Web              WebServerConfig
}

// RunServe starts the web server and blocks until SIGINT, SIGTERM or a request to /stop.
// Runs are started by POSTing to /launch.
func RunServe(cfg *ServeConfig) error {
	if cfg == nil {
		return errors.New("nil pointer to serve config supplied")
	}
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		return err
	}
	log := logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic)
	l := &Launcher{
		Log:              log,
		Config:           cfg.Pipeline,
		SkipValidate:     cfg.SkipValidate,
		SetAutocommitOff: true,
		CleanupHandler:   pipeline.CleanupHandlerWithoutSignals, // the server owns signals.
	}
	srv, err := StartWebServer(log, &cfg.Web, l)
	if err != nil {
		return err
	}
	// Block & wait for shutdown signals.
	chanOS := make(chan os.Signal, 1)
	signal.Notify(chanOS, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(chanOS)
	select {
	case <-srv.Stopped():
	case x := <-chanOS:
		log.Info("Caught ", x.String())
	}
	return srv.Shutdown()
}

// WebServer serves the run API for a Launcher.
type WebServer struct {
	log      logger.Logger
	srv      *http.Server
	launcher *Launcher
	chanStop chan struct{}
	stopOnce sync.Once
	served   chan struct{}
}

// StartWebServer listens on web's address and serves in a goroutine.
func StartWebServer(log logger.Logger, web *WebServerConfig, l *Launcher) (*WebServer, error) {
	l.setDefaults()
	ln, err := net.Listen("tcp", web.address())
	if err != nil {
		return nil, errors.Wrapf(err, "unable to listen on %v", web.address())
	}
	s := &WebServer{
		log:      log,
		launcher: l,
		chanStop: make(chan struct{}),
		served:   make(chan struct{}),
	}
	s.srv = &http.Server{ // Good practice to set timeouts to avoid Slowloris attacks.
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      NewRouter(log, l, s.requestStop),
	}
	go func() {
		defer close(s.served)
		if err := s.srv.Serve(ln); err != nil {
			if err == http.ErrServerClosed {
				log.Info(err)
			} else {
				log.Error(err)
				s.requestStop()
			}
		}
	}()
	scheme := web.Scheme
	if scheme == "" {
		scheme = "http"
	}
	log.Info(fmt.Sprintf("Listening on %v://%v", strings.ToLower(scheme), ln.Addr()))
	return s, nil
}

func (s *WebServer) requestStop() {
	s.stopOnce.Do(func() {
		close(s.chanStop)
	})
}

// Stopped is closed when a client asks the server to stop.
func (s *WebServer) Stopped() <-chan struct{} {
	return s.chanStop
}

// Shutdown stops all runs, waits for them to finish and then stops the server.
func (s *WebServer) Shutdown() error {
	s.log.Info("Shutting down web server...")
	ri := s.launcher.RunInfo
	for _, guid := range ri.Keys() {
		if err := ri.Stop(guid); err == nil {
			s.log.Info("Stopping run ", guid)
		}
	}
	deadline := time.Now().Add(time.Minute)
	for ri.IsRunning() && time.Now().Before(deadline) { // wait for runs to record their final status...
		time.Sleep(100 * time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := s.srv.Shutdown(ctx) // Doesn't block if no connections, but will otherwise wait until the timeout deadline.
	<-s.served
	return err
}

// NewRouter creates the routes of the run API.
func NewRouter(log logger.Logger, l *Launcher, stopServer func()) *mux.Router {
	l.setDefaults()
	r := mux.NewRouter()
	r.Path("/health").Methods(http.MethodGet).HandlerFunc(GetHandlerHealth(log))
	r.Path("/stop").Methods(http.MethodPost).HandlerFunc(GetHandlerStopServer(log, stopServer))
	r.Path("/runs").Methods(http.MethodGet).HandlerFunc(GetHandlerRunList(log, l.RunInfo))
	r.Path("/runs/{runId}/status").Methods(http.MethodGet).HandlerFunc(GetHandlerRunStatus(log, l.RunInfo))
	r.Path("/runs/{runId}/stats").Methods(http.MethodGet).HandlerFunc(GetHandlerRunStats(log, l.RunInfo))
	r.Path("/runs/{runId}/stop").Methods(http.MethodPost).HandlerFunc(GetHandlerRunStop(log, l.RunInfo))
	r.Path(urlContext4Launch).Methods(http.MethodPost).HandlerFunc(GetHandlerRunLaunch(log, l))
	r.Path(urlContext4Metrics).Handler(promhttp.Handler())
	return r
}
