// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/exporter-toolkit/web"

	"github.com/sustainable-computing-io/harvester/internal/service"
)

// DefaultListenAddress is used when no listen address is given
const DefaultListenAddress = ":28282"

// APIService defines the interface for the HTTP server providing API endpoints
type APIService interface {
	service.Service
	Register(endpoint, summary, description string, handler http.Handler) error
}

// APIServer serves registered endpoints and a landing page listing them
type APIServer struct {
	// input
	logger *slog.Logger
	// http
	server              *http.Server
	mux                 *http.ServeMux
	endpointDescription string
	listenAddrs         []string
	webConfig           *web.FlagConfig
}

var (
	_ APIService          = (*APIServer)(nil)
	_ service.Initializer = (*APIServer)(nil)
	_ service.Runner      = (*APIServer)(nil)
	_ service.Shutdowner  = (*APIServer)(nil)
)

type Opts struct {
	logger        *slog.Logger
	listenAddrs   []string
	webConfigFile string
}

// OptionFn is a function sets one more more options in Opts struct
type OptionFn func(*Opts)

// WithLogger sets the logger for the APIServer
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// WithListenAddress sets the addresses the APIServer listens on
func WithListenAddress(addrs []string) OptionFn {
	return func(o *Opts) {
		o.listenAddrs = addrs
	}
}

// WithWebConfigFile sets the TLS and authentication config of the APIServer
func WithWebConfigFile(path string) OptionFn {
	return func(o *Opts) {
		o.webConfigFile = path
	}
}

// DefaultOpts returns the default options
func DefaultOpts() Opts {
	return Opts{
		logger:      slog.Default(),
		listenAddrs: []string{DefaultListenAddress},
	}
}

// NewAPIServer creates a new APIServer instance
func NewAPIServer(applyOpts ...OptionFn) *APIServer {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	mux := http.NewServeMux()
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	webConfigFile := opts.webConfigFile
	return &APIServer{
		logger:      opts.logger.With("service", "api-server"),
		mux:         mux,
		server:      server,
		listenAddrs: opts.listenAddrs,
		webConfig: &web.FlagConfig{
			WebListenAddresses: &opts.listenAddrs,
			WebConfigFile:      &webConfigFile,
		},
	}
}

func (s *APIServer) Name() string {
	return "api-server"
}

func (s *APIServer) Init() error {
	if len(s.listenAddrs) == 0 {
		return fmt.Errorf("no listening address provided")
	}

	s.logger.Info("Initializing harvester server", "listen", s.listenAddrs)
	// create landing page that shows all available endpoints
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Only respond to the root path
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, err := w.Write(fmt.Appendf([]byte{}, `<html>
<head><title>Harvester</title></head>
<body>
<h1>Harvester</h1>
<p>Available endpoints:</p>
<ul>
	%s
</ul>
</body>
</html>`,
			s.endpointDescription))
		if err != nil {
			s.logger.Error("failed to write landing page", "error", err)
		}
	})

	return nil
}

func (s *APIServer) Run(ctx context.Context) error {
	s.logger.Info("Running harvester server")
	errCh := make(chan error, 1)
	go func() {
		errCh <- web.ListenAndServe(s.server, s.webConfig, s.logger)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down harvester server on context done")
		return nil

	case err := <-errCh:
		s.logger.Error("harvester server returned an error", "error", err)
		return err
	}
}

func (s *APIServer) Shutdown() error {
	s.logger.Info("shutting down API server on request")

	// NOTE: ensure http server shuts down within 5 seconds
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *APIServer) Register(endpoint, summary, description string, handler http.Handler) error {
	s.logger.Debug("Endpoint Registered", "endpoint", endpoint)
	s.mux.Handle(endpoint, handler)
	s.endpointDescription += fmt.Sprintf("<li> <a href=\"%s\"> %s </a> %s </li>\n", endpoint, summary, description)
	return nil
}
