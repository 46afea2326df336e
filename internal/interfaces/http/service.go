package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/application/pubsub"
	"github.com/tdex-network/tdex-yield/internal/core/application/yield"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/devnet"
	interfaces "github.com/tdex-network/tdex-yield/internal/interfaces"
	"golang.org/x/net/netutil"
)

const shutdownTimeout = 5 * time.Second

type ServiceOpts struct {
	Port           int
	MaxConnections int

	Controller *yield.Controller
	// PubSub enables the webhook routes, if defined.
	PubSub *pubsub.Service
	// Devnet enables the devnet routes, if defined.
	Devnet *devnet.Devnet
	// Gatherer is exposed at /metrics, if defined.
	Gatherer prometheus.Gatherer
	// AuthSecret, if defined, is the HS256 secret of the bearer tokens
	// required by the routes that move funds or manage webhooks. The caller
	// of an operation is then the subject of the token.
	AuthSecret string
}

func (o ServiceOpts) validate() error {
	if o.Port <= 0 {
		return fmt.Errorf("invalid listening port %d", o.Port)
	}
	if o.MaxConnections <= 0 {
		return fmt.Errorf("max connections must be greater than zero")
	}
	if o.Controller == nil {
		return fmt.Errorf("controller must not be null")
	}
	return nil
}

type service struct {
	opts   ServiceOpts
	server *http.Server
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	return &service{opts: opts}, nil
}

func (s *service) Start() error {
	address := fmt.Sprintf(":%d", s.opts.Port)
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	lis = netutil.LimitListener(lis, s.opts.MaxConnections)

	s.server = &http.Server{
		Handler:           NewHandler(s.opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(lis); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()

	log.Infof("http interface is listening on %s", address)
	return nil
}

func (s *service) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http interface")
	}
	log.Debug("stopped http interface")
}
