package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/wtask/relay/internal/chat"
	"github.com/wtask/relay/internal/chat/broker"
	"github.com/wtask/relay/internal/chat/wsconn"
	"github.com/wtask/relay/internal/logging"
)

func main() {
	config := configure()

	logger, err := logging.New(logging.Config{
		Level:         config.LogLevel,
		Development:   config.LogDevelopment,
		OutputPaths:   []string{"stdout"},
		InitialFields: logging.Fields{"app": BinaryName, "version": Version},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: can't build logger: %v\n", BinaryName, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(config, logger); err != nil {
		logger.Error("chat relay failed", logging.Fields{"error": err})
		logger.Sync()
		os.Exit(1)
	}
}

func run(config Configuration, logger *logging.Logger) error {
	logger.Info("starting chat relay", logging.Fields{
		"port":          config.Port,
		"write_timeout": config.WriteTimeout,
		"ws_address":    config.WebsocketAddress,
	})

	b, err := broker.New(broker.WithLogger(logger), broker.WithWriteTimeout(config.WriteTimeout))
	if err != nil {
		return errors.Wrap(err, "invalid broker config")
	}
	server, err := chat.NewServer(chat.WithLogger(logger), chat.WithBroker(b))
	if err != nil {
		return errors.Wrap(err, "can't build chat server")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", config.Port))
	if err != nil {
		return errors.Wrap(err, "unable to listen TCP")
	}

	failed := make(chan error, 2)
	go func() {
		if err := server.Serve(listener); err != nil && err != chat.ErrServerClosed {
			failed <- errors.Wrap(err, "tcp listener")
		}
	}()

	var ws *http.Server
	if config.WebsocketAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", wsconn.NewHandler(func(conn *wsconn.Conn) { server.Handle(conn) }, logger))
		ws = &http.Server{Addr: config.WebsocketAddress, Handler: mux}
		go func() {
			logger.Info("accepting websocket connections", logging.Fields{"address": config.WebsocketAddress})
			if err := ws.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				failed <- errors.Wrap(err, "websocket listener")
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("got stop signal", logging.Fields{"signal": s.String()})
	case err = <-failed:
	}

	if ws != nil {
		ws.Close()
	}
	server.Close()
	logger.Info("chat relay stopped")
	return err
}
