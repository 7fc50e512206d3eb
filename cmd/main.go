package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dt_fancontrol/internal/config"
	"dt_fancontrol/internal/curve"
	"dt_fancontrol/internal/handlers"
	"dt_fancontrol/internal/logger"
	"dt_fancontrol/internal/models"
	"dt_fancontrol/internal/publisher"
	"dt_fancontrol/internal/repository"
	"dt_fancontrol/internal/repository/db"
	"dt_fancontrol/internal/server"
	"dt_fancontrol/internal/service"
	"dt_fancontrol/internal/session"
	"dt_fancontrol/internal/transport"
)

const (
	shutdownTimeout = 10 * time.Second
	startupTimeout  = 5 * time.Second
)

func main() {
	cfg, err := config.Load(config.DefaultDir)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.GetWithEncoding(cfg.Log.Level, cfg.Log.Encoding)
	defer func() { _ = log.Sync() }()

	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	sess := newSession(cfg, log)
	services := service.NewService(newRepository(cfg, sqlDB), sess, serviceOptions(cfg, log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if p, err := services.Curve.LoadPersisted(ctx); err != nil {
		log.Warnw("failed to load persisted curve; using defaults", "err", err)
	} else {
		log.Infow("curve loaded", "params", p)
	}

	pub := newPublisher(cfg, log)
	defer pub.Close()
	fwd := publisher.NewForwarder(pub, 0, cfg.MQTT.Timeout, log)
	sess.OnSample(func(s models.TelemetrySample) { fwd.Submit(s) })
	go fwd.Run(ctx)

	autoConnect(ctx, services, cfg.Serial.Port, log)

	srv := &server.Server{}
	apiHandler := handlers.NewHandler(services, log)
	go func() {
		if err := srv.Run(cfg.Port, apiHandler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
	log.Infow("server started", "port", cfg.Port, "simulate", cfg.Serial.Simulate)

	waitForShutdown(cancel, srv, services, log)
}

func newSession(cfg *config.Config, log *logger.Logger) *session.Session {
	opener := &transport.Opener{
		Serial: transport.SerialOpener{ReadTimeout: cfg.Serial.ReadTimeout},
	}
	if cfg.Serial.Simulate {
		opener.Sim = &transport.SimOpener{Config: transport.SimConfig{
			Interval:    cfg.Sim.Interval,
			ReadTimeout: cfg.Serial.ReadTimeout,
			AmbientC:    cfg.Sim.AmbientC,
			HeatCPerSec: cfg.Sim.HeatCPerSec,
		}}
	}
	return session.New(opener, session.NewState(curve.Defaults()), session.Options{
		SettleDelay:   cfg.Serial.SettleDelay,
		StopGrace:     cfg.Serial.StopGrace,
		SkipMalformed: cfg.Serial.SkipMalformed,
		Logger:        log,
	})
}

func newRepository(cfg *config.Config, sqlDB *sql.DB) *repository.Repository {
	var store repository.CurveStore
	if cfg.Curve.Store == repository.CurveStoreFile {
		store = repository.NewCurveFile(cfg.Curve.File)
	}
	return repository.NewRepository(sqlDB, store)
}

func serviceOptions(cfg *config.Config, log *logger.Logger) service.Options {
	opts := service.Options{
		ListPorts:  transport.ListPorts,
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
		Logger:     log,
	}
	if cfg.Serial.Simulate {
		opts.SimPort = transport.SimPort
	}
	if cfg.Auth.SigningKey == "" {
		log.Warnw("auth.signing_key not set; tokens will not survive a restart")
	}
	return opts
}

func newPublisher(cfg *config.Config, log *logger.Logger) publisher.Publisher {
	if !cfg.MQTT.Enabled {
		return publisher.Nop{}
	}
	m, err := publisher.NewMQTT(publisher.MQTTConfig{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Topic:    cfg.MQTT.Topic,
		QoS:      cfg.MQTT.QoS,
		Retained: cfg.MQTT.Retained,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		Timeout:  cfg.MQTT.Timeout,
	})
	if err != nil {
		log.Errorw("mqtt disabled", "err", err, "broker", cfg.MQTT.Broker)
		return publisher.Nop{}
	}
	log.Infow("mqtt connected", "broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic)
	return m
}

// autoConnect opens the configured port. A failure is logged and the
// service keeps running so the operator can pick another port.
func autoConnect(ctx context.Context, services *service.Service, port string, log *logger.Logger) {
	if port == "" {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	if err := services.Session.Connect(cctx, port); err != nil {
		log.Warnw("auto-connect failed", "port", port, "err", err)
	}
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := services.Session.Disconnect(ctx); err != nil && !errors.Is(err, session.ErrNotConnected) {
		log.Warnw("disconnect on shutdown", "err", err)
	}

	// stop background goroutines
	cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
