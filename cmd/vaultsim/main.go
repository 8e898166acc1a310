package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"vaultbridge/internal/crypto"
	"vaultbridge/internal/vaultsim"
)

func main() {
	var (
		listen        = flag.String("listen", "127.0.0.1:8734", "bridge listen address")
		metricsAddr   = flag.String("metrics", "127.0.0.1:9734", "metrics listen address (empty to disable)")
		autoAuthorize = flag.Bool("auto-authorize", false, "pair every client without approval")
		approveAfter  = flag.Duration("approve-after", 0, "answer pending, then approve after this delay")
		denyAfter     = flag.Duration("deny-after", 0, "answer pending, then deny after this delay")
		pairRate      = flag.Float64("pair-rate", 0, "max handshakes per second (0 = unlimited)")
		verbose       = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	registry := prometheus.NewRegistry()
	srv, err := vaultsim.New(vaultsim.Config{
		AutoAuthorize: *autoAuthorize,
		ApproveAfter:  *approveAfter,
		DenyAfter:     *denyAfter,
		PairRate:      rate.Limit(*pairRate),
		Logger:        &log,
		Registry:      registry,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("server init failed")
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			ms := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			if err := ms.ListenAndServe(); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		log.Info().Str("addr", *metricsAddr).Msg("metrics listening")
	}

	log.Info().
		Str("addr", *listen).
		Str("serverPublicKey", crypto.B64(srv.PublicKey())).
		Msg("vaultsim listening")
	hs := &http.Server{Addr: *listen, Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}
	if err := hs.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
