package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/uofuseismo/urts-core/associator"
	"github.com/uofuseismo/urts-core/config"
	"github.com/uofuseismo/urts-core/incrementer"
	"github.com/uofuseismo/urts-core/metrics"
	"github.com/uofuseismo/urts-core/packetcache"
	"github.com/uofuseismo/urts-core/pick"
	"github.com/uofuseismo/urts-core/picker"
	"github.com/uofuseismo/urts-core/queue"
	"github.com/uofuseismo/urts-core/transport"
	"github.com/uofuseismo/urts-core/urtslog"
)

var (
	onThresholdFlag  float64
	offThresholdFlag float64
	metricsAddrFlag  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the packet cache, picker pipeline, and associator service in one process.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Float64Var(&onThresholdFlag, "on-threshold", 0.8, "Detection probability that opens a trigger window.")
	serveCmd.Flags().Float64Var(&offThresholdFlag, "off-threshold", 0.5, "Detection probability that closes a trigger window.")
	serveCmd.Flags().StringVar(&metricsAddrFlag, "metrics-address", ":9090", "Address the Prometheus /metrics endpoint listens on.")
}

// runServe wires the data plane's components into one process: a packet
// cache feeding a picker pipeline, an associator service reachable over an
// in-process transport, and a Prometheus endpoint for the metrics every
// component updates. No threshold detector is started, and nothing here
// feeds packets into the cache or picks into the pipeline's input queue.
// The pipeline and associator talk over the in-process pair only.
func runServe(cmd *cobra.Command, args []string) error {
	logger := urtslog.Stderr

	cfg := config.DefaultConfig()
	cfg.Threshold.SetOnThreshold(onThresholdFlag)
	cfg.Threshold.SetOffThreshold(offThresholdFlag)
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := packetcache.NewRegistry(cfg.PacketCache.DefaultCapacity)
	cache.Metrics = met
	defer cache.Shutdown()

	picks := queue.NewBounded[pick.Pick](1024)
	refined := queue.NewBounded[pick.Pick](1024)

	pipeline, err := picker.NewPipeline(cfg.Picker, cache, picks, refined)
	if err != nil {
		return err
	}
	pipeline.Metrics = met
	go pipeline.Run(ctx)
	go reportQueueDepth(ctx, met, "picker.refined", refined)

	model, err := associator.NewVelocityModel(6.1, 3.5)
	if err != nil {
		return err
	}
	assoc, err := associator.New(cfg.Associator, defaultStations(), model)
	if err != nil {
		return err
	}
	assoc.Metrics = met
	logger.Infof("associator region %s ready with %d stations\n", cfg.Associator.Name, len(defaultStations()))

	associatorServer, associatorClient := transport.NewInProcessPair(16)
	associatorDealer := &transport.Dealer{
		Socket:      associatorServer,
		Handler:     associator.Handler{Associator: assoc},
		PollTimeout: 10 * time.Millisecond,
	}
	go associatorDealer.Run(ctx)
	associatorRequestor, err := associator.NewRequestor(associatorClient)
	if err != nil {
		return err
	}
	associatorRequestor.Logger = logger

	identifiers := incrementer.NewService()
	if err := identifiers.Register("Pick", 1, 1); err != nil {
		return err
	}
	if err := identifiers.Register("Origin", 1, 1); err != nil {
		return err
	}

	go runAssociationLoop(ctx, refined, associatorRequestor, identifiers, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: metricsAddrFlag, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics server: %s\n", err)
		}
	}()

	logger.Infof("serving on %s\n", metricsAddrFlag)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Infoln("received shutdown signal")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
	return nil
}

// associationBatchSize caps how many refined picks accumulate before
// runAssociationLoop flushes a request early, independent of the interval
// timer; associationBatchInterval bounds how long a partial batch waits.
const (
	associationBatchSize     = 20
	associationBatchInterval = 2 * time.Second
)

// runAssociationLoop drains refined picks, batches them, and forwards each
// batch to the associator service through requestor, logging the resulting
// origins. It is the only consumer of the pipeline's refined queue; without
// it the associator service would sit idle behind its dealer.
func runAssociationLoop(ctx context.Context, refined *queue.Bounded[pick.Pick], requestor *associator.Requestor, identifiers *incrementer.Service, logger urtslog.Logger) {
	var batch []pick.Pick
	ticker := time.NewTicker(associationBatchInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		resp := identifiers.Increment(incrementer.IncrementRequest{Item: "Origin"})
		req := associator.Request{
			Identifier: resp.Value,
			Picks:      make([]associator.CandidatePick, len(batch)),
		}
		for i, p := range batch {
			req.Picks[i] = associator.CandidatePick{
				ChannelID:  p.ChannelID,
				Time:       p.Time,
				PhaseHint:  p.PhaseHint,
				Identifier: p.Identifier,
			}
		}
		batch = nil

		result, err := requestor.Associate(ctx, req)
		if err != nil {
			logger.Warnf("association request failed: %v\n", err)
			return
		}
		logger.Infof("association request %d: %d origins, %d unassociated\n",
			req.Identifier, len(result.Origins), len(result.Unassociated))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flush()
		default:
		}

		p, ok := refined.WaitUntilAndPop(100 * time.Millisecond)
		if !ok {
			continue
		}
		batch = append(batch, p)
		if len(batch) >= associationBatchSize {
			flush()
		}
	}
}

// reportQueueDepth polls a bounded queue's length into the queue depth
// gauge until ctx is cancelled.
func reportQueueDepth(ctx context.Context, met *metrics.Metrics, name string, q *queue.Bounded[pick.Pick]) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			met.QueueDepth.WithLabelValues(name).Set(float64(q.Len()))
		}
	}
}

func defaultStations() map[string]associator.StationLocation {
	return map[string]associator.StationLocation{
		"UU.CTU": {Latitude: 39.8864, Longitude: -111.5267, ElevationMeters: 2105},
		"UU.MID": {Latitude: 39.9951, Longitude: -111.6274, ElevationMeters: 1935},
		"UU.NLU": {Latitude: 40.1572, Longitude: -112.0458, ElevationMeters: 1530},
		"UU.SRU": {Latitude: 40.3639, Longitude: -111.8808, ElevationMeters: 2042},
		"UU.TCU": {Latitude: 40.1131, Longitude: -111.8085, ElevationMeters: 1982},
	}
}
