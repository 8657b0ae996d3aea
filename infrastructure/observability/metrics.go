package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lotto/config"
	"lotto/domain/entities"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the engine
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	playsAdmittedCounter         metric.Int64Counter
	playsRejectedCounter         metric.Int64Counter
	drawsSettledCounter          metric.Int64Counter
	winnerCreditsCounter         metric.Int64Counter
	settlementFailuresCounter    metric.Int64Counter
	settlementDurationHist       metric.Float64Histogram
	ledgerMutationsCounter       metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	reader, err := mp.newReader(ctx)
	if err != nil {
		return err
	}
	return mp.initializeWithReader(reader)
}

func (mp *MetricsProvider) newReader(ctx context.Context) (sdkmetric.Reader, error) {
	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		return nil, nil
	}

	var exporter sdkmetric.Exporter
	var err error
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	return sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	), nil
}

// initializeWithReader builds the meter provider around reader. A nil reader
// leaves the provider initialized but recording nothing.
func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Info("Metrics provider already initialized")
		return nil
	}
	if reader == nil {
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("lotto")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.playsAdmittedCounter, err = mp.meter.Int64Counter(
		PlaysAdmittedTotal,
		metric.WithDescription("Total number of admitted plays"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create plays admitted counter: %w", err)
	}

	mp.playsRejectedCounter, err = mp.meter.Int64Counter(
		PlaysRejectedTotal,
		metric.WithDescription("Total number of rejected plays by reason"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create plays rejected counter: %w", err)
	}

	mp.drawsSettledCounter, err = mp.meter.Int64Counter(
		DrawsSettledTotal,
		metric.WithDescription("Total number of settled draws"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create draws settled counter: %w", err)
	}

	mp.winnerCreditsCounter, err = mp.meter.Int64Counter(
		WinnerCreditsTotal,
		metric.WithDescription("Total number of winning tickets credited"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create winner credits counter: %w", err)
	}

	mp.settlementFailuresCounter, err = mp.meter.Int64Counter(
		SettlementFailuresTotal,
		metric.WithDescription("Total number of failed settlement runs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement failures counter: %w", err)
	}

	mp.settlementDurationHist, err = mp.meter.Float64Histogram(
		SettlementDuration,
		metric.WithDescription("Duration of draw settlement in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement duration histogram: %w", err)
	}

	mp.ledgerMutationsCounter, err = mp.meter.Int64Counter(
		LedgerMutationsTotal,
		metric.WithDescription("Total number of balance mutations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger mutations counter: %w", err)
	}

	mp.natsMessagesPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	return nil
}

// Shutdown flushes and shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordPlayAdmitted records an admitted play
func (mp *MetricsProvider) RecordPlayAdmitted(gameType entities.GameType, playType entities.PlayType) {
	if !mp.isEnabled() {
		return
	}

	mp.playsAdmittedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelGameType, string(gameType)),
			attribute.String(LabelPlayType, string(playType)),
		),
	)
}

// RecordPlayRejected records a rejected play
func (mp *MetricsProvider) RecordPlayRejected(gameType entities.GameType, reason string) {
	if !mp.isEnabled() {
		return
	}

	mp.playsRejectedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelGameType, string(gameType)),
			attribute.String(LabelReason, reason),
		),
	)
}

// RecordDrawSettled records a completed settlement with its winner count and duration
func (mp *MetricsProvider) RecordDrawSettled(gameType entities.GameType, winners int, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(attribute.String(LabelGameType, string(gameType)))
	mp.drawsSettledCounter.Add(context.Background(), 1, attrs)
	mp.winnerCreditsCounter.Add(context.Background(), int64(winners), attrs)
	mp.settlementDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// RecordSettlementFailed records a failed settlement run
func (mp *MetricsProvider) RecordSettlementFailed(gameType entities.GameType, errorType string) {
	if !mp.isEnabled() {
		return
	}

	mp.settlementFailuresCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelGameType, string(gameType)),
			attribute.String(LabelErrorType, errorType),
		),
	)
}

// RecordLedgerMutation records a balance mutation
func (mp *MetricsProvider) RecordLedgerMutation(transactionType entities.TransactionType) {
	if !mp.isEnabled() {
		return
	}

	mp.ledgerMutationsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelTransactionType, string(transactionType)),
		),
	)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsMessagesPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
		),
	)
}

// isEnabled checks if metrics are initialized with a live meter
func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil
}
