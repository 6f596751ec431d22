package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"reflect"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/firecat2d/firecat/featureflag"
	firecathttp "github.com/firecat2d/firecat/http"
	"github.com/firecat2d/firecat/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/encoding/json"
)

var (
	// The Firecat version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "firecat_info",
		Help:        "Firecat information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	AdminAddr          string        `cli:""        env:"FIRECAT_ADMIN_ADDR"           help:"Admin listening address."`
	LogLevel           string        `cli:""        env:"FIRECAT_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"FIRECAT_LOG_INDENT"           help:"Indent logs."`
	WorldSize          int           `cli:""        env:"FIRECAT_WORLD_SIZE"           help:"The width and height of the simulated world."`
	CellSize           int           `cli:""        env:"FIRECAT_CELL_SIZE"            help:"The width and height of a grid cell. The world size must be a multiple of it."`
	MaxEntityID        int           `cli:",hidden" env:"FIRECAT_MAX_ENTITY_ID"        help:"The biggest body id."`
	BodyCount          int           `cli:""        env:"FIRECAT_BODY_COUNT"           help:"The number of simulated bodies."`
	BodySize           int           `cli:""        env:"FIRECAT_BODY_SIZE"            help:"The maximum radius of a body."`
	BodySpeed          int           `cli:""        env:"FIRECAT_BODY_SPEED"           help:"The body speed, in world units per second."`
	Seed               int           `cli:""        env:"FIRECAT_SEED"                 help:"The random seed. 0 uses the current time."`
	FrameDuration      time.Duration `cli:",hidden" env:"FIRECAT_FRAME_DURATION"       help:"The duration of a simulation frame."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"FIRECAT_LOG_SUMMARY_INTERVAL" help:"The duration between each simulation summary log."`
	Events             eventsConfig  `cli:",hidden" env:"-"                            help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"FIRECAT_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                            help:"Show version."`
	Help               bool          `cli:""        env:"-"                            help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"FIRECAT_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"FIRECAT_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"FIRECAT_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"FIRECAT_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func defaultConfig() config {
	return config{
		AdminAddr:          ":18190",
		LogLevel:           logs.InfoLevel.String(),
		WorldSize:          1024,
		CellSize:           16,
		MaxEntityID:        math.MaxUint16,
		BodyCount:          500,
		BodySize:           8,
		BodySpeed:          60,
		FrameDuration:      time.Millisecond * 15,
		LogSummaryInterval: time.Minute,
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}
}

func main() {
	conf := defaultConfig()

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts a Firecat collision simulation.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "firecat",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	featureFlags := featureflag.New(conf.FeatureFlags)

	world, err := models.NewWorld(models.WorldConfig{
		WorldSize:    uint32(conf.WorldSize),
		CellSize:     uint32(conf.CellSize),
		MaxEntityID:  uint32(conf.MaxEntityID),
		FeatureFlags: featureFlags,
	})
	if err != nil {
		logs.Fatal(err)
	}

	seed := int64(conf.Seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sim, err := newSimulation(world, simulationConfig{
		WorldSize: float32(conf.WorldSize),
		BodyCount: conf.BodyCount,
		BodySize:  float32(conf.BodySize),
		BodySpeed: float32(conf.BodySpeed),
		Seed:      seed,
	})
	if err != nil {
		logs.Fatal(err)
	}

	var ready atomic.Bool
	dt := float32(conf.FrameDuration.Seconds())
	cancelFrames := world.HandleFrame(func() {
		sim.step(dt)
		ready.Store(true)
	})
	defer cancelFrames()

	go world.DispatchFrames(ctx, conf.FrameDuration)
	go sim.startSummaryWorker(ctx, conf.LogSummaryInterval)

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("world_id", world.ID).
		WithTag("world_size", conf.WorldSize).
		WithTag("cell_size", conf.CellSize).
		WithTag("body_count", conf.BodyCount).
		WithTag("seed", seed).
		WithTag("feature_flags", featureFlags.List()).
		Info("starting firecat simulation")

	err = firecathttp.ListenAndServe(ctx, &http.Server{
		Addr: conf.AdminAddr,
		Handler: firecathttp.NewAdminHandler(firecathttp.AdminConfig{
			Version:   version,
			Ready:     ready.Load,
			DebugGrid: world.DebugInfo,
		}),
	})
	if err != nil {
		logs.Error(errors.New("admin server failed").Wrap(err))
	}
}

func validateConfig(conf config) error {
	if conf.WorldSize <= 0 || conf.CellSize <= 0 {
		return errors.New("world size and cell size must be positive").
			WithTag("world_size", conf.WorldSize).
			WithTag("cell_size", conf.CellSize)
	}

	if conf.WorldSize%conf.CellSize != 0 {
		return errors.New("world size is not a multiple of cell size").
			WithTag("world_size", conf.WorldSize).
			WithTag("cell_size", conf.CellSize)
	}

	if uint64(conf.WorldSize) > math.MaxUint32 {
		return errors.New("world size is too big").
			WithTag("world_size", conf.WorldSize)
	}

	if conf.MaxEntityID <= 0 || uint64(conf.MaxEntityID) > math.MaxUint32 {
		return errors.New("invalid max entity id").
			WithTag("max_entity_id", conf.MaxEntityID)
	}

	if conf.BodyCount < 0 || conf.BodyCount > conf.MaxEntityID {
		return errors.New("body count must be between 0 and max entity id").
			WithTag("body_count", conf.BodyCount).
			WithTag("max_entity_id", conf.MaxEntityID)
	}

	if conf.BodySize <= 0 || 4*conf.BodySize >= conf.WorldSize {
		return errors.New("body size must be positive and lower than a quarter of the world size").
			WithTag("body_size", conf.BodySize).
			WithTag("world_size", conf.WorldSize)
	}

	if conf.BodySpeed < 0 {
		return errors.New("body speed is negative").
			WithTag("body_speed", conf.BodySpeed)
	}

	if conf.FrameDuration <= 0 || conf.LogSummaryInterval <= 0 {
		return errors.New("frame duration and log summary interval must be positive").
			WithTag("frame_duration", conf.FrameDuration).
			WithTag("log_summary_interval", conf.LogSummaryInterval)
	}

	return nil
}
