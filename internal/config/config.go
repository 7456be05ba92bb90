// Package config loads process-wide defaults from the environment. Command
// line flags override these per invocation.
package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/AnyUserName/covercrop/internal/store"
	"github.com/AnyUserName/covercrop/internal/target"
	"github.com/AnyUserName/covercrop/internal/telemetry"
	"github.com/AnyUserName/covercrop/internal/validate"
	"github.com/AnyUserName/covercrop/internal/working"
)

type Config struct {
	Validation  validate.Options
	Working     working.Options
	Export      ExportConfig
	Store       StoreConfig
	Trace       telemetry.TraceConfig
	Workers     int
	TargetsFile string
	MetricsFile string
}

type ExportConfig struct {
	FormatID   string
	MIMEType   string
	Quality    float64
	MaxUpscale float64
}

type StoreConfig struct {
	Kind     string // local or minio
	LocalDir string
	Minio    store.MinioConfig
}

func Load() Config {
	v := validate.DefaultOptions()
	v.MaxBytes = envInt64("COVERCROP_MAX_BYTES", v.MaxBytes)
	v.MaxPixels = envInt64("COVERCROP_MAX_PIXELS", v.MaxPixels)
	v.MinSide = envInt("COVERCROP_MIN_SOURCE_SIDE", v.MinSide)
	if types := env("COVERCROP_ALLOWED_TYPES", ""); types != "" {
		v = v.WithMIMETypes(strings.Split(types, ",")...)
	}

	w := working.DefaultOptions()
	w.MaxSide = envInt("COVERCROP_MAX_SIDE", w.MaxSide)
	w.MinSide = envInt("COVERCROP_MIN_SIDE", w.MinSide)
	w.Quality = envFloat("COVERCROP_WORKING_QUALITY", w.Quality)
	w.MIMEType = env("COVERCROP_WORKING_MIME", w.MIMEType)
	w.AllowUpscale = envBool("COVERCROP_ALLOW_UPSCALE", w.AllowUpscale)

	return Config{
		Validation: v,
		Working:    w,
		Export: ExportConfig{
			FormatID:   env("COVERCROP_FORMAT", "generic-hd"),
			MIMEType:   env("COVERCROP_EXPORT_MIME", ""),
			Quality:    envFloat("COVERCROP_QUALITY", 0.9),
			MaxUpscale: envFloat("COVERCROP_MAX_UPSCALE", 1.0),
		},
		Store: StoreConfig{
			Kind:     env("COVERCROP_STORE", "local"),
			LocalDir: env("COVERCROP_OUTPUT_DIR", "./covercrop_out"),
			Minio: store.MinioConfig{
				Endpoint: env("MINIO_ENDPOINT", "localhost:9000"),
				Access:   env("MINIO_ACCESS_KEY", "minioadmin"),
				Secret:   env("MINIO_SECRET_KEY", "minioadmin"),
				Bucket:   env("MINIO_BUCKET", "covers"),
				UseSSL:   envBool("MINIO_USE_SSL", false),
			},
		},
		Trace: telemetry.TraceConfig{
			ServiceName:  env("OTEL_SERVICE_NAME", "covercrop"),
			Exporter:     env("COVERCROP_TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
		Workers:     envInt("COVERCROP_WORKERS", runtime.NumCPU()),
		TargetsFile: env("COVERCROP_TARGETS_FILE", ""),
		MetricsFile: env("COVERCROP_METRICS_FILE", ""),
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt64(key string, fallback int64) int64 {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// LoadTargets registers the formats of a YAML targets file. An empty path
// is a no-op.
func LoadTargets(path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	return target.LoadFile(path)
}
