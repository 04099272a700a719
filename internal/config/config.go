// Package config resolves settings from flags, QUERYTRAINER_* environment
// variables, an optional config file and defaults, in that order of
// precedence.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "QUERYTRAINER"

// Keys. Flags bound through Bind use the same names.
const (
	KeyServerAddr        = "server.addr"
	KeyServerTimeout     = "server.timeout"
	KeyServerPretty      = "server.pretty"
	KeyServerMaxBody     = "server.max-body-bytes"
	KeyServerCORSOrigins = "server.cors-origins"
	KeyDatasetDir        = "dataset.dir"
	KeyTasksFile         = "tasks.file"
	KeyProgressDSN       = "progress.dsn"
	KeyOtelEndpoint      = "otel.endpoint"
	KeyOtelService       = "otel.service"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
)

type Config struct {
	Server   Server
	Dataset  Dataset
	Tasks    Tasks
	Progress Progress
	Otel     Otel
	Log      Log
}

type Server struct {
	Addr         string
	Timeout      time.Duration
	Pretty       bool
	MaxBodyBytes int64
	CORSOrigins  []string
}

type Dataset struct{ Dir string }

type Tasks struct{ File string }

type Progress struct {
	// DSN is "memory" or a sqlite file path.
	DSN string
}

type Otel struct {
	Endpoint string
	Service  string
}

type Log struct {
	Level  string
	Format string
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyServerAddr, ":8080")
	v.SetDefault(KeyServerTimeout, 10*time.Second)
	v.SetDefault(KeyServerPretty, false)
	v.SetDefault(KeyServerMaxBody, int64(1<<20))
	v.SetDefault(KeyServerCORSOrigins, []string{})
	v.SetDefault(KeyDatasetDir, "")
	v.SetDefault(KeyTasksFile, "")
	v.SetDefault(KeyProgressDSN, "memory")
	v.SetDefault(KeyOtelEndpoint, "")
	v.SetDefault(KeyOtelService, "querytrainer")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Bind ties every flag in fs whose name is a config key to v.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		if e := v.BindPFlag(f.Name, f); e != nil {
			err = errors.Wrapf(e, "binding flag %s", f.Name)
		}
	})
	return err
}

// ReadFile merges the config file at path into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	return errors.Wrapf(v.ReadInConfig(), "reading config %s", path)
}

// Resolve snapshots v into a Config.
func Resolve(v *viper.Viper) (Config, error) {
	c := Config{
		Server: Server{
			Addr:         v.GetString(KeyServerAddr),
			Timeout:      v.GetDuration(KeyServerTimeout),
			Pretty:       v.GetBool(KeyServerPretty),
			MaxBodyBytes: v.GetInt64(KeyServerMaxBody),
			CORSOrigins:  v.GetStringSlice(KeyServerCORSOrigins),
		},
		Dataset:  Dataset{Dir: v.GetString(KeyDatasetDir)},
		Tasks:    Tasks{File: v.GetString(KeyTasksFile)},
		Progress: Progress{DSN: v.GetString(KeyProgressDSN)},
		Otel: Otel{
			Endpoint: v.GetString(KeyOtelEndpoint),
			Service:  v.GetString(KeyOtelService),
		},
		Log: Log{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
	}
	if c.Server.Timeout < 0 {
		return Config{}, errors.Errorf("%s must not be negative", KeyServerTimeout)
	}
	if c.Server.MaxBodyBytes < 0 {
		return Config{}, errors.Errorf("%s must not be negative", KeyServerMaxBody)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return Config{}, errors.Errorf("%s %q: want json or text", KeyLogFormat, c.Log.Format)
	}
	return c, nil
}
