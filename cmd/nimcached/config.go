package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/facebookgo/stackerr"

	"github.com/brilliance-boy/nimbus/internal/util"
	"github.com/brilliance-boy/nimbus/log"
)

type InputConfig struct {
	LogDestination string `json:"log-destination"` // Stdout, stderr, or filepath.
	LogLevel       string `json:"log-level"`
	Capacity       int    `json:"capacity"`
	// Size values 10g, 128m, 1024k, 1000000b.
	MaxMemoryUsage string `json:"max-memory-usage"`
	LowMemoryUsage string `json:"low-memory-usage"`
}

func DefaultInputConfig() *InputConfig {
	return &InputConfig{
		LogDestination: "stderr",
		LogLevel:       "info",
		Capacity:       0,
		MaxMemoryUsage: "64m",
		LowMemoryUsage: "32m",
	}
}

const usageHeader = `
Config values merge rules:
1) config file value overrides default
2) command line value overrides any
Options:
`

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s", usageHeader)
		flag.PrintDefaults()
	}
}

type Config struct {
	LogDestination io.Writer
	LogLevel       log.Level
	Capacity       int
	MaxMemoryUsage uint64
	LowMemoryUsage uint64
}

// config parses command flags, reads config file if any, returns merged config.
func config() *Config {
	l := log.NewLogger(log.DebugLevel, os.Stderr)
	flg := parseFlags()
	fileConf := DefaultInputConfig()
	if flg.ConfigPath != "" {
		data, err := os.ReadFile(flg.ConfigPath)
		if err != nil {
			l.Fatal("Config file read error: ", stackerr.Wrap(err))
		}
		err = json.Unmarshal(data, fileConf)
		if err != nil {
			l.Fatal("Config parse error: ", stackerr.Wrap(err))
		}
	}
	mergeConfigs(fileConf, &flg.InputConfig)
	return parseConfig(l, fileConf)
}

func parseConfig(l log.Logger, in *InputConfig) *Config {
	parsed := &Config{Capacity: in.Capacity}
	var err error
	parsed.LogDestination, err = logDestination(in.LogDestination)
	if err != nil {
		l.Fatal("Log destination open error: ", err)
	}
	parsed.LogLevel, err = log.LevelFromString(strings.ToUpper(in.LogLevel))
	if err != nil {
		l.Fatal("Log level parse error: ", err)
	}
	parsed.MaxMemoryUsage, err = parseSize(in.MaxMemoryUsage)
	if err != nil {
		l.Fatal("Max memory usage parse error: ", err)
	}
	parsed.LowMemoryUsage, err = parseSize(in.LowMemoryUsage)
	if err != nil {
		l.Fatal("Low memory usage parse error: ", err)
	}
	return parsed
}

type Flags struct {
	ConfigPath string
	InputConfig
}

func parseFlags() Flags {
	var f Flags
	flag.StringVar(&f.ConfigPath, "config", "", "path to json config")

	def := DefaultInputConfig()
	usage := func(usage string, defVal interface{}) string {
		if _, ok := defVal.(string); ok {
			usage += fmt.Sprintf(" (default %q)", defVal)
		} else {
			usage += fmt.Sprintf(" (default %v)", defVal)
		}
		return usage
	}
	flag.StringVar(&f.LogDestination, "log-destination", "", usage("log destination: stderr, stdout or file path", def.LogDestination))
	flag.StringVar(&f.LogLevel, "log-level", "", usage("log level: debug, info, warn, error, fatal", def.LogLevel))
	flag.IntVar(&f.Capacity, "capacity", 0, usage("initial cache capacity hint", def.Capacity))
	flag.StringVar(&f.MaxMemoryUsage, "max-memory-usage", "", usage("advisory memory cap: 2g, 64m", def.MaxMemoryUsage))
	flag.StringVar(&f.LowMemoryUsage, "low-memory-usage", "", usage("reduce sweep ceiling: 32m, 512k", def.LowMemoryUsage))
	flag.Parse()
	return f
}

func parseSize(s string) (size uint64, err error) {
	if len(s) < 2 {
		err = stackerr.New("invalid size format")
		return
	}
	sep := len(s) - 1
	sizeStr := s[:sep]
	exponentStr := s[sep:]
	var exponent uint
	switch strings.ToLower(exponentStr) {
	case "b":
		exponent = 0
	case "k":
		exponent = 10
	case "m":
		exponent = 20
	case "g":
		exponent = 30
	default:
		err = stackerr.New("invalid exponent, only 'b', 'k', 'm', 'g' allowed")
		return
	}
	size, err = strconv.ParseUint(sizeStr, 10, 31)
	if err != nil {
		err = stackerr.Newf("size parse error: %s", err)
		return
	}
	size <<= exponent
	return
}

func logDestination(dest string) (w io.Writer, err error) {
	switch strings.ToLower(dest) {
	case "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		w, err = os.OpenFile(dest, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	}
	return
}

// mergeConfigs overwrites def values with non zero override values.
func mergeConfigs(def, override *InputConfig) {
	defVal := reflect.ValueOf(def).Elem()
	overrideVal := reflect.ValueOf(override).Elem()
	for i, end := 0, defVal.NumField(); i < end; i++ {
		overrideField := overrideVal.Field(i)
		if !util.IsZeroVal(overrideField) {
			defVal.Field(i).Set(overrideField)
		}
	}
}
