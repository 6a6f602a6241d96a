// Package config loads memsplit settings: defaults, then a YAML file, then the environment
// (a .env file filling in for variables that are not set).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"memsplit/layout"
	"memsplit/process"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DefaultProcessName    = "Celeste.bin.x86_64"
	DefaultListen         = "localhost:8777"
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultLayout         = "autosplitter-v1"
	DefaultExtendedLayout = "extended-v1"

	// NoLayout disables the extended lookup
	NoLayout = "none"

	EnvPrefix = "MEMSPLIT_"
)

// Address accepts either a YAML integer or a "0x" hex string
type Address uint64

func (a *Address) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fmt.Errorf("bad address %q: %w", s, err)
	}
	*a = Address(v)
	return nil
}

func (a Address) MarshalYAML() (interface{}, error) {
	return fmt.Sprintf("0x%x", uint64(a)), nil
}

type ScanRange struct {
	Start Address `yaml:"start"`
	End   Address `yaml:"end"`
}

type Config struct {
	ProcessName    string          `yaml:"process-name"`
	PID            int             `yaml:"pid"`
	PollInterval   time.Duration   `yaml:"poll-interval"`
	Listen         string          `yaml:"listen"`
	SingleClient   bool            `yaml:"single-client"`
	RouteFile      string          `yaml:"route-file"`
	Layout         string          `yaml:"layout"`
	ExtendedLayout string          `yaml:"extended-layout"`
	CustomLayouts  []layout.Layout `yaml:"custom-layouts"`
	LayoutFiles    []string        `yaml:"layout-files"`
	SignatureCache string          `yaml:"signature-cache"`
	ScanRange      ScanRange       `yaml:"scan-range"`
}

// Default returns the built-in settings. The signature cache lives in the user cache directory
// when there is one.
func Default() Config {
	c := Config{
		ProcessName:    DefaultProcessName,
		PollInterval:   DefaultPollInterval,
		Listen:         DefaultListen,
		Layout:         DefaultLayout,
		ExtendedLayout: DefaultExtendedLayout,
		SignatureCache: "memory",
		ScanRange: ScanRange{
			Start: Address(process.UserSpaceRange.Start),
			End:   Address(process.UserSpaceRange.End),
		},
	}
	if dir, err := os.UserCacheDir(); err == nil {
		c.SignatureCache = "file:" + filepath.Join(dir, "memsplit", "signatures.json")
	}
	return c
}

// Load builds the configuration. path may be empty; a missing envFile is ignored.
func Load(path, envFile string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		var err error
		dotenv, err = godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := c.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyEnv overlays MEMSPLIT_* variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("PROCESS_NAME", &c.ProcessName)
	str("LISTEN", &c.Listen)
	str("ROUTE_FILE", &c.RouteFile)
	str("LAYOUT", &c.Layout)
	str("EXTENDED_LAYOUT", &c.ExtendedLayout)
	str("SIGNATURE_CACHE", &c.SignatureCache)

	if v, ok := lookup(EnvPrefix + "PID"); ok {
		pid, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sPID: %w", EnvPrefix, err)
		}
		c.PID = pid
	}
	if v, ok := lookup(EnvPrefix + "POLL_INTERVAL"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sPOLL_INTERVAL: %w", EnvPrefix, err)
		}
		c.PollInterval = d
	}
	if v, ok := lookup(EnvPrefix + "SINGLE_CLIENT"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sSINGLE_CLIENT: %w", EnvPrefix, err)
		}
		c.SingleClient = b
	}
	return nil
}

func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive, got %s", c.PollInterval)
	}
	if c.PID < 0 {
		return fmt.Errorf("pid must not be negative, got %d", c.PID)
	}
	if c.ScanRange.Start >= c.ScanRange.End {
		return fmt.Errorf("scan-range start 0x%x is not below end 0x%x", uint64(c.ScanRange.Start), uint64(c.ScanRange.End))
	}
	reg, err := c.Registry()
	if err != nil {
		return err
	}
	if _, err := reg.Get(c.Layout); err != nil {
		return err
	}
	if c.ExtendedLayout != NoLayout && c.ExtendedLayout != "" {
		if _, err := reg.Get(c.ExtendedLayout); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the builtin layouts plus the custom ones, inline layouts last
func (c *Config) Registry() (*layout.Registry, error) {
	reg := layout.NewRegistry()
	var custom []layout.Layout
	for _, path := range c.LayoutFiles {
		ls, err := layout.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		custom = append(custom, ls...)
	}
	custom = append(custom, c.CustomLayouts...)

	for _, l := range custom {
		if err := reg.Register(l); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (c *Config) AddressRange() process.AddressRange {
	return process.AddressRange{
		Start: process.ProcessMemoryAddress(c.ScanRange.Start),
		End:   process.ProcessMemoryAddress(c.ScanRange.End),
	}
}
