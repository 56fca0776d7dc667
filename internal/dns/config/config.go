// Package config loads the application configuration from environment
// variables, layering environment overrides on top of compiled-in
// defaults and validating the result before the rest of the service
// sees it.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// RootHint is one well-known root (or test/mock root) server: a name
// for logging plus the IPv4 "host:port" address the resolver dials.
type RootHint struct {
	Name    string `koanf:"name" validate:"required"`
	Address string `koanf:"address" validate:"required,ip_port"`
}

// RootConfig carries the seed set of name servers the iterative
// resolver starts every cold walk from. spec.md hardcodes a single root
// address as a compile-time constant; SPEC_FULL promotes the full hint
// list to configuration, per spec.md §6's own invitation to do so.
type RootConfig struct {
	Servers []RootHint `koanf:"servers" validate:"required,min=1,dive"`
}

// ForwardConfig controls the forwarder mode: when Enabled, every query
// is answered by forwarding to Upstream rather than walking the
// delegation hierarchy. The client's RD bit is not consulted.
type ForwardConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Upstream string `koanf:"upstream" validate:"required_if=Enabled true,omitempty,ip_port"`
}

// CacheConfig bounds the supplemented negative-result cache. The
// spec-mandated positive RRset cache (internal/dns/cache) is an
// unbounded guarded map by design and has no size knob here.
type CacheConfig struct {
	NegativeSize int `koanf:"negative_size" validate:"required,gte=1"`
}

// AppConfig holds the fully resolved, validated configuration for one
// rrwalk process.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod"; it picks
	// the logger's encoder configuration (see common/log).
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the UDP port the server listens on.
	Port int `koanf:"port" validate:"required,gte=1,lte=65535"`

	// MaxHops bounds how many delegation hops a single iterative
	// resolution may take before it gives up, per spec.md §9's
	// suggested jump-budget guard.
	MaxHops int `koanf:"max_hops" validate:"required,gte=1"`

	Root    RootConfig    `koanf:"root" validate:"required"`
	Forward ForwardConfig `koanf:"forward"`
	Cache   CacheConfig   `koanf:"cache" validate:"required"`
}

// DefaultAppConfig is layered under environment overrides by Load. The
// root hints are the real IANA root server addresses.
var DefaultAppConfig = AppConfig{
	Env:      "prod",
	LogLevel: "info",
	Port:     53,
	MaxHops:  32,
	Root: RootConfig{
		Servers: []RootHint{
			{Name: "a.root-servers.net", Address: "198.41.0.4:53"},
			{Name: "b.root-servers.net", Address: "170.247.170.2:53"},
			{Name: "c.root-servers.net", Address: "192.33.4.12:53"},
			{Name: "d.root-servers.net", Address: "199.7.91.13:53"},
			{Name: "e.root-servers.net", Address: "192.203.230.10:53"},
			{Name: "f.root-servers.net", Address: "192.5.5.241:53"},
			{Name: "g.root-servers.net", Address: "192.112.36.4:53"},
			{Name: "h.root-servers.net", Address: "198.97.190.53:53"},
			{Name: "i.root-servers.net", Address: "192.36.148.17:53"},
			{Name: "j.root-servers.net", Address: "192.58.128.30:53"},
			{Name: "k.root-servers.net", Address: "193.0.14.129:53"},
			{Name: "l.root-servers.net", Address: "199.7.83.42:53"},
			{Name: "m.root-servers.net", Address: "202.12.27.33:53"},
		},
	},
	Forward: ForwardConfig{
		Enabled: false,
	},
	Cache: CacheConfig{
		NegativeSize: 256,
	},
}

// validIPPort validates that a field is a valid "host:port" address
// with a parseable IP (or empty, when the field is optional).
func validIPPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	if addr == "" {
		return true
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" || port == "" {
		return false
	}
	if net.ParseIP(host) == nil {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

// envLoader loads environment variables prefixed RRWALK_, lower-cased
// with underscores mapped to the koanf path separator. Declared as a
// var, in the teacher's style, so tests can substitute a failing
// loader without touching real process environment.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "RRWALK_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, "RRWALK_")), "__", ".")
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader seeds k with DefaultAppConfig before any environment
// override is applied.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DefaultAppConfig, "koanf"), nil)
}

// registerValidation wires the custom "ip_port" tag into v.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("ip_port", validIPPort)
}

// Load builds an AppConfig from compiled-in defaults overridden by
// RRWALK_-prefixed environment variables, then validates the result.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
