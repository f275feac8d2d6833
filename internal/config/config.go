// Package config loads the server's YAML configuration file, overlaying
// PAGE_-prefixed environment variables the way the original upstream's
// config::Environment::with_prefix("page") layer did.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Server is the top-level configuration the core consumes: server identity,
// resolver hosts, the upstream forge, and the cache.
type Server struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	HomeURL     string `yaml:"home_url,omitempty"`

	HomeHost      string   `yaml:"home_host,omitempty"`
	PageHosts     []string `yaml:"page_hosts,omitempty"`
	AllowDomains  bool     `yaml:"allow_domains,omitempty"`
	DefaultUser   string   `yaml:"default_user,omitempty"`
	DefaultRepo   string   `yaml:"default_repo,omitempty"`
	DefaultBranch string   `yaml:"default_branch,omitempty"`

	Port      int `yaml:"port,omitempty"`
	AdminPort int `yaml:"admin_port,omitempty"`

	Upstream Upstream `yaml:"upstream"`
	Cache    Cache    `yaml:"cache"`
}

// Upstream describes the forge being scanned.
type Upstream struct {
	URL                  string   `yaml:"url"`
	Token               string   `yaml:"token,omitempty"`
	TargetBranches      []string `yaml:"target_branches,omitempty"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds,omitempty"`
}

// PollInterval returns the configured poll interval as a time.Duration.
func (u Upstream) PollInterval() time.Duration {
	if u.PollIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(u.PollIntervalSeconds) * time.Second
}

// Cache describes the optional cache layer.
type Cache struct {
	Enabled        bool   `yaml:"enabled,omitempty"`
	Address        string `yaml:"address,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Password       string `yaml:"password,omitempty"`
	TTLSeconds     int    `yaml:"ttl_seconds,omitempty"`
	PoolSize       int    `yaml:"pool_size,omitempty"`
	MaxConnections int    `yaml:"max_connections,omitempty"`
}

// TTL returns the configured TTL as a time.Duration.
func (c Cache) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// Defaults applied when a loaded Server leaves a field empty.
const (
	DefaultName          = "pageshelf"
	DefaultServerPort    = 8080
	DefaultAdminPort     = 9090
	DefaultDefaultBranch = "pages"
	DefaultDefaultRepo   = "pages"
)

// Load reads and parses the YAML file at path, overlays PAGE_-prefixed
// environment variables, and applies defaults.
func Load(path string) (*Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var s Server
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnvOverlay(&s)
	applyDefaults(&s)
	return &s, nil
}

// applyEnvOverlay overlays PAGE_<FIELD> environment variables on top of the
// file-sourced configuration, mirroring config::Environment::with_prefix
// without depending on a general-purpose config library for a single-layer
// override (see DESIGN.md).
func applyEnvOverlay(s *Server) {
	if v, ok := os.LookupEnv("PAGE_NAME"); ok {
		s.Name = v
	}
	if v, ok := os.LookupEnv("PAGE_HOME_URL"); ok {
		s.HomeURL = v
	}
	if v, ok := os.LookupEnv("PAGE_HOME_HOST"); ok {
		s.HomeHost = v
	}
	if v, ok := os.LookupEnv("PAGE_PAGE_HOSTS"); ok {
		s.PageHosts = splitCommaList(v)
	}
	if v, ok := os.LookupEnv("PAGE_ALLOW_DOMAINS"); ok {
		s.AllowDomains = parseBool(v)
	}
	if v, ok := os.LookupEnv("PAGE_DEFAULT_USER"); ok {
		s.DefaultUser = v
	}
	if v, ok := os.LookupEnv("PAGE_PORT"); ok {
		s.Port = parseInt(v, s.Port)
	}
	if v, ok := os.LookupEnv("PAGE_UPSTREAM_URL"); ok {
		s.Upstream.URL = v
	}
	if v, ok := os.LookupEnv("PAGE_UPSTREAM_TOKEN"); ok {
		s.Upstream.Token = v
	}
	if v, ok := os.LookupEnv("PAGE_CACHE_ENABLED"); ok {
		s.Cache.Enabled = parseBool(v)
	}
	if v, ok := os.LookupEnv("PAGE_CACHE_ADDRESS"); ok {
		s.Cache.Address = v
	}
}

func applyDefaults(s *Server) {
	if s.Name == "" {
		s.Name = DefaultName
	}
	if s.Port == 0 {
		s.Port = DefaultServerPort
	}
	if s.AdminPort == 0 {
		s.AdminPort = DefaultAdminPort
	}
	if s.DefaultBranch == "" {
		s.DefaultBranch = DefaultDefaultBranch
	}
	if s.DefaultRepo == "" {
		s.DefaultRepo = DefaultDefaultRepo
	}
	if len(s.Upstream.TargetBranches) == 0 {
		s.Upstream.TargetBranches = []string{s.DefaultBranch}
	}
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func parseInt(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
