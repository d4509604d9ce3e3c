package silo

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the engine's configuration record (spec §6). One Config
// drives one Engine — the source's separate "base" and "advanced" engine
// types collapse into this single knob set (spec §9, Open Question 2).
type Config struct {
	EnableCaching bool `toml:"enable_caching"`

	EnableParallelExecution bool `toml:"enable_parallel_execution"`
	ParallelThreshold       int  `toml:"parallel_threshold"`

	EnableSpatialOptimization bool `toml:"enable_spatial_optimization"`

	EnableHotPathOptimization bool `toml:"enable_hot_path_optimization"`
	HotThreshold              int  `toml:"hot_threshold"`

	EnableQueryProfiling bool `toml:"enable_query_profiling"`

	CacheMaxEntries int           `toml:"cache_max_entries"`
	CacheTTL        time.Duration `toml:"cache_ttl"`

	MaxWorkerThreads int `toml:"max_worker_threads"`

	// StrictDependencies opts into per-component dependency-map
	// invalidation in addition to version-bump invalidation (spec §9,
	// Open Question 1). Off by default: version bump alone is sufficient
	// and cheaper.
	StrictDependencies bool `toml:"strict_dependencies"`
}

// DefaultConfig is a balanced configuration suitable as a starting point.
func DefaultConfig() Config {
	return Config{
		EnableCaching:             true,
		EnableParallelExecution:   true,
		ParallelThreshold:         1000,
		EnableSpatialOptimization: true,
		EnableHotPathOptimization: true,
		HotThreshold:              50,
		EnableQueryProfiling:      false,
		CacheMaxEntries:           10_000,
		CacheTTL:                  5 * time.Second,
		MaxWorkerThreads:          0, // 0 => host CPU count (runtime.NumCPU), resolved by the executor
	}
}

// PerformanceOptimized turns on every optimization and profiling off,
// with a larger cache — the preset for a hot production loop.
func PerformanceOptimized() Config {
	c := DefaultConfig()
	c.CacheMaxEntries = 50_000
	c.CacheTTL = 30 * time.Second
	c.ParallelThreshold = 500
	c.HotThreshold = 25
	return c
}

// MemoryConservative turns every optimization off and shrinks the cache,
// for an embedded or memory-constrained host.
func MemoryConservative() Config {
	return Config{
		EnableCaching:             false,
		EnableParallelExecution:   false,
		ParallelThreshold:         1 << 30,
		EnableSpatialOptimization: false,
		EnableHotPathOptimization: false,
		HotThreshold:              1 << 30,
		EnableQueryProfiling:      false,
		CacheMaxEntries:           64,
		CacheTTL:                  time.Second,
		MaxWorkerThreads:          1,
	}
}

// DevelopmentMode turns profiling on and shortens TTL so stale cache
// entries surface quickly while iterating.
func DevelopmentMode() Config {
	c := DefaultConfig()
	c.EnableQueryProfiling = true
	c.CacheTTL = 500 * time.Millisecond
	c.HotThreshold = 5
	return c
}

// LoadConfig reads a TOML configuration file into a Config, starting
// from DefaultConfig so unspecified fields keep sane values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
