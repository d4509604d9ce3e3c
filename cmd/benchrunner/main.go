// Command benchrunner exercises a silo World at a chosen dataset size and
// optimization level, printing throughput and exiting 1 if the query
// results it observes don't match what the dataset it built should
// produce — spec.md §6's CLI surface requirement.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/TheBitDrifter/silo"
	"github.com/TheBitDrifter/table"
	"github.com/c2h5oh/datasize"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// entityCount wraps datasize.ByteSize so --entities accepts the same
// "100k"/"1M" suffix notation datasize parses for byte counts, read here
// as a plain entity count instead of a byte count.
type entityCount datasize.ByteSize

func (e *entityCount) String() string { return fmt.Sprintf("%d", uint64(*e)) }

func (e *entityCount) Set(s string) error {
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(s)); err != nil {
		return err
	}
	*e = entityCount(v)
	return nil
}

func (e *entityCount) Type() string { return "entityCount" }

var _ pflag.Value = (*entityCount)(nil)

type benchPosition struct{ X, Y float64 }
type benchVelocity struct{ X, Y float64 }
type benchTag struct{}

func configFor(level string) (silo.Config, error) {
	switch level {
	case "off":
		return silo.MemoryConservative(), nil
	case "conservative":
		c := silo.MemoryConservative()
		c.EnableCaching = true
		c.CacheMaxEntries = 1_000
		c.CacheTTL = time.Second
		return c, nil
	case "balanced":
		return silo.DefaultConfig(), nil
	case "aggressive":
		return silo.PerformanceOptimized(), nil
	case "adaptive":
		c := silo.DefaultConfig()
		c.EnableHotPathOptimization = true
		c.HotThreshold = 10
		c.EnableQueryProfiling = true
		return c, nil
	default:
		return silo.Config{}, fmt.Errorf("unknown optimization level %q (want one of off, conservative, balanced, aggressive, adaptive)", level)
	}
}

func run(entities uint64, level string, cpuProfile bool) error {
	cfg, err := configFor(level)
	if err != nil {
		return err
	}

	if cpuProfile {
		p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		defer p.Stop()
	}

	schema := table.Factory.NewSchema()
	world := silo.Factory.NewWorld(schema, cfg)

	pos := silo.FactoryNewComponent[benchPosition]()
	vel := silo.FactoryNewComponent[benchVelocity]()
	tag := silo.FactoryNewComponent[benchTag]()

	moving := entities / 2
	tagged := entities - moving

	start := time.Now()
	if moving > 0 {
		if _, err := world.NewEntities(int(moving), pos, vel); err != nil {
			return fmt.Errorf("creating moving entities: %w", err)
		}
	}
	if tagged > 0 {
		if _, err := world.NewEntities(int(tagged), pos, tag); err != nil {
			return fmt.Errorf("creating tagged entities: %w", err)
		}
	}
	buildElapsed := time.Since(start)

	queryStart := time.Now()
	result, err := world.Builder().Require(pos, vel).Execute()
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	queryElapsed := time.Since(queryStart)

	fmt.Printf("entities=%d level=%s build=%s query=%s matched=%d\n",
		entities, level, buildElapsed, queryElapsed, len(result))

	if uint64(len(result)) != moving {
		return fmt.Errorf("regression: query matched %d entities, want %d", len(result), moving)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	count := entityCount(100_000)
	var level string
	var cpuProfile bool

	cmd := &cobra.Command{
		Use:   "benchrunner",
		Short: "Runs a silo query-engine benchmark at a given dataset size and optimization level",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(uint64(count), level, cpuProfile)
		},
	}

	cmd.Flags().VarP(&count, "entities", "e", "number of entities to generate (accepts suffixes, e.g. 100k, 1M)")
	cmd.Flags().StringVarP(&level, "optimization", "o", "balanced",
		"optimization level: off, conservative, balanced, aggressive, adaptive")
	cmd.Flags().BoolVar(&cpuProfile, "cpuprofile", false, "capture a CPU profile for the run via pkg/profile")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "benchrunner:", err)
		os.Exit(1)
	}
}
