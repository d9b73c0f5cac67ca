package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/errgroup"

	"github.com/birdayz/kgraph"
	"github.com/birdayz/kgraph/internal/plancache"
	"github.com/birdayz/kgraph/kmanifest"
	"github.com/birdayz/kgraph/kserde"
)

var (
	compileFormat       string
	compileCacheDir     string
	compileVars         []string
	compileStrict       []string
	compileRejectCycles bool
)

var compileCmd = &cobra.Command{
	Use:   "compile FILE...",
	Short: "Compile graph documents and print their plans",
	Long: `Loads, validates and compiles every file concurrently. Plans are printed
in argument order, either as a summary or as JSON snapshots.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func init() {
	f := compileCmd.Flags()
	f.StringVar(&compileFormat, "format", "text", "Output format (text, json)")
	f.StringVar(&compileCacheDir, "cache-dir", "", "Directory of the plan cache; empty disables caching")
	f.StringArrayVar(&compileVars, "var", nil, "HCL variable as name=value, repeatable")
	f.StringSliceVar(&compileStrict, "strict", nil, "Data types to treat as strict")
	f.BoolVar(&compileRejectCycles, "reject-cycles", false, "Fail on cyclic graphs")
}

// compiled is one file's result as printed by compile and watch.
type compiled struct {
	File string          `json:"file"`
	Hash string          `json:"hash"`
	Plan kgraph.Snapshot `json:"plan"`
}

// compiler loads and compiles documents with the current flag values.
type compiler struct {
	vars  map[string]cty.Value
	opts  []kgraph.Option
	tags  []string
	cache *plancache.Cache
}

func newCompiler() (*compiler, error) {
	vars, err := kmanifest.ParseVars(compileVars)
	if err != nil {
		return nil, err
	}

	c := &compiler{
		vars: vars,
		opts: []kgraph.Option{kgraph.WithLog(slogger())},
	}
	if len(compileStrict) > 0 {
		c.opts = append(c.opts, kgraph.WithStrictTypes(compileStrict...))
		strict := slices.Clone(compileStrict)
		slices.Sort(strict)
		c.tags = append(c.tags, "strict="+strings.Join(strict, "+"))
	}
	if compileRejectCycles {
		c.opts = append(c.opts, kgraph.WithCycleRejection())
		c.tags = append(c.tags, "reject-cycles")
	}
	for _, kv := range compileVars {
		c.tags = append(c.tags, "var="+kv)
	}

	if compileCacheDir != "" {
		c.cache, err = plancache.Open(compileCacheDir)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *compiler) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}

func (c *compiler) compile(path string) (compiled, error) {
	doc, err := kmanifest.LoadFile(path, c.vars)
	if err != nil {
		return compiled{}, err
	}
	hash, err := doc.Hash()
	if err != nil {
		return compiled{}, err
	}
	result := compiled{File: path, Hash: hash}

	key := plancache.Key(hash, c.tags...)
	if c.cache != nil {
		s, err := c.cache.Get(key)
		switch {
		case err == nil:
			logger.Debug().Str("file", path).Str("key", key).Msg("Plan cache hit")
			result.Plan = s
			return result, nil
		case !errors.Is(err, plancache.ErrNotFound):
			logger.Warn().Err(err).Str("key", key).Msg("Ignoring plan cache entry")
		}
	}

	d, err := doc.Build()
	if err != nil {
		return compiled{}, err
	}
	plan, err := kgraph.Compile(d, c.opts...)
	if err != nil {
		return compiled{}, err
	}
	result.Plan = plan.Snapshot()

	if c.cache != nil {
		if err := c.cache.Put(key, result.Plan); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to cache plan")
		}
	}
	return result, nil
}

// compileAll compiles the files concurrently and returns the results in
// argument order.
func (c *compiler) compileAll(ctx context.Context, paths []string) ([]compiled, error) {
	results := make([]compiled, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := c.compile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	if compileFormat != "text" && compileFormat != "json" {
		return fmt.Errorf("invalid format %q", compileFormat)
	}

	c, err := newCompiler()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := c.compileAll(ctx, args)
	if err != nil {
		return err
	}
	return writeResults(cmd.OutOrStdout(), compileFormat, results)
}

var jsonSerializer = kserde.JSONIndentSerializer[compiled]("  ")

func writeResults(w io.Writer, format string, results []compiled) error {
	for _, r := range results {
		if format == "json" {
			data, err := jsonSerializer(r)
			if err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				return err
			}
			continue
		}
		writeSummary(w, r)
	}
	return nil
}

func writeSummary(w io.Writer, r compiled) {
	s := r.Plan
	fmt.Fprintf(w, "%s (%s)\n", r.File, r.Hash[:12])
	fmt.Fprintf(w, "  order:  %v\n", s.Order)
	if s.Cyclic {
		fmt.Fprintf(w, "  cyclic: true\n")
	}
	for _, t := range s.Types {
		strict := ""
		if t.Strict {
			strict = " strict"
		}
		fmt.Fprintf(w, "  type %s%s: %d buffers, %d producers, inputs %s, outputs %s\n",
			t.Name, strict, t.BufferCount, len(t.Producers), ports(t.ExternalInputs), ports(t.ExternalOutputs))
	}
}

func ports(refs []kgraph.PortRef) string {
	if len(refs) == 0 {
		return "-"
	}
	parts := make([]string, len(refs))
	for i, p := range refs {
		parts[i] = fmt.Sprintf("%d:%d", p.Node, p.Port)
	}
	return strings.Join(parts, " ")
}
