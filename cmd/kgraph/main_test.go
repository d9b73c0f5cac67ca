package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/spf13/cobra"

	"github.com/birdayz/kgraph"
	"github.com/birdayz/kgraph/internal/plancache"
	"github.com/birdayz/kgraph/kdag"
	"github.com/birdayz/kgraph/kmanifest"
	"github.com/birdayz/kgraph/kserde"
)

const synthDoc = `name: synth
types:
  - name: audio
  - name: ctl
    strict: true
nodes:
  - name: osc
    priority: 2
    ports:
      - {type: audio, outputs: 1}
  - name: lfo
    priority: %LFO%
    ports:
      - {type: ctl, outputs: 1}
  - name: vca
    ports:
      - {type: ctl, inputs: 1}
      - {type: audio, inputs: 1, outputs: 1}
  - name: out
    id: 7
    ports:
      - {type: audio, inputs: 2}
edges:
  - {type: audio, from: "osc:0", to: "vca:0"}
  - {type: ctl, from: "lfo:0", to: "vca:0"}
  - {type: audio, from: "vca:0", to: "out:0"}
`

const cyclicDoc = `types: [{name: data}]
nodes:
  - {name: a, ports: [{type: data, inputs: 1, outputs: 1}]}
  - {name: b, ports: [{type: data, inputs: 1, outputs: 1}]}
edges:
  - {type: data, from: "a:0", to: "b:0"}
  - {type: data, from: "b:0", to: "a:0"}
`

func synth(lfoPriority string) string {
	return strings.Replace(synthDoc, "%LFO%", lfoPriority, 1)
}

func resetFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		compileFormat = "text"
		compileCacheDir = ""
		compileVars = nil
		compileStrict = nil
		compileRejectCycles = false
		printPipeline = false
		printName = ""
		watchDebounce = 20 * time.Millisecond
	}
	reset()
	t.Cleanup(reset)
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	err := fn(cmd, args)
	return buf.String(), err
}

func TestCompileText(t *testing.T) {
	resetFlags(t)
	path := writeDoc(t, t.TempDir(), "synth.yaml", synth("0"))

	out, err := run(runCompile, path)
	assert.NoError(t, err)
	assert.Contains(t, out, "order:  [0 1 2 7]")
	assert.Contains(t, out, "type audio: 2 buffers, 2 producers, inputs 7:1, outputs -")
	assert.Contains(t, out, "type ctl strict: 1 buffers, 1 producers, inputs -, outputs -")
	assert.NotContains(t, out, "cyclic")
}

func TestCompileJSON(t *testing.T) {
	resetFlags(t)
	compileFormat = "json"
	path := writeDoc(t, t.TempDir(), "synth.yaml", synth("5"))

	out, err := run(runCompile, path)
	assert.NoError(t, err)

	r, err := kserde.JSONDeserializer[compiled]()([]byte(out))
	assert.NoError(t, err)
	assert.Equal(t, path, r.File)
	assert.Equal(t, 64, len(r.Hash))
	assert.Equal(t, []kdag.NodeID{1, 0, 2, 7}, r.Plan.Order)
	assert.Equal(t, 2, len(r.Plan.Types))
}

func TestCompileKeepsArgumentOrder(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"c.yaml", "a.yaml", "b.yaml", "d.yaml"} {
		paths = append(paths, writeDoc(t, dir, name, synth("0")))
	}

	out, err := run(runCompile, paths...)
	assert.NoError(t, err)

	last := -1
	for _, p := range paths {
		i := strings.Index(out, p)
		assert.True(t, i > last, p)
		last = i
	}
}

func TestCompileCyclic(t *testing.T) {
	resetFlags(t)
	path := writeDoc(t, t.TempDir(), "cycle.yaml", cyclicDoc)

	out, err := run(runCompile, path)
	assert.NoError(t, err)
	assert.Contains(t, out, "cyclic: true")
	assert.Contains(t, out, "order:  [0 1]")

	compileRejectCycles = true
	_, err = run(runCompile, path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cycle detected")
}

func TestCompileErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "synth.yaml", synth("0"))

	tests := []struct {
		name   string
		setup  func()
		args   []string
		target error
		want   string
	}{
		{
			name:   "strict type with open port",
			setup:  func() { compileStrict = []string{"audio"} },
			args:   []string{good},
			target: kgraph.ErrUnconnectedPort,
		},
		{
			name:   "unknown strict type",
			setup:  func() { compileStrict = []string{"video"} },
			args:   []string{good},
			target: kdag.ErrTypeNotFound,
		},
		{
			name:   "unsupported file",
			args:   []string{good, filepath.Join(dir, "graph.toml")},
			target: kmanifest.ErrUnsupportedFormat,
		},
		{
			name:   "invalid document",
			args:   []string{writeDoc(t, dir, "empty.yaml", "name: empty\n")},
			target: kmanifest.ErrInvalidDocument,
		},
		{
			name:  "bad variable",
			setup: func() { compileVars = []string{"novalue"} },
			args:  []string{good},
			want:  "novalue",
		},
		{
			name:  "bad format",
			setup: func() { compileFormat = "xml" },
			args:  []string{good},
			want:  "invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			if tt.setup != nil {
				tt.setup()
			}
			_, err := run(runCompile, tt.args...)
			assert.Error(t, err)
			if tt.target != nil {
				assert.IsError(t, err, tt.target)
			}
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompileCache(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	compileCacheDir = filepath.Join(dir, "cache")
	path := writeDoc(t, dir, "synth.yaml", synth("0"))

	first, err := run(runCompile, path)
	assert.NoError(t, err)

	doc, err := kmanifest.LoadFile(path, nil)
	assert.NoError(t, err)
	hash, err := doc.Hash()
	assert.NoError(t, err)

	out, err := run(runCacheList)
	assert.NoError(t, err)
	assert.Equal(t, plancache.Key(hash)+"\n", out)

	t.Run("served from cache", func(t *testing.T) {
		c, err := plancache.Open(compileCacheDir)
		assert.NoError(t, err)
		assert.NoError(t, c.Put(plancache.Key(hash), kgraph.Snapshot{Order: []kdag.NodeID{42}}))
		assert.NoError(t, c.Close())

		out, err := run(runCompile, path)
		assert.NoError(t, err)
		assert.Contains(t, out, "order:  [42]")
	})

	t.Run("options change the key", func(t *testing.T) {
		compileRejectCycles = true
		defer func() { compileRejectCycles = false }()

		out, err := run(runCompile, path)
		assert.NoError(t, err)
		assert.Equal(t, first, out)
	})

	out, err = run(runCachePurge)
	assert.NoError(t, err)
	assert.Equal(t, "removed 2 plans\n", out)

	out, err = run(runCacheList)
	assert.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestPrint(t *testing.T) {
	resetFlags(t)
	path := writeDoc(t, t.TempDir(), "synth.yaml", synth("0"))

	out, err := run(runPrint, path)
	assert.NoError(t, err)
	for _, edge := range []string{"0 --> 2", "1 --> 2", "2 --> 7"} {
		assert.Contains(t, out, edge)
	}

	printPipeline = true
	out, err = run(runPrint, path)
	assert.NoError(t, err)
	assert.Contains(t, out, "0 --> 1 --> 2 --> 7")

	_, err = run(runPrint, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, got:\n%s", want, buf.String())
}

func TestWatch(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	path := writeDoc(t, dir, "synth.yaml", synth("0"))

	c, err := newCompiler()
	assert.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var buf syncBuffer
	done := make(chan error, 1)
	go func() { done <- watch(ctx, c, []string{path}, &buf) }()

	waitFor(t, &buf, "order:  [0 1 2 7]")

	writeDoc(t, dir, "other.yaml", cyclicDoc)
	writeDoc(t, dir, "synth.yaml", synth("5"))
	waitFor(t, &buf, "order:  [1 0 2 7]")

	writeDoc(t, dir, "synth.yaml", "types: [")
	waitFor(t, &buf, path+": error:")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.NotContains(t, buf.String(), "other.yaml")
}
