package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/propinspect/pkg/inspector"
	"github.com/oakwood-commons/propinspect/pkg/loader"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

const litSchema = `id: lit
properties:
  - name: _Surface
    type: int
    default: 0
    directives:
      - {kind: main, group: Surface, expanded: true}
  - name: _BaseColor
    displayName: "Base Color#Albedo tint"
    type: color
    default: [1, 1, 1, 1]
    directives:
      - {kind: sub, group: Surface}
  - name: _Cutoff
    type: float
    default: 0.5
    directives:
      - {kind: sub, group: Surface}
      - {kind: advanced}
  - name: _Internal
    type: float
    default: 0
    directives:
      - {kind: hidden}
`

const glassInstance = `id: glass
values:
  _Surface: 1
  _Cutoff: 0.25
`

type fixture struct {
	dir      string
	schema   string
	instance string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	dir := t.TempDir()
	f := fixture{
		dir:      dir,
		schema:   filepath.Join(dir, "lit.yaml"),
		instance: filepath.Join(dir, "glass.yaml"),
	}
	require.NoError(t, os.WriteFile(f.schema, []byte(litSchema), 0o600))
	require.NoError(t, os.WriteFile(f.instance, []byte(glassInstance), 0o600))
	return f
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestShow_Tree(t *testing.T) {
	f := newFixture(t)
	out, _, err := execute(t, "show", f.schema, f.instance)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "glass (lit)\n"), out)
	assert.Contains(t, out, "_Surface: 1 *")
	assert.Contains(t, out, "Base Color: RGBA(1, 1, 1, 1)")
	assert.Contains(t, out, "_Cutoff [+]: 0.25 *")
	assert.NotContains(t, out, "_Internal")
}

func TestShow_Filters(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"show hidden", []string{"--show-hidden"}, []string{"_Internal"}, nil},
		{"only modified", []string{"--only-modified"}, []string{"_Surface", "_Cutoff"}, []string{"Base Color"}},
		{"search", []string{"--search", "base"}, []string{"_Surface", "Base Color"}, []string{"_Cutoff"}},
		{"limit", []string{"--limit", "1"}, []string{"_Surface"}, []string{"Base Color"}},
		{"tail", []string{"--tail", "1"}, []string{"_Cutoff"}, []string{"Base Color"}},
		{"collapse", []string{"--collapse", "_Surface"}, []string{"_Surface [+]"}, []string{"Base Color"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append([]string{"show", f.schema, f.instance}, tt.args...)...)
			require.NoError(t, err)
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestShow_SchemaDefaults(t *testing.T) {
	f := newFixture(t)
	out, _, err := execute(t, "show", f.schema, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"instance": "lit-defaults"`)
	assert.Contains(t, out, `"modifiedCount": 0`)
}

func TestShow_Errors(t *testing.T) {
	f := newFixture(t)

	_, _, err := execute(t, "show", f.schema, f.instance, "--limit", "1", "--tail", "1")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, _, err = execute(t, "show", f.schema, f.instance, "-o", "xml")
	assert.ErrorContains(t, err, "xml")

	_, _, err = execute(t, "show", f.schema, f.instance, "--search-mode", "fuzzy")
	assert.Error(t, err)

	_, _, err = execute(t, "show", f.schema, f.instance, "--expand", "_Nope")
	assert.ErrorIs(t, err, inspector.ErrUnknownProperty)

	_, _, err = execute(t, "show", filepath.Join(f.dir, "missing.yaml"))
	assert.ErrorContains(t, err, "load schema")

	_, _, err = execute(t, "show", f.schema, f.instance, "--log-level", "loud")
	assert.Error(t, err)
}

func TestShow_ConfigFile(t *testing.T) {
	f := newFixture(t)
	cfgPath := filepath.Join(f.dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  format: table\ndisplay:\n  showHidden: true\n"), 0o600))

	out, _, err := execute(t, "--config", cfgPath, "show", f.schema, f.instance)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "PROPERTY"), out)
	assert.Contains(t, out, "_Internal")

	out, _, err = execute(t, "--config", cfgPath, "show", f.schema, f.instance, "--show-hidden=false")
	require.NoError(t, err)
	assert.NotContains(t, out, "_Internal", "flags override the config")

	bad := filepath.Join(f.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("output:\n  format: xml\n"), 0o600))
	_, _, err = execute(t, "--config", bad, "show", f.schema)
	assert.ErrorContains(t, err, "load config")
}

func TestState(t *testing.T) {
	f := newFixture(t)
	out, _, err := execute(t, "state", f.schema, "_BaseColor", "-i", f.instance, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "displayLabel: Base Color")
	assert.Contains(t, out, "tooltip: Albedo tint")
	assert.Contains(t, out, "visible: true")

	out, _, err = execute(t, "state", f.schema, "_Internal", "-i", f.instance)
	require.NoError(t, err)
	assert.Contains(t, out, "no (hidden)")

	_, _, err = execute(t, "state", f.schema, "_Nope")
	assert.ErrorIs(t, err, inspector.ErrUnknownProperty)
}

func TestRevert_Prints(t *testing.T) {
	f := newFixture(t)
	out, errOut, err := execute(t, "revert", f.schema, "_Surface", "-i", f.instance, "--group")
	require.NoError(t, err)
	assert.Contains(t, errOut, "reverted: _Surface, _Cutoff")
	assert.Contains(t, out, "_Surface: 0")
	assert.Contains(t, out, "_Cutoff: 0.5")

	data, err := os.ReadFile(f.instance)
	require.NoError(t, err)
	assert.Equal(t, glassInstance, string(data), "the file is untouched without --write")

	_, errOut, err = execute(t, "revert", f.schema, "_BaseColor", "-i", f.instance)
	require.NoError(t, err)
	assert.Contains(t, errOut, "nothing to revert")
}

func TestRevert_Write(t *testing.T) {
	f := newFixture(t)
	_, _, err := execute(t, "revert", f.schema, "_Cutoff", "-i", f.instance, "--write", "-q")
	require.NoError(t, err)

	s, err := loader.LoadSchema(f.schema)
	require.NoError(t, err)
	inst, err := loader.LoadInstance(f.instance, s)
	require.NoError(t, err)
	v, _ := inst.Value("_Cutoff")
	assert.Equal(t, value.FloatValue(0.5), v)
	v, _ = inst.Value("_Surface")
	assert.Equal(t, value.IntValue(1), v, "only the named property is reverted")
}

func TestRevert_Errors(t *testing.T) {
	f := newFixture(t)
	_, _, err := execute(t, "revert", f.schema, "_Surface")
	assert.ErrorContains(t, err, "instance")

	_, _, err = execute(t, "revert", f.schema, "_Surface", "-i", f.instance, "-o", "xml")
	assert.Error(t, err)
}

func TestTree(t *testing.T) {
	f := newFixture(t)
	out, _, err := execute(t, "tree", f.schema)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "lit\n"))
	assert.Contains(t, out, "_Surface [main]")
	assert.Contains(t, out, "_Internal [hidden]")
}

func TestVersionAndConfig(t *testing.T) {
	newFixture(t)

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "propinspect v0.0.0-nightly")

	out, _, err = execute(t, "version", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": "v0.0.0-nightly"`)

	out, _, err = execute(t, "config", "get", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"format": "tree"`)

	out, _, err = execute(t, "config", "default")
	require.NoError(t, err)
	assert.Contains(t, out, "theme:")

	out, _, err = execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, "(built-in defaults)\n", out)
}

// syncBuffer is written by the watch goroutine and read by the test.
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

func TestWatch(t *testing.T) {
	f := newFixture(t)
	root := newRootCmd()
	var out, errOut syncBuffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"watch", f.schema, f.instance, "--debounce", "20ms"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "_Cutoff [+]: 0.25 *")
	}, 3*time.Second, 20*time.Millisecond)

	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(f.instance, []byte("id: glass\nvalues:\n  _Surface: 1\n  _Cutoff: 0.75\n"), 0o600))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "_Cutoff [+]: 0.75 *")
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}
}
