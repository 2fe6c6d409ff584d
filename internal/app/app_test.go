package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/rcpgrid/internal/errcode"
	"github.com/specialistvlad/rcpgrid/internal/publish"
	"github.com/specialistvlad/rcpgrid/internal/render"
	"github.com/specialistvlad/rcpgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loopDiagram = `
	bus "can0" {
	  protocol = "can"
	}
	block "tq" "FH_5XXX_getTQ" {
	  bus    = "can0"
	  params = { id = 5 }
	}
	block "set" "FH_5XXX_setTQ" {
	  bus    = "can0"
	  params = { id = 5 }
	}
	wire {
	  from = "tq.out"
	  to   = ["set.in"]
	}
`

// recordingEmitter keeps everything emitted through it.
type recordingEmitter struct {
	events   []string
	payloads [][]byte
	closed   bool
}

func (r *recordingEmitter) Emit(event string, payload []byte) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recordingEmitter) Close() error {
	r.closed = true
	return nil
}

// setupApp creates an app with debug logging captured in the returned buffer.
func setupApp(t *testing.T, cfg Config, opts ...Option) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	cfg.LogLevel = "debug"
	config, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	t.Cleanup(func() {
		if t.Failed() || os.Getenv("RCPGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return NewApp(out, logs, config, opts...), out, logs
}

func TestRun_JSON(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"loop.hcl": loopDiagram})
	a, out, logs := setupApp(t, Config{DiagramPath: root})

	require.NoError(t, a.Run(context.Background()))

	var doc render.Document
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	require.Len(t, doc.Steps, 2)
	assert.Equal(t, "tq", doc.Steps[0].Entries[0].ID)
	assert.Equal(t, "set", doc.Steps[1].Entries[0].ID)

	testutil.RequireLogged(t, logs, "Diagram loaded.")
	testutil.RequireLogged(t, logs, "Schedule written.")
	assert.NotNil(t, a.Registry())
}

func TestRun_HCLToFile(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"loop.hcl": loopDiagram})
	outPath := filepath.Join(t.TempDir(), "schedule.hcl")
	a, out, _ := setupApp(t, Config{DiagramPath: root, Format: FormatHCL, OutputPath: outPath})

	require.NoError(t, a.Run(context.Background()))
	assert.Zero(t, out.Len())

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), `exec "tq"`)
	assert.Contains(t, string(written), `exec "set"`)
}

func TestRun_Publish(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"loop.hcl": loopDiagram})
	emitter := &recordingEmitter{}
	var dialed publish.DialOptions
	dialer := func(_ context.Context, opts publish.DialOptions) (publish.Emitter, error) {
		dialed = opts
		return emitter, nil
	}

	a, _, _ := setupApp(t, Config{
		DiagramPath:       root,
		PublishURL:        "http://localhost:9870",
		PublishNamespace:  "/rcp",
		PublishAckTimeout: 3 * time.Second,
	}, WithDialer(dialer))
	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, publish.DialOptions{URL: "http://localhost:9870", Namespace: "/rcp", AckTimeout: 3 * time.Second}, dialed)
	assert.Equal(t, []string{publish.ScheduleEvent}, emitter.events)
	assert.True(t, emitter.closed)
}

func TestRun_PublishDialFailure(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"loop.hcl": loopDiagram})
	dialer := func(context.Context, publish.DialOptions) (publish.Emitter, error) {
		return nil, errors.New("connection refused")
	}

	a, _, _ := setupApp(t, Config{DiagramPath: root, PublishURL: "http://localhost:1"}, WithDialer(dialer))
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRun_UserKinds(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"diagram/main.hcl": `
			block "c" "constant" {
			  params = { value = 1 }
			}
			block "scope" "scope" {}
			wire {
			  from = "c.out"
			  to   = ["scope.in"]
			}
		`,
		"kinds/scope.hcl": `
			kind "scope" {
			  direction = "sink"
			}
		`,
	})

	a, out, _ := setupApp(t, Config{
		DiagramPath: filepath.Join(root, "diagram"),
		KindsPath:   filepath.Join(root, "kinds"),
	})
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), `"kind": "scope"`)
}

func TestCompile_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		diagram string
		code    errcode.Code
	}{
		{
			name:    "unconnected sink",
			diagram: `block "log" "serialOut" {}`,
			code:    errcode.UnconnectedPort,
		},
		{
			name:    "diagram syntax",
			diagram: `block "log" {`,
			code:    errcode.Load,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := testutil.WriteFiles(t, map[string]string{"d.hcl": tc.diagram})
			a, out, _ := setupApp(t, Config{DiagramPath: root})

			res, err := a.Compile(context.Background())
			assert.Nil(t, res)
			testutil.RequireCode(t, err, tc.code)

			require.Error(t, a.Run(context.Background()))
			assert.Zero(t, out.Len())
		})
	}
}

func TestWriteKinds(t *testing.T) {
	ctx, _ := testutil.Context(t)
	reg, err := LoadKinds(ctx, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteKinds(&buf, reg))

	out := buf.String()
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "FH_5XXX_setTQ")
	assert.Contains(t, out, "builtin:faulhaber.hcl")
	assert.Contains(t, out, "1..64")
}

func TestLoadKinds_BadPath(t *testing.T) {
	ctx, _ := testutil.Context(t)
	_, err := LoadKinds(ctx, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
