package render

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/rcpgrid/internal/compiler"
	"github.com/specialistvlad/rcpgrid/internal/diagram"
	"github.com/specialistvlad/rcpgrid/internal/kindreg"
	"github.com/specialistvlad/rcpgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const source = `
	bus "can0" {
	  protocol = "can"
	}
	block "tq" "FH_5XXX_getTQ" {
	  bus    = "can0"
	  timing = [4, 1]
	  params = { id = 5 }
	}
	block "k" "gain" {
	  params = { k = 0.5 }
	}
	block "set" "FH_5XXX_setTQ" {
	  bus    = "can0"
	  params = { id = 5 }
	}
	block "log" "serialOut" {
	  params = { decim = 10 }
	}
	wire {
	  from = "tq.out"
	  to   = ["k.in", "log.in"]
	}
	wire {
	  from = "k.out"
	  to   = ["set.in"]
	}
`

func compile(t *testing.T) *compiler.Result {
	t.Helper()
	ctx, _ := testutil.Context(t)

	kinds := kindreg.New()
	require.NoError(t, kinds.LoadBuiltins(context.Background()))
	d, err := diagram.Parse(ctx, []byte(testutil.Unindent(source)), "render.hcl")
	require.NoError(t, err)
	res, err := compiler.Compile(ctx, kinds, d)
	require.NoError(t, err)
	return res
}

func TestJSON(t *testing.T) {
	res := compile(t)

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, res))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, res.PassID, doc.Pass)
	require.Len(t, doc.Steps, len(res.Steps))

	seen := map[string]int{}
	entries := map[string]EntryDoc{}
	for _, s := range doc.Steps {
		for _, e := range s.Entries {
			seen[e.ID]++
			entries[e.ID] = e
		}
	}
	assert.Equal(t, map[string]int{"tq": 1, "k": 1, "set": 1, "log": 1}, seen)

	tq := entries["tq"]
	assert.Equal(t, "source", tq.Direction)
	assert.Equal(t, 4, tq.Rate)
	assert.Empty(t, tq.Inputs)
	require.NotNil(t, tq.Transaction)
	assert.Equal(t, TxDoc{Bus: "can0", Protocol: "can", DeviceID: 5, Access: "read"}, *tq.Transaction)
	require.Len(t, tq.DeviceParams, 1)
	assert.JSONEq(t, "5", string(tq.DeviceParams[0].Value))

	log := entries["log"]
	assert.Equal(t, []string{"tq.out[0]"}, log.Inputs)
	require.Len(t, log.StaticParams, 1)
	assert.Equal(t, "decim", log.StaticParams[0].Name)
	assert.JSONEq(t, "10", string(log.StaticParams[0].Value))
	assert.Nil(t, log.Transaction)

	assert.Equal(t, []string{"k.out[0]"}, entries["set"].Inputs)
}

func TestJSON_BusStepGrouping(t *testing.T) {
	res := compile(t)

	doc, err := NewDocument(res)
	require.NoError(t, err)

	for _, s := range doc.Steps {
		if s.Kind != "bus" {
			assert.Empty(t, s.Bus)
			assert.Len(t, s.Entries, 1)
			continue
		}
		assert.Equal(t, "can0", s.Bus)
		for _, e := range s.Entries {
			assert.NotNil(t, e.Transaction, "entry %s of a bus step carries its transaction", e.ID)
		}
	}
}

func TestHCL(t *testing.T) {
	res := compile(t)

	var buf bytes.Buffer
	require.NoError(t, HCL(&buf, res))
	out := buf.String()

	for _, id := range []string{"tq", "k", "set", "log"} {
		assert.Equal(t, 1, strings.Count(out, `exec "`+id+`"`), "block %s rendered once", id)
	}
	assert.Contains(t, out, `pass = "`+res.PassID+`"`)
	assert.Contains(t, out, `step "0"`)

	_, diags := hclparse.NewParser().ParseHCL(buf.Bytes(), "schedule.hcl")
	require.False(t, diags.HasErrors(), "rendered HCL must parse: %s", diags)
}
