// Package render writes a compiled schedule in the formats consumed by the
// code emitter.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/specialistvlad/rcpgrid/internal/compiler"
	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/portref"
	"github.com/specialistvlad/rcpgrid/internal/schedule"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Document is the JSON form of a compiled schedule.
type Document struct {
	Pass  string    `json:"pass"`
	Steps []StepDoc `json:"steps"`
}

// StepDoc is one step of the execution sequence.
type StepDoc struct {
	Index   int        `json:"index"`
	Kind    string     `json:"kind"`
	Bus     string     `json:"bus,omitempty"`
	Entries []EntryDoc `json:"entries"`
}

// EntryDoc is one block executed within a step.
type EntryDoc struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Direction    string     `json:"direction"`
	Rate         int        `json:"rate"`
	Priority     int        `json:"priority"`
	Inputs       []string   `json:"inputs,omitempty"`
	Outputs      int        `json:"outputs"`
	StaticParams []ParamDoc `json:"static_params,omitempty"`
	DeviceParams []ParamDoc `json:"device_params,omitempty"`
	Transaction  *TxDoc     `json:"transaction,omitempty"`
}

// ParamDoc keeps parameters in declaration order.
type ParamDoc struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// TxDoc describes the bus transaction of a bus step entry.
type TxDoc struct {
	Bus      string `json:"bus"`
	Protocol string `json:"protocol"`
	DeviceID int    `json:"device_id"`
	Access   string `json:"access"`
}

// NewDocument converts a compilation result into its JSON document.
func NewDocument(res *compiler.Result) (*Document, error) {
	doc := &Document{Pass: res.PassID, Steps: make([]StepDoc, 0, len(res.Steps))}

	for _, step := range res.Steps {
		sd := StepDoc{Index: step.Index, Kind: step.Kind.String(), Bus: step.Bus}
		for _, e := range step.Entries {
			ed, err := newEntryDoc(res, e)
			if err != nil {
				return nil, err
			}
			sd.Entries = append(sd.Entries, ed)
		}
		doc.Steps = append(doc.Steps, sd)
	}
	return doc, nil
}

func newEntryDoc(res *compiler.Result, e schedule.Entry) (EntryDoc, error) {
	d := e.Descriptor
	ed := EntryDoc{
		ID:        d.ID(),
		Kind:      d.Name(),
		Direction: d.Direction().String(),
		Rate:      d.Timing().Rate,
		Priority:  d.Timing().Priority,
		Inputs:    inputSources(res, d),
		Outputs:   d.NumOutputs(),
	}

	var err error
	if ed.StaticParams, err = paramDocs(d.StaticParams()); err != nil {
		return ed, fmt.Errorf("block %q: %w", d.ID(), err)
	}
	if ed.DeviceParams, err = paramDocs(d.DeviceParams()); err != nil {
		return ed, fmt.Errorf("block %q: %w", d.ID(), err)
	}

	if tx := e.Transaction; tx != nil {
		ed.Transaction = &TxDoc{
			Bus:      tx.Bus.Name,
			Protocol: tx.Bus.Protocol,
			DeviceID: tx.DeviceID,
			Access:   tx.Access.String(),
		}
	}
	return ed, nil
}

// inputSources lists, per input port, the output that drives it.
func inputSources(res *compiler.Result, d *descriptor.Descriptor) []string {
	if res.Graph == nil || d.NumInputs() == 0 {
		return nil
	}
	out := make([]string, 0, d.NumInputs())
	for _, p := range d.Inputs() {
		src, ok := res.Graph.Source(portref.Ref{Block: d.ID(), Side: portref.In, Index: p.Index})
		if !ok {
			out = append(out, "")
			continue
		}
		out = append(out, src.String())
	}
	return out
}

func paramDocs(params []descriptor.Param) ([]ParamDoc, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make([]ParamDoc, 0, len(params))
	for _, p := range params {
		raw, err := ctyjson.Marshal(p.Value, p.Value.Type())
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		out = append(out, ParamDoc{Name: p.Name, Value: raw})
	}
	return out, nil
}

// JSON writes the schedule as indented JSON.
func JSON(w io.Writer, res *compiler.Result) error {
	doc, err := NewDocument(res)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}
