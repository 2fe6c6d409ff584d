package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/diagram"
	"github.com/specialistvlad/rcpgrid/internal/kindreg"
)

// LoadKinds builds a registry with the built-in kinds plus the manifests
// found under kindsPath, if set.
func LoadKinds(ctx context.Context, kindsPath string) (*kindreg.Registry, error) {
	reg := kindreg.New()
	if err := reg.LoadBuiltins(ctx); err != nil {
		return nil, fmt.Errorf("failed to load built-in kinds: %w", err)
	}
	if kindsPath != "" {
		if err := reg.LoadDir(ctx, kindsPath); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (app *App) LoadKinds(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading kinds...", "kinds_path", app.config.KindsPath)

	if app.kinds != nil {
		logger.Debug("Using pre-configured kind registry.")
		if app.config.KindsPath != "" {
			return app.kinds.LoadDir(ctx, app.config.KindsPath)
		}
		return nil
	}

	reg, err := LoadKinds(ctx, app.config.KindsPath)
	if err != nil {
		return err
	}
	app.kinds = reg
	logger.Debug("Kind registry created.", "kinds", reg.Len())
	return nil
}

func (app *App) LoadDiagram(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading diagram...", "diagram_path", app.config.DiagramPath)

	d, err := diagram.Load(ctx, app.config.DiagramPath)
	if err != nil {
		return fmt.Errorf("failed to load diagram: %w", err)
	}
	app.diagram = d
	return nil
}

// WriteKinds prints one line per registered kind.
func WriteKinds(w io.Writer, reg *kindreg.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tDIRECTION\tINPUTS\tOUTPUTS\tBUS\tPARAMS\tORIGIN")
	for _, k := range reg.Kinds() {
		bus := k.Bus
		if bus == "" {
			bus = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			k.Name, k.Direction, portRange(k.MinInputs, k.MaxInputs), portRange(k.MinOutputs, k.MaxOutputs),
			bus, paramNames(k), reg.Origin(k.Name))
	}
	return tw.Flush()
}

func portRange(lo, hi int) string {
	if lo == hi {
		return fmt.Sprint(lo)
	}
	return fmt.Sprintf("%d..%d", lo, hi)
}

func paramNames(k *descriptor.Kind) string {
	if len(k.Params) == 0 {
		return "-"
	}
	names := make([]string, 0, len(k.Params))
	for _, p := range k.Params {
		names = append(names, p.Name)
	}
	return strings.Join(names, ",")
}
