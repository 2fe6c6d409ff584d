package kindreg

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/specialistvlad/rcpgrid/internal/errcode"
	"github.com/specialistvlad/rcpgrid/internal/fsutil"
)

//go:embed builtin/*.hcl
var builtinFS embed.FS

// LoadBuiltins registers the kinds shipped with the binary.
func (r *Registry) LoadBuiltins(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	entries, err := fs.Glob(builtinFS, "builtin/*.hcl")
	if err != nil {
		return fmt.Errorf("failed to list built-in kind manifests: %w", err)
	}

	parser := hclparse.NewParser()
	for _, name := range entries {
		src, err := builtinFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read built-in manifest %s: %w", name, err)
		}
		file, diags := parser.ParseHCL(src, name)
		if diags.HasErrors() {
			return fmt.Errorf("failed to parse built-in manifest %s: %w", name, diags)
		}
		if err := r.loadFile(ctx, file, "builtin:"+path.Base(name)); err != nil {
			return err
		}
	}

	logger.Debug("Built-in kinds loaded.", "manifests", len(entries), "kinds", r.Len())
	return nil
}

// LoadDir registers every kind declared in the .hcl manifests found under
// dirPath (a single file is accepted too). A kind name that is already
// registered is a load error.
func (r *Registry) LoadDir(ctx context.Context, dirPath string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading kind manifests...", "path", dirPath)

	filePaths, err := fsutil.FindFilesByExtension(dirPath, ".hcl")
	if err != nil {
		return fmt.Errorf("%w: failed to find kind manifests in %s: %w", errcode.Load, dirPath, err)
	}
	if len(filePaths) == 0 {
		logger.Warn("No .hcl kind manifests found in path", "path", dirPath)
		return nil
	}

	parser := hclparse.NewParser()
	for _, filePath := range filePaths {
		file, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return fmt.Errorf("%w: failed to parse kind manifest %s: %w", errcode.Load, filePath, diags)
		}
		if err := r.loadFile(ctx, file, filePath); err != nil {
			return err
		}
	}

	logger.Info("Kind manifests loaded.", "path", dirPath, "files", len(filePaths), "kinds", r.Len())
	return nil
}

func (r *Registry) loadFile(ctx context.Context, file *hcl.File, origin string) error {
	kinds, diags := ParseManifest(ctx, file, origin)
	if diags.HasErrors() {
		return fmt.Errorf("%w: failed to decode kind manifest %s: %w", errcode.Load, origin, diags)
	}
	for _, k := range kinds {
		if err := r.Register(k, origin); err != nil {
			return fmt.Errorf("%w: kind manifest %s: %w", errcode.Load, origin, err)
		}
	}
	return nil
}
