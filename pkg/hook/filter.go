// Package hook evaluates an optional user-supplied Tengo script against each
// file descriptor before it is queued for download. The script sees the
// record's identifying facets and decides, per record, whether to keep it.
package hook

import (
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/shahbhuwan/gridflow/internal/logger"
	"github.com/shahbhuwan/gridflow/pkg/model"
)

// Filter holds one compiled-on-demand Tengo filter script.
type Filter struct {
	script []byte
}

// Load reads the filter script from path.
func Load(path string) (*Filter, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filter script: %w", err)
	}
	return New(script), nil
}

// New wraps raw script source as a Filter.
func New(script []byte) *Filter {
	return &Filter{script: script}
}

// Keep evaluates the script for one descriptor. The script receives the
// record's facets as top-level variables and must assign the boolean `keep`.
// A script error fails the whole run rather than silently passing records.
func (f *Filter) Keep(desc *model.FileDescriptor) (bool, error) {
	script := tengo.NewScript(f.script)
	script.SetImports(stdlib.GetModuleMap("fmt", "text", "times"))

	vars := map[string]interface{}{
		"title":      desc.Title,
		"variable":   desc.Variable(),
		"source":     desc.Source(),
		"experiment": desc.Experiment(),
		"activity":   desc.Activity(),
		"resolution": desc.Resolution(),
	}
	for name, value := range vars {
		if err := script.Add(name, value); err != nil {
			return false, fmt.Errorf("failed to add variable '%s' to script: %w", name, err)
		}
	}

	compiled, err := script.Run()
	if err != nil {
		return false, fmt.Errorf("filter script failed: %w", err)
	}

	keepVar := compiled.Get("keep")
	if keepVar.IsUndefined() {
		return false, fmt.Errorf("filter script did not set 'keep' for %s", desc.Title)
	}
	return keepVar.Bool(), nil
}

// Apply runs the filter over the full descriptor list, returning the records
// the script kept.
func (f *Filter) Apply(descs []*model.FileDescriptor) ([]*model.FileDescriptor, error) {
	kept := make([]*model.FileDescriptor, 0, len(descs))
	for _, desc := range descs {
		keep, err := f.Keep(desc)
		if err != nil {
			return nil, err
		}
		if !keep {
			logger.Debug("filter dropped record", logger.Fields{"file": desc.Title})
			continue
		}
		kept = append(kept, desc)
	}
	logger.Info("filter applied", logger.Fields{"in": len(descs), "kept": len(kept)})
	return kept, nil
}
