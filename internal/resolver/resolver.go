// Package resolver loads the automation artifacts: the selector map consumed
// by the deterministic driver and the instruction templates consumed by the
// vision driver. Artifacts are plain YAML files editable without a rebuild;
// the resolver hands out immutable snapshots so a running task never sees a
// half-reloaded artifact.
package resolver

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"autopress/internal/logging"
)

// LookupError means an artifact has no entry for the requested key. This is
// an artifact-authoring error, not a transient page condition, so it is
// terminal for the task.
type LookupError struct {
	Artifact string
	Key      string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s artifact has no entry for %q", e.Artifact, e.Key)
}

type selectorFile struct {
	Elements map[string][]string `yaml:"elements"`
}

type instructionFile struct {
	Actions map[string]string `yaml:"actions"`
}

// Snapshot is an immutable view of both artifacts at one load.
type Snapshot struct {
	selectors    map[string][]string
	instructions map[string]string
}

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Selectors returns the ordered candidate list for a logical element name.
func (s *Snapshot) Selectors(element string) ([]string, error) {
	cands, ok := s.selectors[element]
	if !ok || len(cands) == 0 {
		return nil, &LookupError{Artifact: "selector", Key: element}
	}
	return cands, nil
}

// Instruction renders the template for an action, substituting {{name}}
// placeholders from params. A placeholder left unbound is an authoring error.
func (s *Snapshot) Instruction(action string, params map[string]string) (string, error) {
	tmpl, ok := s.instructions[action]
	if !ok || tmpl == "" {
		return "", &LookupError{Artifact: "instruction", Key: action}
	}
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := params[name]; ok {
			return v
		}
		missing = append(missing, name)
		return m
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("instruction %q: unbound placeholders: %s", action, strings.Join(missing, ", "))
	}
	return out, nil
}

// Resolver owns the current snapshot and reloads it on demand.
type Resolver struct {
	selectorPath    string
	instructionPath string
	current         atomic.Pointer[Snapshot]
}

// Load reads both artifacts and returns a resolver holding the first
// snapshot.
func Load(selectorPath, instructionPath string) (*Resolver, error) {
	r := &Resolver{selectorPath: selectorPath, instructionPath: instructionPath}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads both artifact files and atomically swaps in the new
// snapshot. On error the previous snapshot stays in place.
func (r *Resolver) Reload() error {
	snap, err := load(r.selectorPath, r.instructionPath)
	if err != nil {
		return err
	}
	r.current.Store(snap)
	logging.Resolver("artifacts loaded: %d elements, %d actions",
		len(snap.selectors), len(snap.instructions))
	return nil
}

// Snapshot returns the current immutable artifact view.
func (r *Resolver) Snapshot() *Snapshot {
	return r.current.Load()
}

func load(selectorPath, instructionPath string) (*Snapshot, error) {
	selRaw, err := os.ReadFile(selectorPath)
	if err != nil {
		return nil, fmt.Errorf("read selector artifact: %w", err)
	}
	var sf selectorFile
	if err := yaml.Unmarshal(selRaw, &sf); err != nil {
		return nil, fmt.Errorf("parse selector artifact: %w", err)
	}
	if len(sf.Elements) == 0 {
		return nil, fmt.Errorf("selector artifact %s defines no elements", selectorPath)
	}

	insRaw, err := os.ReadFile(instructionPath)
	if err != nil {
		return nil, fmt.Errorf("read instruction artifact: %w", err)
	}
	var inf instructionFile
	if err := yaml.Unmarshal(insRaw, &inf); err != nil {
		return nil, fmt.Errorf("parse instruction artifact: %w", err)
	}
	if len(inf.Actions) == 0 {
		return nil, fmt.Errorf("instruction artifact %s defines no actions", instructionPath)
	}

	return &Snapshot{selectors: sf.Elements, instructions: inf.Actions}, nil
}
