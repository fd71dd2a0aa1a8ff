package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gradipoo/tui-jxl-converter/pkg/imgutil"
)

// ResolvePolicy controls where output files land.
type ResolvePolicy struct {
	// OutputDir is the configured output root; empty means next to the input.
	OutputDir string
	// MirrorRoot, when non-empty together with OutputDir, makes the output
	// mirror the input's sub-directory layout relative to this scan root.
	MirrorRoot string
}

// DirectoryCreationError marks a target directory that could not be created.
// It fails only the task being built, not the whole batch build.
type DirectoryCreationError struct {
	Dir string
	Err error
}

func (e *DirectoryCreationError) Error() string {
	return fmt.Sprintf("create output directory %s: %v", e.Dir, e.Err)
}

func (e *DirectoryCreationError) Unwrap() error { return e.Err }

// ResolveTarget returns a collision-free .jxl output path for inputPath,
// creating the target directory if needed. reserved holds the paths already
// claimed during the current batch build; the caller adds the returned path
// to it. A candidate is rejected when it is reserved or already on disk.
func ResolveTarget(inputPath string, policy ResolvePolicy, reserved map[string]struct{}) (string, error) {
	dir := filepath.Dir(inputPath)
	if policy.OutputDir != "" {
		dir = policy.OutputDir
		if policy.MirrorRoot != "" {
			if rel, err := filepath.Rel(policy.MirrorRoot, filepath.Dir(inputPath)); err == nil && !isOutsideRel(rel) {
				dir = filepath.Join(policy.OutputDir, rel)
			}
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &DirectoryCreationError{Dir: dir, Err: err}
	}

	stem := imgutil.Stem(inputPath)
	candidate := filepath.Join(dir, stem+".jxl")
	for counter := 1; taken(candidate, reserved); counter++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d.jxl", stem, counter))
	}
	return candidate, nil
}

func taken(path string, reserved map[string]struct{}) bool {
	if _, ok := reserved[path]; ok {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}

func isOutsideRel(rel string) bool {
	return rel == ".." || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
