package editor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// Opener implements ports.EditorOpener for pages inside a working directory
type Opener struct {
	workDir  string
	lookPath func(string) (string, error)
	getenv   func(string) string
}

// Ensure Opener implements EditorOpener
var _ ports.EditorOpener = (*Opener)(nil)

// NewOpener creates a new editor opener confined to workDir
func NewOpener(workDir string) *Opener {
	return &Opener{workDir: workDir, lookPath: exec.LookPath, getenv: os.Getenv}
}

// OpenFile opens a page file in the user's preferred editor and waits for it to exit
func (o *Opener) OpenFile(path string) error {
	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	return cmd.Run()
}

// Command returns an exec.Cmd for opening a file in the editor.
// Relative paths are taken from the working directory; paths outside it are refused.
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(o.workDir, filepath.FromSlash(target))
	}
	if !domain.IsWithin(o.workDir, target) {
		return nil, fmt.Errorf("refusing to open %s: outside %s", path, o.workDir)
	}

	argv := o.findEditor()
	if len(argv) == 0 {
		return nil, fmt.Errorf("no editor found: set $EDITOR environment variable")
	}

	cmd := exec.Command(argv[0], append(argv[1:], target)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd, nil
}

// findEditor returns the editor command line, e.g. ["code", "--wait"]
func (o *Opener) findEditor() []string {
	for _, key := range []string{"EDITOR", "VISUAL"} {
		if fields := strings.Fields(o.getenv(key)); len(fields) > 0 {
			return fields
		}
	}

	// Try common editors
	for _, editor := range []string{"nvim", "vim", "vi", "nano"} {
		if path, err := o.lookPath(editor); err == nil {
			return []string{path}
		}
	}

	return nil
}
