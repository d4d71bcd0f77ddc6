// Package hooks installs, removes and inspects the git hooks that re-run
// git-sherpa at commit and push time.
package hooks

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/fulmenhq/gitsherpa/pkg/config"
	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// BackupSuffix is appended to a foreign hook moved aside at install time.
const BackupSuffix = ".gitsherpa-backup"

const scriptMode os.FileMode = 0o755

var (
	// ErrUnknownHook is returned for hook names git-sherpa does not generate.
	ErrUnknownHook = errors.New("unknown hook")
	// ErrHookAlreadyBackedUp is wrapped by ConflictError.
	ErrHookAlreadyBackedUp = errors.New("hook already backed up")
)

// ConflictError reports a foreign hook that cannot be moved aside because a
// backup from an earlier install is still present.
type ConflictError struct {
	Hook       string
	BackupPath string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("hook %s: a foreign hook exists and backup %s is already taken; restore or remove it first", e.Hook, e.BackupPath)
}

func (e *ConflictError) Unwrap() error { return ErrHookAlreadyBackedUp }

// State of a hook slot.
type State string

const (
	StateInstalled           State = "installed"
	StateInstalledWithBackup State = "installed-with-backup"
	StateAbsent              State = "absent"
	StateForeign             State = "foreign"
)

// Action taken by Install or Uninstall.
type Action string

const (
	ActionInstalled  Action = "installed"
	ActionBackedUp   Action = "backed-up"
	ActionUpgraded   Action = "upgraded"
	ActionUnchanged  Action = "unchanged"
	ActionRemoved    Action = "removed"
	ActionRestored   Action = "restored"
	ActionLeftAlone  Action = "left-foreign"
	ActionNothing    Action = "nothing-to-do"
	ActionConflicted Action = "conflict"
)

// Descriptor describes one hook slot after an operation.
type Descriptor struct {
	Name       string `json:"name" yaml:"name"`
	TargetPath string `json:"target_path" yaml:"target_path"`
	State      State  `json:"state" yaml:"state"`
	Action     Action `json:"action,omitempty" yaml:"action,omitempty"`
	BackupPath string `json:"existing_backup_path,omitempty" yaml:"existing_backup_path,omitempty"`
	Script     string `json:"generated_script_body,omitempty" yaml:"generated_script_body,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Manager operates on a hooks directory through a billy filesystem.
type Manager struct {
	fs    billy.Filesystem
	dir   string
	data  TemplateData
	local bool
}

// NewManager manages hooks under dir on the local disk, creating it if needed.
func NewManager(dir string, data TemplateData) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create hooks directory: %w", err)
	}
	m := NewManagerFS(osfs.New(dir), dir, data)
	m.local = true
	return m, nil
}

// NewManagerFS manages hooks at the root of fs. dir is used for reporting only.
func NewManagerFS(fs billy.Filesystem, dir string, data TemplateData) *Manager {
	return &Manager{fs: fs, dir: dir, data: data}
}

// DataFromConfig fills template data from the push policy in cfg.
func DataFromConfig(cfg *config.Config, invocation, version string) TemplateData {
	return TemplateData{
		Invocation: invocation,
		Version:    version,
		Protected:  cfg.Hooks.ProtectedBranches,
		Exempt:     cfg.Hooks.PushExempt,
	}
}

func (m *Manager) describe(name string) Descriptor {
	return Descriptor{Name: name, TargetPath: filepath.Join(m.dir, name)}
}

// Status inspects one hook slot without changing it.
func (m *Manager) Status(name string) (Descriptor, error) {
	if err := validName(name); err != nil {
		return Descriptor{}, err
	}
	d := m.describe(name)
	current, err := m.read(name)
	if err != nil {
		return d, err
	}
	hasBackup, err := m.exists(name + BackupSuffix)
	if err != nil {
		return d, err
	}
	if hasBackup {
		d.BackupPath = filepath.Join(m.dir, name+BackupSuffix)
	}
	switch {
	case current == nil:
		d.State = StateAbsent
	case !isManaged(current):
		d.State = StateForeign
	case hasBackup:
		d.State = StateInstalledWithBackup
	default:
		d.State = StateInstalled
	}
	return d, nil
}

// Install writes the generated hook. A foreign hook is moved to its backup
// path first; if that path is taken, nothing is written and a ConflictError
// is returned. A hook carrying the marker is overwritten in place.
func (m *Manager) Install(name string) (Descriptor, error) {
	if err := validName(name); err != nil {
		return Descriptor{}, err
	}
	d := m.describe(name)
	script, err := Render(name, m.data)
	if err != nil {
		return d, err
	}
	d.Script = string(script)

	current, err := m.read(name)
	if err != nil {
		return d, err
	}
	backup := name + BackupSuffix

	switch {
	case current == nil:
		d.Action = ActionInstalled
	case isManaged(current):
		d.Action = ActionUpgraded
		if bytes.Equal(current, script) {
			d.Action = ActionUnchanged
		}
	default:
		taken, err := m.exists(backup)
		if err != nil {
			return d, err
		}
		if taken {
			d.State = StateForeign
			d.Action = ActionConflicted
			d.BackupPath = filepath.Join(m.dir, backup)
			return d, &ConflictError{Hook: name, BackupPath: d.BackupPath}
		}
		if err := m.fs.Rename(name, backup); err != nil {
			return d, fmt.Errorf("back up %s: %w", name, err)
		}
		logger.Info("Backed up existing hook", logger.String("hook", name), logger.String("backup", backup))
		d.Action = ActionBackedUp
	}

	if err := m.write(name, script); err != nil {
		return d, err
	}
	st, err := m.Status(name)
	if err != nil {
		return d, err
	}
	d.State, d.BackupPath = st.State, st.BackupPath
	logger.Debug("Hook written", logger.String("hook", name), logger.String("action", string(d.Action)))
	return d, nil
}

// Uninstall removes a managed hook and restores its backup. Foreign hooks are
// never touched; an empty slot is a successful no-op.
func (m *Manager) Uninstall(name string) (Descriptor, error) {
	if err := validName(name); err != nil {
		return Descriptor{}, err
	}
	d := m.describe(name)
	current, err := m.read(name)
	if err != nil {
		return d, err
	}
	backup := name + BackupSuffix
	hasBackup, err := m.exists(backup)
	if err != nil {
		return d, err
	}

	switch {
	case current != nil && !isManaged(current):
		d.State = StateForeign
		d.Action = ActionLeftAlone
		if hasBackup {
			d.BackupPath = filepath.Join(m.dir, backup)
		}
		logger.Warn("Hook not managed by git-sherpa, leaving it in place", logger.String("hook", name))
		return d, nil
	case current != nil:
		if err := m.fs.Remove(name); err != nil {
			return d, fmt.Errorf("remove %s: %w", name, err)
		}
		d.Action = ActionRemoved
	default:
		d.Action = ActionNothing
	}

	if hasBackup {
		if err := m.fs.Rename(backup, name); err != nil {
			return d, fmt.Errorf("restore %s: %w", backup, err)
		}
		logger.Info("Restored previous hook", logger.String("hook", name))
		d.Action = ActionRestored
		d.State = StateForeign
		return d, nil
	}
	d.State = StateAbsent
	return d, nil
}

// InstallAll installs each hook, continuing past conflicts. The returned
// error joins every per-hook failure.
func (m *Manager) InstallAll(names []string) ([]Descriptor, error) {
	return m.batch(names, m.Install)
}

// UninstallAll uninstalls each hook, continuing past failures.
func (m *Manager) UninstallAll(names []string) ([]Descriptor, error) {
	return m.batch(names, m.Uninstall)
}

// StatusAll reports every hook slot.
func (m *Manager) StatusAll(names []string) ([]Descriptor, error) {
	return m.batch(names, m.Status)
}

func (m *Manager) batch(names []string, op func(string) (Descriptor, error)) ([]Descriptor, error) {
	out := make([]Descriptor, 0, len(names))
	var errs []error
	for _, name := range names {
		d, err := op(name)
		if d.Name == "" {
			d = m.describe(name)
		}
		if err != nil {
			d.Error = err.Error()
			errs = append(errs, err)
		}
		out = append(out, d)
	}
	return out, errors.Join(errs...)
}

func validName(name string) error {
	if !slices.Contains(config.AllHooks, name) {
		return fmt.Errorf("%w: %q (supported: %v)", ErrUnknownHook, name, config.AllHooks)
	}
	return nil
}

func isManaged(content []byte) bool {
	return bytes.Contains(content, []byte(Marker))
}

// read returns nil content when the file does not exist.
func (m *Manager) read(name string) ([]byte, error) {
	f, err := m.fs.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return content, nil
}

func (m *Manager) exists(name string) (bool, error) {
	_, err := m.fs.Lstat(name)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return true, nil
}

func (m *Manager) write(name string, content []byte) error {
	f, err := m.fs.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, scriptMode)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	var chmodErr error
	if ch, ok := m.fs.(billy.Change); ok {
		chmodErr = ch.Chmod(name, scriptMode)
	} else if m.local {
		chmodErr = os.Chmod(filepath.Join(m.dir, name), scriptMode)
	}
	if err := chmodErr; err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	return nil
}
