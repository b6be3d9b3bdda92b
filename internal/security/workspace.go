package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrPathOutsideWorkspace = errors.New("path outside workspace")

// PathError 记录被拒绝的原始路径及原因 / PathError carries the offending raw path.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("unsafe path %q: %s", e.Path, e.Reason)
}

// Workspace 是仓库沙箱根目录。所有模型提供的路径都必须解析到它内部；
// 符号链接在最终前缀检查之前被解析，以防间接逃逸。
// Workspace is the repository sandbox root. Every model-supplied path must
// resolve inside it; symlinks are resolved before the final prefix check so
// an indirect escape through a link pointing outside the root also fails.
type Workspace struct {
	root string
}

func NewWorkspace(root string) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs workspace root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Root itself may not contain symlinks; keep the absolute path then.
		resolved = abs
	}
	return &Workspace{root: resolved}, nil
}

func (w *Workspace) Root() string {
	return w.root
}

// Resolve validates a model-supplied relative path and returns the resolved
// absolute location inside the workspace. The checks run in a fixed order:
// empty, absolute, NUL byte, home expansion, normalized parent escape, and
// finally symlink resolution with a descendant-of-root check. No partial
// resolution is ever returned.
func (w *Workspace) Resolve(raw string) (string, error) {
	if raw == "" {
		return "", &PathError{Path: raw, Reason: "path is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		return "", &PathError{Path: raw, Reason: "path must be relative, not absolute"}
	}
	if strings.ContainsRune(raw, '\x00') {
		return "", &PathError{Path: raw, Reason: "path contains null byte"}
	}
	if strings.HasPrefix(raw, "~") {
		return "", &PathError{Path: raw, Reason: "path cannot use home directory expansion"}
	}
	normalized := filepath.Clean(raw)
	if normalized == ".." || strings.HasPrefix(normalized, ".."+string(os.PathSeparator)) ||
		strings.Contains(normalized, string(os.PathSeparator)+".."+string(os.PathSeparator)) {
		return "", &PathError{Path: raw, Reason: "path attempts to escape repository root"}
	}

	target := filepath.Join(w.root, normalized)
	resolved, err := resolveWithParentSymlink(target)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(w.root, resolved)
	if err != nil {
		return "", fmt.Errorf("relative path check: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", ErrPathOutsideWorkspace
	}
	return resolved, nil
}

// resolveWithParentSymlink canonicalizes a path that may not exist yet by
// resolving its nearest existing parent instead.
func resolveWithParentSymlink(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("resolve symlink: %w", err)
	}

	parent := filepath.Dir(path)
	base := filepath.Base(path)
	parentResolved, perr := filepath.EvalSymlinks(parent)
	if perr != nil {
		if errors.Is(perr, os.ErrNotExist) {
			parentResolved = parent
		} else {
			return "", fmt.Errorf("resolve parent symlink: %w", perr)
		}
	}
	return filepath.Join(parentResolved, base), nil
}
