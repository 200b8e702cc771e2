package workspaceutils

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/fs"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides a new WorkspaceUtils.
var Module = fx.Provide(New)

// WorkspaceUtils is a utility interface for mapping documents to workspace folders.
type WorkspaceUtils interface {
	// ComputeClientConfiguration returns the configuration of the language server session that owns docURI.
	// The result only depends on docURI, the given folders and the directories that exist on disk.
	ComputeClientConfiguration(docURI protocol.DocumentURI, folders []protocol.WorkspaceFolder) (entity.ClientConfiguration, error)
	// FolderPath returns the normalized file system path of a workspace folder.
	FolderPath(folder protocol.WorkspaceFolder) (string, error)
}

// Params are the parameters required to create a new WorkspaceUtils.
type Params struct {
	fx.In

	Logger *zap.SugaredLogger
	FS     fs.FS
}

type workspaceUtilsImpl struct {
	logger *zap.SugaredLogger
	fs     fs.FS
}

// New creates a new WorkspaceUtils.
func New(p Params) WorkspaceUtils {
	return &workspaceUtilsImpl{
		logger: p.Logger,
		fs:     p.FS,
	}
}

func (w *workspaceUtilsImpl) ComputeClientConfiguration(docURI protocol.DocumentURI, folders []protocol.WorkspaceFolder) (entity.ClientConfiguration, error) {
	scheme, err := schemeOf(string(docURI))
	if err != nil {
		return entity.ClientConfiguration{}, err
	}
	if scheme != entity.FileScheme {
		return entity.ClientConfiguration{Scheme: scheme}, nil
	}

	docPath := filepath.Clean(uri.URI(docURI).Filename())

	if folder, folderPath, ok := w.outermostFolder(docPath, folders); ok {
		return entity.ClientConfiguration{
			WorkingDir:      folderPath,
			WorkspaceFolder: &folder,
			Scheme:          scheme,
			Pattern:         &entity.WatchPattern{Base: folderPath, Glob: entity.GlobRecursive},
		}, nil
	}

	parent := filepath.Dir(docPath)
	workingDir, err := w.nearestExistingDir(parent)
	if err != nil {
		return entity.ClientConfiguration{}, err
	}

	return entity.ClientConfiguration{
		WorkingDir: workingDir,
		Scheme:     scheme,
		Pattern:    &entity.WatchPattern{Base: parent, Glob: entity.GlobOneLevel},
	}, nil
}

func (w *workspaceUtilsImpl) FolderPath(folder protocol.WorkspaceFolder) (string, error) {
	scheme, err := schemeOf(folder.URI)
	if err != nil {
		return "", err
	}
	if scheme != entity.FileScheme {
		return "", fmt.Errorf("workspace folder %q is not on the local file system", folder.URI)
	}
	return filepath.Clean(uri.URI(folder.URI).Filename()), nil
}

// outermostFolder returns the top-most registered folder that contains docPath.
// Nested folders share the session of their outermost ancestor.
func (w *workspaceUtilsImpl) outermostFolder(docPath string, folders []protocol.WorkspaceFolder) (protocol.WorkspaceFolder, string, bool) {
	var (
		best     protocol.WorkspaceFolder
		bestPath string
		found    bool
	)
	for _, folder := range folders {
		folderPath, err := w.FolderPath(folder)
		if err != nil {
			w.logger.Debugw("skipping workspace folder", zap.String("uri", folder.URI), zap.Error(err))
			continue
		}
		if !contains(folderPath, docPath) {
			continue
		}
		if !found || len(folderPath) < len(bestPath) {
			best, bestPath, found = folder, folderPath, true
		}
	}
	return best, bestPath, found
}

// nearestExistingDir walks up from dir until a directory that exists is found.
// Documents may live in directories that have not been written to disk yet.
func (w *workspaceUtilsImpl) nearestExistingDir(dir string) (string, error) {
	for {
		ok, err := w.fs.DirExists(dir)
		if err != nil {
			return "", fmt.Errorf("checking directory %q: %w", dir, err)
		}
		if ok {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir, nil
		}
		dir = parent
	}
}

func contains(folderPath, docPath string) bool {
	if docPath == folderPath {
		return true
	}
	prefix := folderPath
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(docPath, prefix)
}

func schemeOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing uri %q: %w", raw, err)
	}
	return u.Scheme, nil
}
