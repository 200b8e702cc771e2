package workspaceutils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/fs"
	"github.com/toitware/tlsp/src/tlsp/internal/fs/fsmock"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	assert.NotPanics(t, func() {
		New(Params{
			Logger: zap.NewNop().Sugar(),
			FS:     fsmock.NewMockFS(ctrl),
		})
	})
}

func folder(path string) protocol.WorkspaceFolder {
	return protocol.WorkspaceFolder{URI: string(uri.File(path)), Name: filepath.Base(path)}
}

func TestComputeClientConfiguration(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsMock := fsmock.NewMockFS(ctrl)

	w := workspaceUtilsImpl{
		logger: zap.NewNop().Sugar(),
		fs:     fsMock,
	}

	t.Run("non-file document", func(t *testing.T) {
		cfg, err := w.ComputeClientConfiguration("untitled:Untitled-1", []protocol.WorkspaceFolder{folder("/proj")})
		require.NoError(t, err)
		assert.Equal(t, entity.ClientConfiguration{Scheme: "untitled"}, cfg)
		assert.Equal(t, entity.NonFileSessionKey, cfg.Key())
	})

	t.Run("document in a workspace folder", func(t *testing.T) {
		proj := folder("/proj")
		cfg, err := w.ComputeClientConfiguration(uri.File("/proj/src/main.toit"), []protocol.WorkspaceFolder{proj})
		require.NoError(t, err)
		assert.Equal(t, "/proj", cfg.WorkingDir)
		assert.Equal(t, entity.FileScheme, cfg.Scheme)
		require.NotNil(t, cfg.WorkspaceFolder)
		assert.Equal(t, proj, *cfg.WorkspaceFolder)
		assert.Equal(t, &entity.WatchPattern{Base: "/proj", Glob: entity.GlobRecursive}, cfg.Pattern)
		assert.Equal(t, entity.SessionKey("/proj"), cfg.Key())
	})

	t.Run("nested folders use the outermost", func(t *testing.T) {
		folders := []protocol.WorkspaceFolder{folder("/proj/sub1"), folder("/proj")}
		cfg, err := w.ComputeClientConfiguration(uri.File("/proj/sub1/main.toit"), folders)
		require.NoError(t, err)
		assert.Equal(t, "/proj", cfg.WorkingDir)
		assert.Equal(t, entity.SessionKey("/proj"), cfg.Key())
		assert.Equal(t, folders[1], *cfg.WorkspaceFolder)
	})

	t.Run("sibling prefix is not an ancestor", func(t *testing.T) {
		fsMock.EXPECT().DirExists("/proj2").Return(true, nil)
		cfg, err := w.ComputeClientConfiguration(uri.File("/proj2/main.toit"), []protocol.WorkspaceFolder{folder("/proj")})
		require.NoError(t, err)
		assert.Equal(t, "/proj2", cfg.WorkingDir)
		assert.Nil(t, cfg.WorkspaceFolder)
	})

	t.Run("document outside any folder", func(t *testing.T) {
		fsMock.EXPECT().DirExists("/tmp/scratch").Return(true, nil)
		cfg, err := w.ComputeClientConfiguration(uri.File("/tmp/scratch/test.toit"), []protocol.WorkspaceFolder{folder("/proj")})
		require.NoError(t, err)
		assert.Equal(t, "/tmp/scratch", cfg.WorkingDir)
		assert.Nil(t, cfg.WorkspaceFolder)
		assert.Equal(t, &entity.WatchPattern{Base: "/tmp/scratch", Glob: entity.GlobOneLevel}, cfg.Pattern)
	})

	t.Run("walks up to an existing directory", func(t *testing.T) {
		gomock.InOrder(
			fsMock.EXPECT().DirExists("/tmp/new/deeper").Return(false, nil),
			fsMock.EXPECT().DirExists("/tmp/new").Return(false, nil),
			fsMock.EXPECT().DirExists("/tmp").Return(true, nil),
		)
		cfg, err := w.ComputeClientConfiguration(uri.File("/tmp/new/deeper/test.toit"), nil)
		require.NoError(t, err)
		assert.Equal(t, "/tmp", cfg.WorkingDir)
		assert.Equal(t, &entity.WatchPattern{Base: "/tmp/new/deeper", Glob: entity.GlobOneLevel}, cfg.Pattern)
	})

	t.Run("stops at the root", func(t *testing.T) {
		gomock.InOrder(
			fsMock.EXPECT().DirExists("/missing").Return(false, nil),
			fsMock.EXPECT().DirExists("/").Return(false, nil),
		)
		cfg, err := w.ComputeClientConfiguration(uri.File("/missing/test.toit"), nil)
		require.NoError(t, err)
		assert.Equal(t, "/", cfg.WorkingDir)
	})

	t.Run("file system error", func(t *testing.T) {
		fsMock.EXPECT().DirExists("/locked").Return(false, errors.New("permission denied"))
		_, err := w.ComputeClientConfiguration(uri.File("/locked/test.toit"), nil)
		assert.ErrorContains(t, err, "permission denied")
	})

	t.Run("invalid uri", func(t *testing.T) {
		_, err := w.ComputeClientConfiguration("%zz", nil)
		assert.Error(t, err)
	})

	t.Run("non-file folders are skipped", func(t *testing.T) {
		folders := []protocol.WorkspaceFolder{{URI: "vsls:/proj", Name: "remote"}, folder("/proj")}
		cfg, err := w.ComputeClientConfiguration(uri.File("/proj/main.toit"), folders)
		require.NoError(t, err)
		assert.Equal(t, "/proj", cfg.WorkingDir)
	})
}

func TestComputeClientConfigurationIdempotent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "outside"), 0755))
	w := New(Params{Logger: zap.NewNop().Sugar(), FS: fs.New()})
	folders := []protocol.WorkspaceFolder{folder(filepath.Join(root, "proj", "sub")), folder(filepath.Join(root, "proj"))}

	docs := []protocol.DocumentURI{
		uri.File(filepath.Join(root, "proj", "sub", "main.toit")),
		uri.File(filepath.Join(root, "outside", "main.toit")),
		uri.File(filepath.Join(root, "outside", "not", "yet", "main.toit")),
		"untitled:Untitled-3",
	}

	for _, doc := range docs {
		first, err := w.ComputeClientConfiguration(doc, folders)
		require.NoError(t, err)
		second, err := w.ComputeClientConfiguration(doc, folders)
		require.NoError(t, err)
		assert.Equal(t, first, second, string(doc))
	}
}

func TestFolderPath(t *testing.T) {
	w := New(Params{Logger: zap.NewNop().Sugar(), FS: fs.New()})

	p, err := w.FolderPath(folder("/proj/sub/"))
	require.NoError(t, err)
	assert.Equal(t, "/proj/sub", p)

	_, err = w.FolderPath(protocol.WorkspaceFolder{URI: "vsls:/proj"})
	assert.Error(t, err)
}
