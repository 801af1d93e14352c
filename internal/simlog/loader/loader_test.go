package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/banshee-data/scenevec/internal/fsutil"
)

const sampleLine = "2024-05-01 10:00:00,000 - DEBUG - 这是一条debug日志\n"

func TestLoadUTF8(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.WriteFile("/logs/run.log", []byte(sampleLine), 0644))

	text, enc, err := New(mem).Load("/logs/run.log")
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, enc)
	assert.Equal(t, sampleLine, text)
}

func TestLoadStripsBOM(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.WriteFile("/logs/bom.log", append([]byte{0xEF, 0xBB, 0xBF}, sampleLine...), 0644))

	text, _, err := New(mem).Load("/logs/bom.log")
	require.NoError(t, err)
	assert.Equal(t, sampleLine, text)
}

func TestLoadGBKFallback(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(sampleLine)
	require.NoError(t, err)
	require.NotEqual(t, sampleLine, gbk, "GBK bytes should differ from UTF-8")

	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.WriteFile("/logs/gbk.log", []byte(gbk), 0644))

	text, enc, err := New(mem).Load("/logs/gbk.log")
	require.NoError(t, err)
	assert.Equal(t, EncodingGBK, enc)
	assert.Equal(t, sampleLine, text)
}

func TestLoadDecodeError(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.WriteFile("/logs/bad.log", []byte("ok\xff"), 0644))

	_, _, err := New(mem).Load("/logs/bad.log")
	var de *DecodeError
	require.True(t, errors.As(err, &de), "want DecodeError, got %v", err)
	assert.Equal(t, "/logs/bad.log", de.Path)
	assert.Equal(t, 2, de.Offset)
	assert.Contains(t, err.Error(), "neither utf-8 nor gbk")
}

func TestLoadMissingFile(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.MkdirAll("/logs", 0755))

	tests := []struct {
		name       string
		path       string
		dirMissing bool
	}{
		{name: "file missing", path: "/logs/absent.log", dirMissing: false},
		{name: "directory missing", path: "/nowhere/absent.log", dirMissing: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New(mem).Load(tt.path)
			var mf *MissingFileError
			require.True(t, errors.As(err, &mf), "want MissingFileError, got %v", err)
			assert.Equal(t, tt.path, mf.Path)
			assert.Equal(t, tt.dirMissing, mf.DirMissing)
			assert.True(t, errors.Is(err, fs.ErrNotExist))
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.MkdirAll("/logs", 0755))

	_, _, err := New(mem).Load("/logs")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "is a directory"))
}

func TestLoadOSFileSystem(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/run.log"
	require.NoError(t, fsutil.OSFileSystem{}.WriteFile(path, []byte(sampleLine), 0644))

	text, _, err := New(nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleLine, text)
}
