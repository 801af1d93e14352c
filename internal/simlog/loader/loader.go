package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/banshee-data/scenevec/internal/fsutil"
	"github.com/banshee-data/scenevec/internal/monitoring"
)

// Encoding names the text encoding a log was decoded with.
type Encoding string

const (
	EncodingUTF8 Encoding = "utf-8"
	EncodingGBK  Encoding = "gbk"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// MissingFileError reports a log path that does not exist.
type MissingFileError struct {
	Path string
	// DirMissing is true when the containing directory is also absent.
	DirMissing bool
}

func (e *MissingFileError) Error() string {
	if e.DirMissing {
		return fmt.Sprintf("log file %s: directory %s does not exist", e.Path, filepath.Dir(e.Path))
	}
	return fmt.Sprintf("log file %s does not exist", e.Path)
}

// Unwrap lets errors.Is(err, fs.ErrNotExist) match.
func (e *MissingFileError) Unwrap() error { return fs.ErrNotExist }

// DecodeError reports bytes that are neither valid UTF-8 nor GBK.
type DecodeError struct {
	Path string
	// Offset is the first byte that is not valid UTF-8, or -1.
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("log file %s is neither utf-8 nor gbk", e.Path)
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" (invalid byte at offset %d)", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Loader reads logs through a FileSystem.
type Loader struct {
	fs fsutil.FileSystem
}

// New returns a Loader reading from fsys. A nil fsys reads the OS
// filesystem.
func New(fsys fsutil.FileSystem) *Loader {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &Loader{fs: fsys}
}

// Load reads the file at path and returns its decoded text.
func (l *Loader) Load(path string) (string, Encoding, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", &MissingFileError{Path: path, DirMissing: !l.fs.Exists(filepath.Dir(path))}
		}
		return "", "", fmt.Errorf("stat log file %s: %w", path, err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("log path %s is a directory", path)
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read log file %s: %w", path, err)
	}

	text, enc, err := Decode(data)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return "", "", err
	}
	if enc != EncodingUTF8 {
		monitoring.Diagf("loader: %s decoded as %s", path, enc)
	}
	return text, enc, nil
}

// Decode converts raw log bytes to text, trying UTF-8 and then GBK.
func Decode(data []byte) (string, Encoding, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}

	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", &DecodeError{Offset: -1, Err: err}
	}
	// The GBK decoder substitutes U+FFFD for bytes it cannot map. GBK has
	// no encoding for U+FFFD, so its presence means the input was invalid.
	if bytes.IndexRune(out, utf8.RuneError) >= 0 {
		return "", "", &DecodeError{Offset: invalidOffset(data)}
	}
	return string(out), EncodingGBK, nil
}

// invalidOffset returns the offset of the first byte that is not valid
// UTF-8, as a diagnostic hint.
func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
