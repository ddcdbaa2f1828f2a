package mediaresolve

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// IsMediaFile sniffs the file content and reports whether it is video, audio
// or an ebook. Files still being written by a client never count.
func IsMediaFile(fsys afero.Fs, path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".part", ".!qb":
		return false
	}
	file, err := fsys.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return false
	}
	return IsMediaType(mtype)
}

// IsMediaType reports whether mtype or one of its parents is a media type.
func IsMediaType(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		s := m.String()
		if strings.HasPrefix(s, "video/") || strings.HasPrefix(s, "audio/") {
			return true
		}
	}
	return mtype.Is("application/epub+zip") ||
		mtype.Is("application/pdf") ||
		mtype.Is("application/x-mobipocket-ebook")
}
