package indexer

import (
	"path/filepath"
	"regexp"
	"strings"

	"media-library/internal/mediatypes"
)

// Folder names with special meaning.
const (
	sharedDir = "Shared"
	syncedDir = "Synced"
	editedDir = "Edited"
)

// SandboxPrefix starts every sandbox token handed out for composed
// renders.
const SandboxPrefix = "media-library.sandbox;read"

// burstPattern matches camera burst names such as
// IMG_20240101_120000_BURST001_COVER.jpg.
var burstPattern = regexp.MustCompile(`(?i)_BURST(\d+)(_COVER)?\.[a-z0-9]+$`)

// placement is what a path says about an asset beyond its bytes.
type placement struct {
	source          mediatypes.Source
	album           string
	composed        bool
	burstID         string
	representsBurst bool
}

// classify derives source, album, composed state and burst membership
// from a path relative to the media root.
func classify(relPath string, kind mediatypes.Kind) placement {
	segments := strings.Split(filepath.ToSlash(relPath), "/")
	dirs := segments[:len(segments)-1]

	p := placement{source: mediatypes.SourceLocal}
	if len(dirs) > 0 {
		switch dirs[0] {
		case sharedDir:
			p.source = mediatypes.SourceCloud
			dirs = dirs[1:]
		case syncedDir:
			p.source = mediatypes.SourceSynced
			dirs = dirs[1:]
		}
	}

	for i, d := range dirs {
		if d == editedDir {
			p.composed = kind == mediatypes.KindVideo
			dirs = dirs[:i]
			break
		}
	}
	if len(dirs) > 0 {
		p.album = dirs[0]
	}

	if m := burstPattern.FindStringSubmatch(segments[len(segments)-1]); m != nil {
		p.burstID = m[1]
		p.representsBurst = m[2] != ""
	}
	return p
}

// sandboxToken builds the token for a composed render. Its last
// ';'-separated segment is the file path.
func sandboxToken(relPath, absPath string) string {
	return SandboxPrefix + ";" + filepath.ToSlash(relPath) + ";" + absPath
}
