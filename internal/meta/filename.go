package meta

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

type parsedFileName struct {
	track  int
	artist string
	title  string
}

var fileNamePatterns = []struct {
	re    *regexp.Regexp
	parse func(*parsedFileName, []string)
}{
	{
		// "01 - Artist - Title"
		re: regexp.MustCompile(`^(\d+)\s*-\s*(.+?)\s*-\s*(.+)$`),
		parse: func(p *parsedFileName, m []string) {
			p.track, _ = strconv.Atoi(m[1])
			p.artist = strings.TrimSpace(m[2])
			p.title = strings.TrimSpace(m[3])
		},
	},
	{
		// "01 - Title", "01. Title", "01_Title"
		re: regexp.MustCompile(`^(\d+)\s*[-._]\s*(.+)$`),
		parse: func(p *parsedFileName, m []string) {
			p.track, _ = strconv.Atoi(m[1])
			p.title = strings.TrimSpace(strings.ReplaceAll(m[2], "_", " "))
		},
	},
	{
		// "Artist - Title"
		re: regexp.MustCompile(`^(.+?)\s+-\s+(.+)$`),
		parse: func(p *parsedFileName, m []string) {
			p.artist = strings.TrimSpace(m[1])
			p.title = strings.TrimSpace(m[2])
		},
	},
}

// parseFileName extracts track number, artist, and title hints from a
// bare filename. Used only when embedded tags are absent.
func parseFileName(base string) parsedFileName {
	name := strings.TrimSuffix(base, filepath.Ext(base))

	var p parsedFileName
	for _, pattern := range fileNamePatterns {
		if m := pattern.re.FindStringSubmatch(name); m != nil {
			pattern.parse(&p, m)
			break
		}
	}
	if p.title == "" {
		p.title = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	}
	return p
}

var (
	discDirRe    = regexp.MustCompile(`(?i)^(?:disc|disk|cd)\s*(\d+)$`)
	yearPrefixRe = regexp.MustCompile(`^(\d{4})\s*-\s*(.+)$`)
	yearSuffixRe = regexp.MustCompile(`^(.+?)\s*[(\[](\d{4})[)\]]$`)
)

// parseAlbumDirectory infers artist, album, and year from the common
// Artist/Album and Artist/Year - Album layouts. A trailing disc folder
// is skipped first.
func parseAlbumDirectory(dir string) (artist, album string, year int) {
	parts := strings.Split(filepath.Clean(dir), string(filepath.Separator))

	// Drop a "Disc N" leaf so the album folder is inspected instead.
	if len(parts) > 0 && discDirRe.MatchString(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return "", "", 0
	}

	album = parts[len(parts)-1]
	if len(parts) >= 2 {
		artist = parts[len(parts)-2]
	}

	if m := yearPrefixRe.FindStringSubmatch(album); m != nil {
		year, _ = strconv.Atoi(m[1])
		album = strings.TrimSpace(m[2])
	} else if m := yearSuffixRe.FindStringSubmatch(album); m != nil {
		album = strings.TrimSpace(m[1])
		year, _ = strconv.Atoi(m[2])
	}

	// "Artist - Album" collapsed into a single folder.
	if artist == "" {
		if before, after, found := strings.Cut(album, " - "); found {
			artist = strings.TrimSpace(before)
			album = strings.TrimSpace(after)
		}
	}

	return artist, album, year
}

// parseDiscDirectory returns the disc number when the leaf directory is
// a "Disc N" style folder, or 0
func parseDiscDirectory(dir string) int {
	if m := discDirRe.FindStringSubmatch(filepath.Base(dir)); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}
