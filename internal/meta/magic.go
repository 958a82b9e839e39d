package meta

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mbrandt/chorus/internal/settings"
	"github.com/mbrandt/chorus/internal/util"
)

// Magic applies the configurable normalization rules to an AlbumUnit.
// Rules run in a fixed order and are independently toggleable; the
// whole pass is deterministic and idempotent, which is what makes
// rescans of an unchanged tree produce identical candidate graphs.
type Magic struct {
	cfg *settings.Config

	// now is swappable for tests that pin the current year.
	now func() time.Time
}

// NewMagic creates a magic engine bound to a settings snapshot
func NewMagic(cfg *settings.Config) *Magic {
	return &Magic{cfg: cfg, now: time.Now}
}

// Apply rewrites the unit in place. Derived fields (normalized names,
// sort names) are always computed, even with magic disabled; the
// toggleable rules only run when magic.enabled is set.
func (m *Magic) Apply(unit *AlbumUnit) {
	if m.cfg.MagicEnabled {
		m.applyTitleRemovals(unit)
		m.applyArtistReplacements(unit)
		m.applyFeaturingExtraction(unit)
		m.applySeparatorNormalization(unit)
		m.applyYearRules(unit)
		m.applyRenumbering(unit)
		m.applyCommentDeletion(unit)
	}

	unit.ArtistName = CleanString(unit.ArtistName)
	unit.ArtistNameNormalized = NormalizeName(unit.ArtistName)
	unit.ArtistSortName = SortName(unit.ArtistName, m.cfg.IgnoredArticles)

	unit.AlbumName = CleanString(unit.AlbumName)
	unit.AlbumNameNormalized = NormalizeName(unit.AlbumName)
	unit.AlbumSortName = SortName(unit.AlbumName, m.cfg.IgnoredArticles)

	for _, song := range unit.Songs {
		song.Title = CleanString(song.Title)
		song.Artist = CleanString(song.Artist)
	}
}

func (m *Magic) applyTitleRemovals(unit *AlbumUnit) {
	if m.cfg.RemoveUnwantedTextFromAlbumTitle {
		unit.AlbumName = stripFragments(unit.AlbumName, m.cfg.AlbumTitleRemovals)
	}
	for _, song := range unit.Songs {
		song.Title = stripFragments(song.Title, m.cfg.SongTitleRemovals)
	}
}

func (m *Magic) applyArtistReplacements(unit *AlbumUnit) {
	unit.ArtistName = replaceArtistName(unit.ArtistName, m.cfg.ArtistNameReplacements)
	for _, song := range unit.Songs {
		song.Artist = replaceArtistName(song.Artist, m.cfg.ArtistNameReplacements)
		song.AlbumArtist = replaceArtistName(song.AlbumArtist, m.cfg.ArtistNameReplacements)
	}
}

func (m *Magic) applyFeaturingExtraction(unit *AlbumUnit) {
	for _, song := range unit.Songs {
		if m.cfg.RemoveFeaturingFromSongArtist {
			base, guests := extractFeaturing(song.Artist)
			song.Artist = base
			song.Featuring = appendUnique(song.Featuring, guests...)
		}
		if m.cfg.RemoveFeaturingFromSongTitle {
			base, guests := extractFeaturing(song.Title)
			song.Title = base
			song.Featuring = appendUnique(song.Featuring, guests...)
		}
	}
}

func (m *Magic) applySeparatorNormalization(unit *AlbumUnit) {
	if !m.cfg.ReplaceSongArtistSeparators {
		return
	}
	for _, song := range unit.Songs {
		song.Artist = normalizeSeparators(song.Artist)
	}
}

func (m *Magic) applyYearRules(unit *AlbumUnit) {
	current := m.now().Year()

	if m.cfg.SetYearToCurrentIfInvalid && !m.validYear(unit.Year) {
		unit.Year = current
	}
	if m.cfg.UseCurrentYearAsOrigYear && !m.validYear(unit.OrigYear) {
		if m.validYear(unit.Year) {
			unit.OrigYear = unit.Year
		} else {
			unit.OrigYear = current
		}
	}

	for _, song := range unit.Songs {
		if m.cfg.SetYearToCurrentIfInvalid && !m.validYear(song.Year) {
			song.Year = unit.Year
		}
	}
}

func (m *Magic) validYear(year int) bool {
	return year >= m.cfg.MinimumAlbumYear && year <= m.cfg.MaximumAlbumYear
}

// applyRenumbering keeps tagged numbers where they are already strictly
// increasing within a disc and bumps collisions to the next free slot,
// so two songs both tagged 3 come out as 3 and 4. Untagged songs fall
// in behind the previous one. Songs are already in disc/track order.
func (m *Magic) applyRenumbering(unit *AlbumUnit) {
	if !m.cfg.RenumberSongs {
		return
	}

	last := map[int]int{}
	for _, song := range unit.Songs {
		if song.SongNumber <= last[song.DiscNumber] {
			song.SongNumber = last[song.DiscNumber] + 1
			util.DebugLog("Renumbered %s to %s-%s", song.FileName,
				m.FormatDiscNumber(song.DiscNumber), m.FormatSongNumber(song.SongNumber))
		}
		last[song.DiscNumber] = song.SongNumber
	}
}

func (m *Magic) applyCommentDeletion(unit *AlbumUnit) {
	if !m.cfg.DeleteComments {
		return
	}
	for _, song := range unit.Songs {
		song.Comment = ""
	}
}

// FormatSongNumber renders a song number left-padded to the width of
// validation.maximumSongNumber
func (m *Magic) FormatSongNumber(n int) string {
	return fmt.Sprintf("%0*d", numberWidth(m.cfg.MaximumSongNumber), n)
}

// FormatDiscNumber renders a disc number left-padded to the width of
// validation.maximumMediaNumber
func (m *Magic) FormatDiscNumber(n int) string {
	return fmt.Sprintf("%0*d", numberWidth(m.cfg.MaximumMediaNumber), n)
}

func numberWidth(max int) int {
	width := 1
	for max >= 10 {
		max /= 10
		width++
	}
	return width
}

func stripFragments(s string, fragments []string) string {
	for _, fragment := range fragments {
		if fragment == "" {
			continue
		}
		s = strings.ReplaceAll(s, fragment, "")
	}
	return collapseWhitespace(s)
}

// replaceArtistName canonicalizes a known variant spelling. A full
// case-insensitive match wins; otherwise each variant is replaced as a
// fragment.
func replaceArtistName(name string, replacements map[string][]string) string {
	if name == "" || len(replacements) == 0 {
		return name
	}

	canonicals := make([]string, 0, len(replacements))
	for canonical := range replacements {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		for _, variant := range replacements[canonical] {
			if strings.EqualFold(name, variant) {
				return canonical
			}
		}
	}
	for _, canonical := range canonicals {
		for _, variant := range replacements[canonical] {
			name = strings.ReplaceAll(name, variant, canonical)
		}
	}
	return name
}

var featuringRe = regexp.MustCompile(`(?i)\s*[(\[]?\s*(?:feat\.?|featuring|ft\.?)\s+([^)\]]+)[)\]]?\s*$`)

// extractFeaturing splits a trailing featuring clause off a title or
// artist string and returns the guest names
func extractFeaturing(s string) (base string, guests []string) {
	m := featuringRe.FindStringSubmatch(s)
	if m == nil {
		return s, nil
	}

	base = strings.TrimSpace(featuringRe.ReplaceAllString(s, ""))
	for _, guest := range splitArtistList(m[1]) {
		if guest != "" {
			guests = append(guests, guest)
		}
	}
	return base, guests
}

var artistListSplitRe = regexp.MustCompile(`\s*(?:,|;|/|\\|\s+&\s+|\s+(?i:and)\s+|\s+(?i:x)\s+)\s*`)

func splitArtistList(s string) []string {
	var names []string
	for _, part := range artistListSplitRe.Split(s, -1) {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// normalizeSeparators rewrites multi-artist strings to the single
// canonical "/" separator
func normalizeSeparators(artist string) string {
	parts := splitArtistList(artist)
	if len(parts) <= 1 {
		return artist
	}
	return strings.Join(parts, "/")
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range list {
			if strings.EqualFold(existing, v) {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}
