package contrib

import (
	"strings"

	"github.com/mbrandt/chorus/internal/meta"
	"github.com/mbrandt/chorus/internal/resolve"
	"github.com/mbrandt/chorus/internal/settings"
	"github.com/mbrandt/chorus/internal/store"
)

// Meta tag identifiers: the source tag field a contributor came from.
// Uniqueness is per (artist-or-name, identifier, album), so the same
// person in two roles yields two rows.
const (
	TagFeaturing = "featuring"
	TagPerformer = "performer"
	TagProducer  = "producer"
	TagPublisher = "publisher"
)

// Candidate is one contributor row awaiting insertion
type Candidate struct {
	Name              string
	Role              string
	MetaTagIdentifier string
	SongMeta          *meta.SongMeta
}

// Assigner builds contributor candidates from the role tags of a
// resolved unit, filtering the configured ignore lists
type Assigner struct {
	cfg *settings.Config

	ignoredPerformers map[string]bool
	ignoredProduction map[string]bool
	ignoredPublishers map[string]bool
}

// New creates an Assigner
func New(cfg *settings.Config) *Assigner {
	return &Assigner{
		cfg:               cfg,
		ignoredPerformers: foldSet(cfg.IgnoredPerformers),
		ignoredProduction: foldSet(cfg.IgnoredProduction),
		ignoredPublishers: foldSet(cfg.IgnoredPublishers),
	}
}

// Assign collects the contributor candidates of a unit, deduplicated by
// (name, identifier). Database-level uniqueness per album is enforced
// again at insert time, so a rescan reuses existing rows.
func (a *Assigner) Assign(unit *resolve.ResolvedUnit) []*Candidate {
	var candidates []*Candidate
	seen := map[string]bool{}

	add := func(song *meta.SongMeta, name, role, identifier string, ignored map[string]bool) {
		name = meta.CleanString(name)
		if name == "" || ignored[strings.ToLower(name)] {
			return
		}
		key := strings.ToLower(name) + "\x00" + identifier
		if seen[key] {
			return
		}
		seen[key] = true
		candidates = append(candidates, &Candidate{
			Name:              name,
			Role:              role,
			MetaTagIdentifier: identifier,
			SongMeta:          song,
		})
	}

	for _, rs := range unit.Songs {
		song := rs.Meta
		for _, name := range song.Featuring {
			add(song, name, "artist", TagFeaturing, a.ignoredPerformers)
		}
		for _, name := range song.Performers {
			add(song, name, "performer", TagPerformer, a.ignoredPerformers)
		}
		for _, name := range song.Producers {
			add(song, name, "producer", TagProducer, a.ignoredProduction)
		}
		for _, name := range song.Publishers {
			add(song, name, "publisher", TagPublisher, a.ignoredPublishers)
		}
	}

	return candidates
}

// Row materializes a candidate as a contributor row for the given album.
// When the candidate name matches a catalog artist the row links the
// artist id; otherwise the free-text name is kept.
func (c *Candidate) Row(albumID int64, artist *store.Artist) *store.Contributor {
	row := &store.Contributor{
		AlbumID:           albumID,
		Role:              c.Role,
		MetaTagIdentifier: c.MetaTagIdentifier,
	}
	if artist != nil {
		row.ArtistID = &artist.ID
	} else {
		row.ContributorName = c.Name
	}
	return row
}

func foldSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			set[strings.ToLower(name)] = true
		}
	}
	return set
}
