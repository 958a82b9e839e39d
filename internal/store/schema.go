package store

// Schema v1 - Catalog entities
// The unique indexes below are the resolution keys: the pipeline treats a
// constraint violation on them as "already exists", never as a hard error.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Library roots (one row per role: inbound, staging, storage, user images)
CREATE TABLE IF NOT EXISTS libraries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  api_key TEXT UNIQUE NOT NULL,
  name TEXT NOT NULL,
  path TEXT NOT NULL,
  type INTEGER NOT NULL,
  artist_count INTEGER NOT NULL DEFAULT 0,
  album_count INTEGER NOT NULL DEFAULT 0,
  song_count INTEGER NOT NULL DEFAULT 0,
  is_locked INTEGER NOT NULL DEFAULT 0,
  sort_order INTEGER NOT NULL DEFAULT 0,
  last_scan_at DATETIME,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  last_updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_libraries_type ON libraries(type);

-- Artists belong to exactly one library
CREATE TABLE IF NOT EXISTS artists (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  api_key TEXT UNIQUE NOT NULL,
  library_id INTEGER NOT NULL REFERENCES libraries(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  name_normalized TEXT NOT NULL,
  sort_name TEXT NOT NULL DEFAULT '',
  directory TEXT NOT NULL DEFAULT '',
  album_count INTEGER NOT NULL DEFAULT 0,
  song_count INTEGER NOT NULL DEFAULT 0,
  musicbrainz_id TEXT NOT NULL DEFAULT '',
  spotify_id TEXT NOT NULL DEFAULT '',
  discogs_id TEXT NOT NULL DEFAULT '',
  itunes_id TEXT NOT NULL DEFAULT '',
  amg_id TEXT NOT NULL DEFAULT '',
  wikidata_id TEXT NOT NULL DEFAULT '',
  lastfm_id TEXT NOT NULL DEFAULT '',
  metadata_status INTEGER NOT NULL DEFAULT 0,
  calculated_rating REAL NOT NULL DEFAULT 0,
  last_enriched_at DATETIME,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  last_updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_artists_library_name
  ON artists(library_id, name_normalized);
CREATE UNIQUE INDEX IF NOT EXISTS idx_artists_musicbrainz
  ON artists(musicbrainz_id) WHERE musicbrainz_id <> '';

-- Albums belong to one artist; name, normalized name and sort name are each
-- unique per artist
CREATE TABLE IF NOT EXISTS albums (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  api_key TEXT UNIQUE NOT NULL,
  artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  name_normalized TEXT NOT NULL,
  sort_name TEXT NOT NULL DEFAULT '',
  directory TEXT NOT NULL DEFAULT '',
  album_status INTEGER NOT NULL DEFAULT 0,
  album_type INTEGER NOT NULL DEFAULT 0,
  release_date TEXT NOT NULL DEFAULT '',
  original_release_date TEXT NOT NULL DEFAULT '',
  song_count INTEGER NOT NULL DEFAULT 0,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  genres TEXT NOT NULL DEFAULT '[]',
  moods TEXT NOT NULL DEFAULT '[]',
  musicbrainz_id TEXT NOT NULL DEFAULT '',
  spotify_id TEXT NOT NULL DEFAULT '',
  metadata_status INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  last_updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_albums_artist_name ON albums(artist_id, name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_albums_artist_name_normalized
  ON albums(artist_id, name_normalized);
CREATE UNIQUE INDEX IF NOT EXISTS idx_albums_artist_sort_name
  ON albums(artist_id, sort_name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_albums_musicbrainz
  ON albums(musicbrainz_id) WHERE musicbrainz_id <> '';

-- Songs belong directly to one album; position is unique per disc
CREATE TABLE IF NOT EXISTS songs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  api_key TEXT UNIQUE NOT NULL,
  album_id INTEGER NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  title_normalized TEXT NOT NULL,
  song_number INTEGER NOT NULL,
  disc_number INTEGER NOT NULL DEFAULT 1,
  file_name TEXT NOT NULL DEFAULT '',
  file_hash TEXT NOT NULL DEFAULT '',
  file_size INTEGER NOT NULL DEFAULT 0,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  bit_rate INTEGER NOT NULL DEFAULT 0,
  sample_rate INTEGER NOT NULL DEFAULT 0,
  bit_depth INTEGER NOT NULL DEFAULT 0,
  channel_count INTEGER NOT NULL DEFAULT 0,
  is_vbr INTEGER NOT NULL DEFAULT 0,
  lyrics TEXT NOT NULL DEFAULT '',
  part_titles TEXT NOT NULL DEFAULT '',
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  last_updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_songs_album_position
  ON songs(album_id, disc_number, song_number);

-- Tag-derived credits; at most one row per distinct tag role per album
CREATE TABLE IF NOT EXISTS contributors (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  api_key TEXT UNIQUE NOT NULL,
  album_id INTEGER NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
  song_id INTEGER REFERENCES songs(id) ON DELETE CASCADE,
  artist_id INTEGER REFERENCES artists(id) ON DELETE CASCADE,
  contributor_name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL,
  sub_role TEXT NOT NULL DEFAULT '',
  meta_tag_identifier TEXT NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_contributors_artist_tag_album
  ON contributors(artist_id, meta_tag_identifier, album_id)
  WHERE artist_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_contributors_name_tag_album
  ON contributors(contributor_name, meta_tag_identifier, album_id)
  WHERE contributor_name <> '';

-- Directed typed edges between artists
CREATE TABLE IF NOT EXISTS artist_relations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
  related_artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
  relation_type TEXT NOT NULL,
  relation_start TEXT NOT NULL DEFAULT '',
  relation_end TEXT NOT NULL DEFAULT '',
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_artist_relations_pair
  ON artist_relations(artist_id, related_artist_id);

-- Append-only record of completed scans
CREATE TABLE IF NOT EXISTS library_scan_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  library_id INTEGER NOT NULL REFERENCES libraries(id) ON DELETE CASCADE,
  for_artist_id INTEGER,
  for_album_id INTEGER,
  found_artists_count INTEGER NOT NULL DEFAULT 0,
  found_albums_count INTEGER NOT NULL DEFAULT 0,
  found_songs_count INTEGER NOT NULL DEFAULT 0,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT '',
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Append-only audit trail of enrichment/search queries
CREATE TABLE IF NOT EXISTS search_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  query TEXT NOT NULL,
  provider TEXT NOT NULL DEFAULT '',
  found_artists_count INTEGER NOT NULL DEFAULT 0,
  found_albums_count INTEGER NOT NULL DEFAULT 0,
  found_songs_count INTEGER NOT NULL DEFAULT 0,
  found_other_count INTEGER NOT NULL DEFAULT 0,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  requested_by TEXT NOT NULL DEFAULT '',
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Typed key/value configuration rows
CREATE TABLE IF NOT EXISTS settings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  api_key TEXT UNIQUE NOT NULL,
  key TEXT UNIQUE NOT NULL,
  value TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  is_locked INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  last_updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Users and their star/rating join entities (persistence contract only;
-- authentication and playlists live outside this pipeline)
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  api_key TEXT UNIQUE NOT NULL,
  username TEXT UNIQUE NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  last_updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_artists (
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
  is_starred INTEGER NOT NULL DEFAULT 0,
  rating INTEGER NOT NULL DEFAULT 0,
  starred_at DATETIME,
  PRIMARY KEY (user_id, artist_id)
);

CREATE TABLE IF NOT EXISTS user_albums (
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  album_id INTEGER NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
  is_starred INTEGER NOT NULL DEFAULT 0,
  rating INTEGER NOT NULL DEFAULT 0,
  starred_at DATETIME,
  PRIMARY KEY (user_id, album_id)
);

CREATE TABLE IF NOT EXISTS user_songs (
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
  is_starred INTEGER NOT NULL DEFAULT 0,
  rating INTEGER NOT NULL DEFAULT 0,
  starred_at DATETIME,
  PRIMARY KEY (user_id, song_id)
);
`

// Schema v2 - Performance indexes for resolution and housekeeping queries
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_artists_name_normalized ON artists(name_normalized);
CREATE INDEX IF NOT EXISTS idx_albums_artist_id ON albums(artist_id);
CREATE INDEX IF NOT EXISTS idx_songs_album_id ON songs(album_id);
CREATE INDEX IF NOT EXISTS idx_songs_file_hash ON songs(file_hash);
CREATE INDEX IF NOT EXISTS idx_contributors_album_id ON contributors(album_id);
CREATE INDEX IF NOT EXISTS idx_scan_history_library ON library_scan_history(library_id, created_at);
CREATE INDEX IF NOT EXISTS idx_search_history_query ON search_history(query, created_at);
CREATE INDEX IF NOT EXISTS idx_artists_enrichment ON artists(metadata_status, last_enriched_at);
`
