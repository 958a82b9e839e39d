package settings

// Setting keys. Keys are case-sensitive dotted strings; the category is the
// first segment. Absence of a row means the seeded default applies.
const (
	DefaultsBatchSize = "defaults.batchSize"
	DefaultsPageSize  = "defaults.pagesize"

	JobsArtistHousekeepingCron             = "jobs.artistHousekeeping.cronExpression"
	JobsArtistSearchEngineHousekeepingCron = "jobs.artistSearchEngineHousekeeping.cronExpression"
	JobsLibraryInsertCron                  = "jobs.libraryInsert.cronExpression"
	JobsLibraryProcessCron                 = "jobs.libraryProcess.cronExpression"
	JobsMusicBrainzUpdateDatabaseCron      = "jobs.musicbrainzUpdateDatabase.cronExpression"

	MagicEnabled                               = "magic.enabled"
	MagicDoRemoveFeaturingArtistFromSongArtist = "magic.doRemoveFeaturingArtistFromSongArtist"
	MagicDoRemoveFeaturingArtistFromSongTitle  = "magic.doRemoveFeaturingArtistFromSongTitle"
	MagicDoRemoveUnwantedTextFromAlbumTitle    = "magic.doRemoveUnwantedTextFromAlbumTitle"
	MagicDoRenumberSongs                       = "magic.doRenumberSongs"
	MagicDoReplaceSongsArtistSeparators        = "magic.doReplaceSongsArtistSeparators"
	MagicDoSetYearToCurrentIfInvalid           = "magic.doSetYearToCurrentIfInvalid"

	ProcessingAlbumTitleRemovals               = "processing.albumTitleRemovals"
	ProcessingArtistNameReplacements           = "processing.artistNameReplacements"
	ProcessingDoContinueOnDirectoryErrors      = "processing.doContinueOnDirectoryProcessingErrors"
	ProcessingDoDeleteComments                 = "processing.doDeleteComments"
	ProcessingDoUseCurrentYearAsDefaultOrigYear = "processing.doUseCurrentYearAsDefaultOrigAlbumYearValue"
	ProcessingDuplicateAlbumPrefix             = "processing.duplicateAlbumPrefix"
	ProcessingIgnoredArticles                  = "processing.ignoredArticles"
	ProcessingIgnoredPerformers                = "processing.ignoredPerformers"
	ProcessingIgnoredProduction                = "processing.ignoredProduction"
	ProcessingIgnoredPublishers                = "processing.ignoredPublishers"
	ProcessingMaximumProcessingCount           = "processing.maximumProcessingCount"
	ProcessingSkippedDirectoryPrefix           = "processing.skippedDirectoryPrefix"
	ProcessingSongTitleRemovals                = "processing.songTitleRemovals"
	ProcessingStagingDirectoryScanLimit        = "processing.stagingDirectoryScanLimit"

	SearchEngineArtistRefreshInDays    = "searchEngine.artistSearchDatabaseRefreshInDays"
	SearchEngineDefaultPageSize        = "searchEngine.defaultPageSize"
	SearchEngineITunesEnabled          = "searchEngine.itunes.enabled"
	SearchEngineLastFmApiKey           = "searchEngine.lastFm.apiKey"
	SearchEngineLastFmEnabled          = "searchEngine.lastFm.enabled"
	SearchEngineMaximumAllowedPageSize = "searchEngine.maximumAllowedPageSize"
	SearchEngineMusicBrainzEnabled     = "searchEngine.musicbrainz.enabled"
	SearchEngineSpotifyAccessToken     = "searchEngine.spotify.accessToken"
	SearchEngineSpotifyApiKey          = "searchEngine.spotify.apiKey"
	SearchEngineSpotifyEnabled         = "searchEngine.spotify.enabled"
	SearchEngineSpotifySharedSecret    = "searchEngine.spotify.sharedSecret"

	ValidationMaximumAlbumYear   = "validation.maximumAlbumYear"
	ValidationMaximumMediaNumber = "validation.maximumMediaNumber"
	ValidationMaximumSongNumber  = "validation.maximumSongNumber"
	ValidationMinimumAlbumYear   = "validation.minimumAlbumYear"
)

// Default is the seeded definition of one setting row
type Default struct {
	Key         string
	Value       string
	Category    string
	Description string
}

// Defaults is the seeded settings catalog. Seeding never overwrites an
// existing row, so operator edits survive restarts and upgrades.
var Defaults = []Default{
	{DefaultsBatchSize, "250", "defaults", "Processing batch size. Allowed range is between [250] and [1000]."},
	{DefaultsPageSize, "100", "defaults", "Default page size when retrieving results."},

	{JobsArtistHousekeepingCron, "0 0 2 * * ?", "jobs", "Cron expression for the artist housekeeping job. Empty disables the job."},
	{JobsArtistSearchEngineHousekeepingCron, "0 0 4 * * ?", "jobs", "Cron expression for the search engine housekeeping job. Empty disables the job."},
	{JobsLibraryInsertCron, "0 */10 * * * ?", "jobs", "Cron expression for the inbound library insert job. Empty disables the job."},
	{JobsLibraryProcessCron, "0 */5 * * * ?", "jobs", "Cron expression for the staging library process job. Empty disables the job."},
	{JobsMusicBrainzUpdateDatabaseCron, "0 0 3 ? * SUN", "jobs", "Cron expression for the MusicBrainz database refresh job. Empty disables the job."},

	{MagicEnabled, "true", "magic", "Enable the magic metadata normalization rules."},
	{MagicDoRemoveFeaturingArtistFromSongArtist, "true", "magic", "Extract a trailing featuring clause from the song artist into a contributor."},
	{MagicDoRemoveFeaturingArtistFromSongTitle, "true", "magic", "Extract a trailing featuring clause from the song title into a contributor."},
	{MagicDoRemoveUnwantedTextFromAlbumTitle, "true", "magic", "Strip configured fragments from album titles."},
	{MagicDoRenumberSongs, "true", "magic", "Renumber songs sequentially within a disc."},
	{MagicDoReplaceSongsArtistSeparators, "true", "magic", "Normalize artist list separators to a single canonical separator."},
	{MagicDoSetYearToCurrentIfInvalid, "true", "magic", "Substitute the current year for release years outside the validation bounds."},

	{ProcessingAlbumTitleRemovals, `["^", "~", "#"]`, "processing", "Fragments to strip from album titles (JSON list)."},
	{ProcessingArtistNameReplacements, `{"AC/DC": ["AC; DC", "AC;DC", "AC/ DC"], "Love/Hate": ["Love; Hate", "Love;Hate", "Love/ Hate"]}`, "processing", "Canonical artist spelling to known variants (JSON dictionary)."},
	{ProcessingDoContinueOnDirectoryErrors, "true", "processing", "Continue the scan when a directory fails to process; when false the scan aborts."},
	{ProcessingDoDeleteComments, "true", "processing", "Drop comment tag fields during processing."},
	{ProcessingDoUseCurrentYearAsDefaultOrigYear, "true", "processing", "Use the current year when the original album year is missing or invalid."},
	{ProcessingDuplicateAlbumPrefix, "__duplicate_ ", "processing", "Prefix applied to a directory that collides with an existing album without being identical."},
	{ProcessingIgnoredArticles, "THE|EL|LA|LOS|LAS|LE|LES|OS|AS|O|A", "processing", "Ignored leading articles when computing sort names (pipe delimited)."},
	{ProcessingIgnoredPerformers, "", "processing", "Performer names to skip when building contributors (pipe delimited)."},
	{ProcessingIgnoredProduction, "", "processing", "Production credits to skip when building contributors (pipe delimited)."},
	{ProcessingIgnoredPublishers, "", "processing", "Publisher names to skip when building contributors (pipe delimited)."},
	{ProcessingMaximumProcessingCount, "0", "processing", "Maximum number of directory units processed per scan. Zero means unlimited."},
	{ProcessingSkippedDirectoryPrefix, "_skip_ ", "processing", "Prefix applied to directories to skip processing, including directories that previously failed."},
	{ProcessingSongTitleRemovals, `["^", "~", "#"]`, "processing", "Fragments to strip from song titles (JSON list)."},
	{ProcessingStagingDirectoryScanLimit, "250", "processing", "Maximum number of staging directories examined per scan."},

	{SearchEngineArtistRefreshInDays, "14", "searchEngine", "Days before an enriched artist is re-queried. Zero disables refresh."},
	{SearchEngineDefaultPageSize, "20", "searchEngine", "Default result page size for enrichment providers."},
	{SearchEngineITunesEnabled, "true", "searchEngine", "Enable iTunes lookups."},
	{SearchEngineLastFmApiKey, "", "searchEngine", "Last.fm API key."},
	{SearchEngineLastFmEnabled, "false", "searchEngine", "Enable Last.fm lookups."},
	{SearchEngineMaximumAllowedPageSize, "100", "searchEngine", "Upper bound on provider result page size."},
	{SearchEngineMusicBrainzEnabled, "true", "searchEngine", "Enable MusicBrainz lookups."},
	{SearchEngineSpotifyAccessToken, "", "searchEngine", "Cached Spotify access token."},
	{SearchEngineSpotifyApiKey, "", "searchEngine", "Spotify client id."},
	{SearchEngineSpotifyEnabled, "false", "searchEngine", "Enable Spotify lookups."},
	{SearchEngineSpotifySharedSecret, "", "searchEngine", "Spotify client secret."},

	{ValidationMaximumAlbumYear, "2150", "validation", "Maximum valid album release year."},
	{ValidationMaximumMediaNumber, "999", "validation", "Maximum valid media (disc) number; its width drives number padding."},
	{ValidationMaximumSongNumber, "9999", "validation", "Maximum valid song number; its width drives number padding."},
	{ValidationMinimumAlbumYear, "1860", "validation", "Minimum valid album release year."},
}
