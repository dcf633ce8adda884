// Package squad loads a squad from local files: a TOML manifest naming each member and the playlist
// file they contributed.
//
//	name = "road trip"
//
//	[[members]]
//	name = "nick"
//	playlist = "playlists/nick.csv"
//
// Playlist paths are relative to the manifest. Playlists are JSON (an object with a "tracks" array, or a bare
// array of tracks), CSV with id, title and artists columns, artists separated by semicolons, or a directory
// of MP3 files whose ID3 tags name each track.
// Rows without a title or artists are skipped. A member whose playlist cannot be read is skipped with a warning.
package squad
