// Package models defines the domain entities for the harmonia discovery service.
//
// The package contains the two artist collections the workflow revolves around:
//
//   - [TrackedArtist] : An artist already present in Lidarr, refreshed wholesale
//     from the Lidarr API and appended to when an add succeeds.
//   - [CandidateArtist] : A not-yet-tracked artist surfaced by the ListenBrainz
//     similar-artists lookup, streamed to the browser one at a time.
//
// JSON field names on the outbound payload types match the wire contract the
// browser page consumes and are deliberately not idiomatic Go casing.
package models
