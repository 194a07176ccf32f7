// Package services contains the HTTP clients for the three external
// collaborators: the Lidarr library manager, the ListenBrainz similarity and
// popularity APIs, and the MusicBrainz metadata lookup.
//
// Every client takes a context on each call, isolates its own failures, and
// reports upstream non-success statuses via [*APIError] so callers can map
// them to user-facing categories. Nothing here retries automatically.
package services
