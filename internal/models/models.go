package models

// AddStatus is the user-facing outcome of an attempt to add an artist to Lidarr.
type AddStatus string

const (
	StatusAdded          AddStatus = "Added"
	StatusAlreadyPresent AddStatus = "Already in Lidarr"
	StatusInvalidPath    AddStatus = "Invalid Path"
	StatusFailed         AddStatus = "Failed to Add"
)

// TrackedArtist represents one artist already known to Lidarr.
//
// The collection is unique by MBID and kept sorted case-insensitively by name.
type TrackedArtist struct {
	Name    string `json:"name"`
	MBID    string `json:"mbid"`
	Checked bool   `json:"checked"`
}

// CandidateArtist represents an artist surfaced by the similarity lookup that
// is not yet tracked. Status is mutated in place when an add attempt completes.
type CandidateArtist struct {
	Name       string    `json:"Name"`
	MBID       string    `json:"Mbid"`
	Status     AddStatus `json:"Status"`
	SimilarTo  string    `json:"Similar_To"`
	Popularity string    `json:"Popularity"`
	Followers  string    `json:"Followers"`
}

// Profile is a Lidarr metadata or quality profile option for the settings form.
type Profile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RootFolder is a Lidarr root folder option for the settings form.
type RootFolder struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
}

// ProfileOptions bundles the three auxiliary lookups used to populate the
// settings form.
type ProfileOptions struct {
	MetadataProfiles []Profile    `json:"metadata_profiles"`
	QualityProfiles  []Profile    `json:"quality_profiles"`
	RootFolders      []RootFolder `json:"root_folders"`
}

// SidebarUpdate is the payload of the lidarr_sidebar_update event.
//
// Data carries either the tracked artist list or an error message depending on
// Status.
type SidebarUpdate struct {
	Status  string `json:"Status"`
	Code    any    `json:"Code"`
	Data    any    `json:"Data"`
	Running bool   `json:"Running"`
}

// Toast is the payload of the new_toast_msg event.
type Toast struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
