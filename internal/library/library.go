// package library owns the shared mutable state of the discovery workflow.
//
// The tracked-artist set, candidate set, run gate, busy flag, and connected
// client counter are all mutated from concurrent background tasks, so every
// read and write is linearized behind a single mutex. Only the operations
// exposed here form the public contract; callers never see interior slices.
package library

import (
	"sort"
	"strings"
	"sync"

	"github.com/hollowtree-labs/harmonia/internal/models"
)

// Library is the serialized owner of the workflow state.
type Library struct {
	mu         sync.Mutex
	tracked    []models.TrackedArtist
	trackedIDs map[string]struct{}
	candidates []models.CandidateArtist
	running    bool // run gate: open while a discovery run may continue
	searching  bool // busy flag: set while a discovery run is executing
	clients    int
	lastSeeds  []string
}

// New creates an empty Library with the run gate closed.
func New() *Library {
	return &Library{
		trackedIDs: make(map[string]struct{}),
	}
}

// ReplaceTracked swaps in a freshly fetched tracked-artist list, sorted
// case-insensitively by name, with every entry's selection set to checked.
func (l *Library) ReplaceTracked(artists []models.TrackedArtist, checked bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tracked = make([]models.TrackedArtist, len(artists))
	l.trackedIDs = make(map[string]struct{}, len(artists))
	for i, a := range artists {
		a.Checked = checked
		l.tracked[i] = a
		l.trackedIDs[a.MBID] = struct{}{}
	}
	sortTracked(l.tracked)
}

// Tracked returns a copy of the tracked-artist list.
func (l *Library) Tracked() []models.TrackedArtist {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.TrackedArtist(nil), l.tracked...)
}

// HasTracked reports whether the MBID is already tracked.
func (l *Library) HasTracked(mbid string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.trackedIDs[mbid]
	return ok
}

// InsertTracked appends a new tracked artist, keeping the list sorted and
// unique by MBID. Returns false if the MBID was already present.
func (l *Library) InsertTracked(artist models.TrackedArtist) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.trackedIDs[artist.MBID]; ok {
		return false
	}

	l.tracked = append(l.tracked, artist)
	l.trackedIDs[artist.MBID] = struct{}{}
	sortTracked(l.tracked)
	return true
}

// MarkSelected sets each tracked artist's selection according to membership
// in ids and returns the MBIDs of the selected subset, the seed set.
func (l *Library) MarkSelected(ids []string) []string {
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var seeds []string
	for i := range l.tracked {
		_, ok := selected[l.tracked[i].MBID]
		l.tracked[i].Checked = ok
		if ok {
			seeds = append(seeds, l.tracked[i].MBID)
		}
	}
	return seeds
}

// Candidates returns a copy of the candidate list.
func (l *Library) Candidates() []models.CandidateArtist {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.CandidateArtist(nil), l.candidates...)
}

// ClearCandidates empties the candidate set at the start of a new run.
func (l *Library) ClearCandidates() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.candidates = nil
}

// AppendCandidate adds a surfaced candidate unless its MBID became tracked
// since enumeration. Returns false when the candidate lost that race.
func (l *Library) AppendCandidate(c models.CandidateArtist) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.trackedIDs[c.MBID]; ok {
		return false
	}
	l.candidates = append(l.candidates, c)
	return true
}

// SetCandidateStatus mutates the status of the candidate with the given MBID
// in place and returns the updated candidate.
func (l *Library) SetCandidateStatus(mbid string, status models.AddStatus) (models.CandidateArtist, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.candidates {
		if l.candidates[i].MBID == mbid {
			l.candidates[i].Status = status
			return l.candidates[i], true
		}
	}
	return models.CandidateArtist{}, false
}

// Running reports whether the run gate is open.
func (l *Library) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// SetRunning opens or closes the run gate.
func (l *Library) SetRunning(running bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = running
}

// BeginSearch sets the busy flag. Returns false if a search is already in
// progress, preventing overlapping runs.
func (l *Library) BeginSearch() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.searching {
		return false
	}
	l.searching = true
	return true
}

// EndSearch clears the busy flag and closes the run gate.
func (l *Library) EndSearch() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.searching = false
	l.running = false
}

// ClientConnected increments the connected client counter.
func (l *Library) ClientConnected() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clients++
}

// ClientDisconnected decrements the connected client counter, floored at zero.
func (l *Library) ClientDisconnected() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.clients > 0 {
		l.clients--
	}
}

// ClientCount returns the number of connected clients.
func (l *Library) ClientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clients
}

// SetLastSeeds records the seed set of the most recent run.
func (l *Library) SetLastSeeds(seeds []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastSeeds = append([]string(nil), seeds...)
}

// LastSeeds returns a copy of the most recent run's seed set.
func (l *Library) LastSeeds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lastSeeds...)
}

func sortTracked(artists []models.TrackedArtist) {
	sort.SliceStable(artists, func(i, j int) bool {
		return strings.ToLower(artists[i].Name) < strings.ToLower(artists[j].Name)
	})
}
