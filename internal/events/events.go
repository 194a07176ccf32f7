// package events names the realtime channel contract between the workflow
// and the browser page.
package events

// Emitter delivers a named event with a JSON-serializable payload to every
// connected browser session. Implemented by the WebSocket hub; tests use a
// recording stand-in.
type Emitter interface {
	Emit(event string, payload any)
}

// Outbound notification names (process → browser).
const (
	SidebarUpdate     = "lidarr_sidebar_update"
	MoreArtistsLoaded = "more_artists_loaded"
	Clear             = "clear"
	ToastMessage      = "new_toast_msg"
	RefreshArtist     = "refresh_artist"
	SettingsLoaded    = "settingsLoaded"
	SettingsTested    = "settingsTested"
	FinishedFinding   = "finished_finding"
)

// Inbound command names (browser → process).
const (
	CmdSideBarOpened  = "side_bar_opened"
	CmdGetArtists     = "get_lidarr_artists"
	CmdFinder         = "finder"
	CmdAdder          = "adder"
	CmdConnect        = "connect"
	CmdDisconnect     = "disconnect"
	CmdLoadSettings   = "load_settings"
	CmdTestSettings   = "test_settings"
	CmdUpdateSettings = "update_settings"
	CmdStartReq       = "start_req"
	CmdStopReq        = "stop_req"
	CmdLoadMore       = "load_more_artists"
)
