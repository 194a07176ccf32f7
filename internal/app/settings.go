package app

import (
	"context"

	"github.com/hollowtree-labs/harmonia/internal/events"
	"github.com/hollowtree-labs/harmonia/internal/models"
	"github.com/hollowtree-labs/harmonia/internal/settings"
)

// settingsPayload is the settingsLoaded event body: the editable settings
// merged with the profile and folder options needed to render the form.
type settingsPayload struct {
	LidarrAddress          string `json:"lidarr_address"`
	LidarrAPIKey           string `json:"lidarr_api_key"`
	RootFolderPath         string `json:"root_folder_path"`
	LidarrAPITimeout       int    `json:"lidarr_api_timeout"`
	QualityProfileID       int    `json:"quality_profile_id"`
	MetadataProfileID      int    `json:"metadata_profile_id"`
	SearchForMissingAlbums bool   `json:"search_for_missing_albums"`
	AutoStart              bool   `json:"auto_start"`
	AutoStartDelay         int    `json:"auto_start_delay"`

	MetadataProfiles []models.Profile    `json:"metadata_profiles"`
	QualityProfiles  []models.Profile    `json:"quality_profiles"`
	RootFolders      []models.RootFolder `json:"root_folders"`
}

// testResultPayload is the settingsTested event body. On success it carries
// the available options plus the currently persisted selections so the form
// can re-select them.
type testResultPayload struct {
	Success bool `json:"success"`

	MetadataProfiles []models.Profile    `json:"metadata_profiles,omitempty"`
	QualityProfiles  []models.Profile    `json:"quality_profiles,omitempty"`
	RootFolders      []models.RootFolder `json:"root_folders,omitempty"`

	RootFolderPath    string `json:"root_folder_path,omitempty"`
	QualityProfileID  int    `json:"quality_profile_id,omitempty"`
	MetadataProfileID int    `json:"metadata_profile_id,omitempty"`
}

// testForm is the body of the test_settings command.
type testForm struct {
	LidarrAddress string `json:"lidarr_address"`
	LidarrAPIKey  string `json:"lidarr_api_key"`
}

// LoadSettings sends the current settings plus the profile options fetched
// from Lidarr. A missing or unreachable Lidarr yields empty option lists, not
// an error; the form still renders.
func (a *App) LoadSettings(ctx context.Context) {
	st := a.settings.Current()

	opts, err := a.lidarr.LoadProfiles(ctx)
	if err != nil {
		a.logger.Error("failed to load Lidarr profiles", "err", err)
	}

	a.emitter.Emit(events.SettingsLoaded, settingsPayload{
		LidarrAddress:          st.LidarrAddress,
		LidarrAPIKey:           st.LidarrAPIKey,
		RootFolderPath:         st.RootFolderPath,
		LidarrAPITimeout:       st.LidarrAPITimeout,
		QualityProfileID:       st.QualityProfileID,
		MetadataProfileID:      st.MetadataProfileID,
		SearchForMissingAlbums: st.SearchForMissingAlbums,
		AutoStart:              st.AutoStart,
		AutoStartDelay:         st.AutoStartDelay,
		MetadataProfiles:       opts.MetadataProfiles,
		QualityProfiles:        opts.QualityProfiles,
		RootFolders:            opts.RootFolders,
	})
}

// TestSettings probes the submitted address and key without touching the
// persisted settings, reporting success and the options found.
func (a *App) TestSettings(ctx context.Context, f testForm) {
	opts, ok := a.lidarr.TestConnection(ctx, f.LidarrAddress, f.LidarrAPIKey)
	if !ok {
		a.logger.Warn("Lidarr connection test failed", "address", f.LidarrAddress)
		a.emitter.Emit(events.SettingsTested, testResultPayload{Success: false})
		return
	}

	st := a.settings.Current()
	a.emitter.Emit(events.SettingsTested, testResultPayload{
		Success:           true,
		MetadataProfiles:  opts.MetadataProfiles,
		QualityProfiles:   opts.QualityProfiles,
		RootFolders:       opts.RootFolders,
		RootFolderPath:    st.RootFolderPath,
		QualityProfileID:  st.QualityProfileID,
		MetadataProfileID: st.MetadataProfileID,
	})
}

// UpdateSettings applies the submitted form and persists it.
func (a *App) UpdateSettings(f settings.Form) {
	a.settings.Update(f)
	a.logger.Info("settings updated")
}
