package app

import (
	"context"
	"encoding/json"

	"github.com/hollowtree-labs/harmonia/internal/events"
	"github.com/hollowtree-labs/harmonia/internal/settings"
)

// Registry accepts command handlers keyed by event name. Satisfied by the
// server dispatcher.
type Registry interface {
	Register(event string, handler func(ctx context.Context, payload json.RawMessage))
}

// Register wires every inbound command to its handler. Payloads that fail to
// decode are logged and the command is dropped.
func (a *App) Register(r Registry) {
	r.Register(events.CmdConnect, func(ctx context.Context, _ json.RawMessage) {
		a.Connect()
	})
	r.Register(events.CmdDisconnect, func(ctx context.Context, _ json.RawMessage) {
		a.Disconnect()
	})
	r.Register(events.CmdSideBarOpened, func(ctx context.Context, _ json.RawMessage) {
		a.SideBarOpened()
	})
	r.Register(events.CmdGetArtists, func(ctx context.Context, _ json.RawMessage) {
		a.RefreshArtists(ctx, false)
	})
	r.Register(events.CmdFinder, a.handleStart)
	r.Register(events.CmdStartReq, a.handleStart)
	r.Register(events.CmdStopReq, func(ctx context.Context, _ json.RawMessage) {
		a.Stop()
	})
	r.Register(events.CmdLoadMore, func(ctx context.Context, _ json.RawMessage) {
		a.LoadMore(ctx)
	})
	r.Register(events.CmdAdder, func(ctx context.Context, payload json.RawMessage) {
		var mbid string
		if err := json.Unmarshal(payload, &mbid); err != nil {
			a.logger.Error("bad adder payload", "err", err)
			return
		}
		a.AddArtist(ctx, mbid)
	})
	r.Register(events.CmdLoadSettings, func(ctx context.Context, _ json.RawMessage) {
		a.LoadSettings(ctx)
	})
	r.Register(events.CmdTestSettings, func(ctx context.Context, payload json.RawMessage) {
		var f testForm
		if err := json.Unmarshal(payload, &f); err != nil {
			a.logger.Error("bad test_settings payload", "err", err)
			return
		}
		a.TestSettings(ctx, f)
	})
	r.Register(events.CmdUpdateSettings, func(ctx context.Context, payload json.RawMessage) {
		var f settings.Form
		if err := json.Unmarshal(payload, &f); err != nil {
			a.logger.Error("bad update_settings payload", "err", err)
			return
		}
		a.UpdateSettings(f)
	})
}

// handleStart decodes the selected MBID list and starts a discovery run.
func (a *App) handleStart(ctx context.Context, payload json.RawMessage) {
	var ids []string
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &ids); err != nil {
			a.logger.Error("bad start payload", "err", err)
			return
		}
	}
	a.Start(ctx, ids)
}
