package commands

import (
	"github.com/arthur-debert/binstall/pkg/logging"
	"github.com/arthur-debert/binstall/pkg/types"
)

// UninstallOptions defines the options for the Uninstall command.
type UninstallOptions struct {
	Options

	// Name is the installed command name to remove.
	Name string
}

// Uninstall removes an installed file from the scope's directory and
// records the removal. Failed removals leave the history log untouched.
func Uninstall(opts UninstallOptions) (string, error) {
	log := logging.GetLogger("commands")
	log.Debug().
		Str("command", "Uninstall").
		Str("name", opts.Name).
		Str("scope", string(opts.Scope)).
		Msg("Executing command")

	e, err := newEnv(opts.Options)
	if err != nil {
		return "", err
	}

	removed, err := e.engine.Uninstall(opts.Name)
	if err != nil {
		return "", err
	}

	actor, uid := currentActor()
	event := &types.HistoryEvent{
		Type:  types.EventUninstall,
		Name:  opts.Name,
		Path:  removed,
		Actor: actor,
		UID:   uid,
	}
	if _, err := e.store.Append(event); err != nil {
		log.Warn().Err(err).Str("path", removed).
			Msg("Removed, but could not record the event in history")
	}

	log.Info().Str("command", "Uninstall").Str("path", removed).Msg("Command finished")
	return removed, nil
}
