package commands

import (
	"path/filepath"

	"github.com/arthur-debert/binstall/pkg/installer"
	"github.com/arthur-debert/binstall/pkg/logging"
	"github.com/arthur-debert/binstall/pkg/types"
)

// InstallOptions defines the options for the Install command.
type InstallOptions struct {
	Options

	// Source is the path of the file to install.
	Source string
	// Name overrides the installed name. Empty derives it from the
	// source filename.
	Name string
	// Force replaces an existing target of the same name.
	Force bool
}

// Install validates the source, installs it atomically into the scope's
// directory, and records the outcome in the history log. A failed
// install is recorded too, so the log reflects every attempt.
func Install(opts InstallOptions) (*types.InstallTarget, error) {
	log := logging.GetLogger("commands")
	log.Debug().
		Str("command", "Install").
		Str("source", opts.Source).
		Str("scope", string(opts.Scope)).
		Msg("Executing command")

	e, err := newEnv(opts.Options)
	if err != nil {
		return nil, err
	}
	actor, uid := currentActor()

	target, installErr := e.engine.Install(installer.InstallRequest{
		Source:        opts.Source,
		Name:          opts.Name,
		Force:         opts.Force,
		KeepExtension: opts.KeepExtension,
	})
	if installErr != nil {
		// Failed attempts are queryable by name, so derive one from the
		// source when no explicit name was given.
		name := opts.Name
		if name == "" {
			name = filepath.Base(opts.Source)
		}
		event := &types.HistoryEvent{
			Type:    types.EventInstallFailed,
			Name:    name,
			Source:  opts.Source,
			Actor:   actor,
			UID:     uid,
			Details: installErr.Error(),
		}
		if _, err := e.store.Append(event); err != nil {
			log.Warn().Err(err).Msg("Could not record failed install in history")
		}
		return nil, installErr
	}

	event := &types.HistoryEvent{
		Type:   types.EventInstall,
		Name:   target.Name,
		Path:   target.Path,
		Source: target.Source,
		Actor:  actor,
		UID:    uid,
		Digest: target.Digest,
		Mode:   target.Mode,
		Size:   target.Size,
	}
	if _, err := e.store.Append(event); err != nil {
		// The file is installed and stays installed. The missing record
		// is reported but does not undo the work.
		log.Warn().Err(err).Str("path", target.Path).
			Msg("Installed, but could not record the event in history")
	}

	log.Info().Str("command", "Install").Str("path", target.Path).Msg("Command finished")
	return target, nil
}
