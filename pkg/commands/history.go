package commands

import (
	"sort"
	"time"

	"github.com/arthur-debert/binstall/pkg/history"
	"github.com/arthur-debert/binstall/pkg/logging"
	"github.com/arthur-debert/binstall/pkg/types"
)

// HistoryOptions defines the options for the History command.
type HistoryOptions struct {
	Options

	// Term filters events by case-insensitive substring match on the
	// name. Empty matches everything.
	Term string
	// Name filters events by exact name.
	Name string
	// Since and Until bound the time range. Zero values are open ends.
	Since time.Time
	Until time.Time
}

// History returns the audit events for the scope, oldest first.
// Reads never block on the log lock, so a listing can run while
// another process is installing.
func History(opts HistoryOptions) ([]types.HistoryEvent, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "History").Str("scope", string(opts.Scope)).Msg("Executing command")

	e, err := newEnv(opts.Options)
	if err != nil {
		return nil, err
	}

	return e.store.Search(history.Query{
		Term:  opts.Term,
		Name:  opts.Name,
		Since: opts.Since,
		Until: opts.Until,
	})
}

// CurrentState replays the history log and returns what is currently
// installed, keyed by name.
func CurrentState(opts Options) (map[string]types.InstallTarget, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "CurrentState").Str("scope", string(opts.Scope)).Msg("Executing command")

	e, err := newEnv(opts)
	if err != nil {
		return nil, err
	}
	return e.store.CurrentState()
}

// CurrentTargets is CurrentState flattened into a slice sorted by name,
// the shape renderers want.
func CurrentTargets(opts Options) ([]types.InstallTarget, error) {
	state, err := CurrentState(opts)
	if err != nil {
		return nil, err
	}

	targets := make([]types.InstallTarget, 0, len(state))
	for _, t := range state {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })
	return targets, nil
}
