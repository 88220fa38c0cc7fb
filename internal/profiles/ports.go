package profiles

import (
	"context"
	"errors"

	"tally/internal/core"
)

var ErrProfileNotFound = errors.New("profile not found")

// Ports for outbound adapters.
type (
	// TextStore persists the raw bank text of a profile. GetText reports false
	// only when the store has no record of the profile; a profile holding just
	// definitions yields "" and true.
	TextStore interface {
		GetText(ctx context.Context, profileID string) (text string, ok bool, err error)
		SetText(ctx context.Context, profileID, text string) error
	}

	// DefinitionStore persists the custom summary definitions of a profile.
	DefinitionStore interface {
		ListDefinitions(ctx context.Context, profileID string) ([]core.CustomSummaryDefinition, error)
		// SaveDefinitions replaces the whole list.
		SaveDefinitions(ctx context.Context, profileID string, defs []core.CustomSummaryDefinition) error
	}

	ProfileLister interface {
		ListProfiles(ctx context.Context) ([]core.Profile, error)
	}

	Store interface {
		TextStore
		DefinitionStore
		ProfileLister
	}
)
