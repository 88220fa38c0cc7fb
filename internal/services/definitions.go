package services

import (
	"context"
	"errors"
	"fmt"

	"tally/internal/core"
	"tally/internal/summary"
)

var ErrDefinitionExists = errors.New("custom summary definition already exists")

func (s *ProfileService) ListDefinitions(ctx context.Context, profileID string) ([]core.CustomSummaryDefinition, error) {
	if err := checkProfileID(profileID); err != nil {
		return nil, err
	}
	defs, err := s.store.ListDefinitions(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	return defs, nil
}

// AddDefinition validates def, assigns an id when it has none and appends it.
func (s *ProfileService) AddDefinition(ctx context.Context, profileID string, def core.CustomSummaryDefinition) (core.CustomSummaryDefinition, error) {
	def.EnsureID()
	if err := def.Validate(); err != nil {
		return core.CustomSummaryDefinition{}, err
	}
	err := s.updateDefinitions(ctx, profileID, func(defs []core.CustomSummaryDefinition) ([]core.CustomSummaryDefinition, error) {
		if core.FindDefinition(defs, def.ID) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDefinitionExists, def.ID)
		}
		return append(defs, def), nil
	})
	if err != nil {
		return core.CustomSummaryDefinition{}, err
	}
	return def, nil
}

// UpdateDefinition replaces the definition with def's id.
func (s *ProfileService) UpdateDefinition(ctx context.Context, profileID string, def core.CustomSummaryDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	return s.updateDefinitions(ctx, profileID, func(defs []core.CustomSummaryDefinition) ([]core.CustomSummaryDefinition, error) {
		i := core.FindDefinition(defs, def.ID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", core.ErrDefinitionNotFound, def.ID)
		}
		defs[i] = def
		return defs, nil
	})
}

func (s *ProfileService) DeleteDefinition(ctx context.Context, profileID, definitionID string) error {
	return s.updateDefinitions(ctx, profileID, func(defs []core.CustomSummaryDefinition) ([]core.CustomSummaryDefinition, error) {
		i := core.FindDefinition(defs, definitionID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", core.ErrDefinitionNotFound, definitionID)
		}
		return append(defs[:i], defs[i+1:]...), nil
	})
}

// ImportDefinitions upserts defs by id and returns how many were new.
func (s *ProfileService) ImportDefinitions(ctx context.Context, profileID string, defs []core.CustomSummaryDefinition) (int, error) {
	for i := range defs {
		defs[i].EnsureID()
		if err := defs[i].Validate(); err != nil {
			return 0, fmt.Errorf("definition %q: %w", defs[i].Name, err)
		}
	}
	added := 0
	err := s.updateDefinitions(ctx, profileID, func(current []core.CustomSummaryDefinition) ([]core.CustomSummaryDefinition, error) {
		for _, def := range defs {
			if i := core.FindDefinition(current, def.ID); i >= 0 {
				current[i] = def
				continue
			}
			current = append(current, def)
			added++
		}
		return current, nil
	})
	return added, err
}

func (s *ProfileService) updateDefinitions(ctx context.Context, profileID string, apply func([]core.CustomSummaryDefinition) ([]core.CustomSummaryDefinition, error)) error {
	if err := checkProfileID(profileID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	defs, err := s.store.ListDefinitions(ctx, profileID)
	if err != nil {
		return fmt.Errorf("list definitions: %w", err)
	}
	defs, err = apply(defs)
	if err != nil {
		return err
	}
	if err := s.store.SaveDefinitions(ctx, profileID, defs); err != nil {
		return fmt.Errorf("save definitions: %w", err)
	}
	return nil
}

// EvaluateDefinitions evaluates every stored definition against the profile's
// transactions.
func (s *ProfileService) EvaluateDefinitions(ctx context.Context, profileID string) ([]summary.CustomResult, error) {
	defs, err := s.ListDefinitions(ctx, profileID)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return summary.EvaluateAll(snap.Table.Transactions, defs)
}

// Hours holds the two built-in hour estimates.
type Hours struct {
	Entity      string
	EntityHours float64
	Reason      string
	ReasonHours float64
}

// LegacyHours estimates hours for transactions from entity and for those whose
// reason contains reason. An empty filter yields zero hours.
func (s *ProfileService) LegacyHours(ctx context.Context, profileID, entity, reason string) (Hours, error) {
	snap, err := s.Snapshot(ctx, profileID)
	if err != nil {
		return Hours{}, err
	}
	h := Hours{Entity: entity, Reason: reason}
	if entity != "" {
		h.EntityHours = summary.EntityHours(snap.Table.Transactions, entity)
	}
	if reason != "" {
		h.ReasonHours = summary.ReasonHours(snap.Table.Transactions, reason)
	}
	return h, nil
}
