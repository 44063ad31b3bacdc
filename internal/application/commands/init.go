package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"spacesync/internal/application"
	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// InitResult contains the result of initializing a working directory
type InitResult struct {
	State   *domain.SpaceState
	Message string
}

// InitCommand binds a working directory to a remote space
type InitCommand struct {
	remote   ports.RemoteStore
	store    ports.StateStore
	logger   zerolog.Logger
	SpaceKey string
	Force    bool
}

// NewInitCommand creates a new InitCommand
func NewInitCommand(remote ports.RemoteStore, store ports.StateStore, logger zerolog.Logger, spaceKey string, force bool) *InitCommand {
	return &InitCommand{
		remote:   remote,
		store:    store,
		logger:   logger,
		SpaceKey: spaceKey,
		Force:    force,
	}
}

// Validate checks if the init operation is valid
func (c *InitCommand) Validate() error {
	return application.ValidateSpaceKey("spaceKey", c.SpaceKey)
}

// Execute runs the init command
func (c *InitCommand) Execute(ctx context.Context) (*InitResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.store.Exists() && !c.Force {
		return nil, fmt.Errorf("%w: use --force to re-initialize", application.ErrStateExists)
	}

	space, err := c.remote.FetchSpace(ctx, c.SpaceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch space %s: %w", c.SpaceKey, err)
	}

	state := domain.NewSpaceState(*space)
	if err := c.store.Save(state); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	c.logger.Info().Str("space", space.Key).Str("root", space.ID).Msg("initialized working directory")

	return &InitResult{
		State:   state,
		Message: fmt.Sprintf("Initialized %s (%s); run 'spacesync pull' to fetch pages", space.Name, space.Key),
	}, nil
}
