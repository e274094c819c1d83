package app

import (
	"fmt"

	"github.com/capsulen/capsulen/internal/database"
	inviteRepositoryPkg "github.com/capsulen/capsulen/internal/invite/repository"
	inviteUsecase "github.com/capsulen/capsulen/internal/invite/usecase"
)

// InviteRepository returns the invite repository instance.
func (c *Container) InviteRepository() (inviteRepository, error) {
	c.inviteRepoInit.Do(func() {
		repo, err := c.initInviteRepository()
		if err != nil {
			c.initErrors["inviteRepo"] = err
			return
		}
		c.inviteRepo = repo
	})
	if storedErr, exists := c.initErrors["inviteRepo"]; exists {
		return nil, storedErr
	}
	return c.inviteRepo, nil
}

// InviteUseCase returns the invite use case instance.
func (c *Container) InviteUseCase() (inviteUsecase.UseCase, error) {
	c.inviteUseCaseInit.Do(func() {
		useCase, err := c.initInviteUseCase()
		if err != nil {
			c.initErrors["inviteUseCase"] = err
			return
		}
		c.inviteUseCase = useCase
	})
	if storedErr, exists := c.initErrors["inviteUseCase"]; exists {
		return nil, storedErr
	}
	return c.inviteUseCase, nil
}

// initInviteRepository creates the invite repository instance.
func (c *Container) initInviteRepository() (inviteRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for invite repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case database.DriverMySQL:
		return inviteRepositoryPkg.NewMySQLInviteRepository(db), nil
	case database.DriverPostgres:
		return inviteRepositoryPkg.NewPostgreSQLInviteRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initInviteUseCase creates the invite use case with its dependencies.
func (c *Container) initInviteUseCase() (inviteUsecase.UseCase, error) {
	inviteRepo, err := c.InviteRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get invite repository for invite use case: %w", err)
	}
	return inviteUsecase.NewInviteUseCase(inviteRepo), nil
}
