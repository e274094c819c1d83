package app

import (
	"fmt"

	"github.com/capsulen/capsulen/internal/database"
	userHTTP "github.com/capsulen/capsulen/internal/user/http"
	userRepository "github.com/capsulen/capsulen/internal/user/repository"
	userService "github.com/capsulen/capsulen/internal/user/service"
	userUsecase "github.com/capsulen/capsulen/internal/user/usecase"
)

// ChallengeService returns the nonce and challenge generator.
func (c *Container) ChallengeService() userService.ChallengeService {
	c.challengeServiceInit.Do(func() {
		c.challengeService = userService.NewChallengeService()
	})
	return c.challengeService
}

// UserRepository returns the user repository instance.
func (c *Container) UserRepository() (userUsecase.UserRepository, error) {
	c.userRepoInit.Do(func() {
		repo, err := c.initUserRepository()
		if err != nil {
			c.initErrors["userRepo"] = err
			return
		}
		c.userRepo = repo
	})
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// UserUseCase returns the user use case instance.
func (c *Container) UserUseCase() (userUsecase.UseCase, error) {
	c.userUseCaseInit.Do(func() {
		useCase, err := c.initUserUseCase()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		c.userUseCase = useCase
	})
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}

// UserHandler returns the user HTTP handler instance.
func (c *Container) UserHandler() (*userHTTP.UserHandler, error) {
	c.userHandlerInit.Do(func() {
		handler, err := c.initUserHandler()
		if err != nil {
			c.initErrors["userHandler"] = err
			return
		}
		c.userHandler = handler
	})
	if storedErr, exists := c.initErrors["userHandler"]; exists {
		return nil, storedErr
	}
	return c.userHandler, nil
}

// initUserRepository creates the user repository instance.
func (c *Container) initUserRepository() (userUsecase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case database.DriverMySQL:
		return userRepository.NewMySQLUserRepository(db), nil
	case database.DriverPostgres:
		return userRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initUserUseCase creates the user use case with all its dependencies.
func (c *Container) initUserUseCase() (userUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for user use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}

	inviteRepo, err := c.InviteRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get invite repository for user use case: %w", err)
	}

	tokenAuthority, err := c.TokenAuthority()
	if err != nil {
		return nil, fmt.Errorf("failed to get token authority for user use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for user use case: %w", err)
	}

	return userUsecase.NewUserUseCase(
		txManager,
		userRepo,
		inviteRepo,
		c.ChallengeService(),
		tokenAuthority,
		businessMetrics,
		c.config.InviteRequired,
	), nil
}

// initUserHandler creates the user HTTP handler.
func (c *Container) initUserHandler() (*userHTTP.UserHandler, error) {
	useCase, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for user handler: %w", err)
	}
	return userHTTP.NewUserHandler(useCase, c.Logger()), nil
}
