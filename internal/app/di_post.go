package app

import (
	"fmt"

	"github.com/capsulen/capsulen/internal/database"
	"github.com/capsulen/capsulen/internal/opaqueid"
	postHTTP "github.com/capsulen/capsulen/internal/post/http"
	postRepository "github.com/capsulen/capsulen/internal/post/repository"
	postUsecase "github.com/capsulen/capsulen/internal/post/usecase"
)

// OpaqueIDCodec returns the codec that obfuscates external resource
// identifiers.
func (c *Container) OpaqueIDCodec() (*opaqueid.Codec, error) {
	c.opaqueCodecInit.Do(func() {
		codec, err := opaqueid.NewCodec(c.config.OpaqueIDSecret, c.config.OpaqueIDMinLength)
		if err != nil {
			c.initErrors["opaqueCodec"] = fmt.Errorf("failed to create opaque id codec: %w", err)
			return
		}
		c.opaqueCodec = codec
	})
	if storedErr, exists := c.initErrors["opaqueCodec"]; exists {
		return nil, storedErr
	}
	return c.opaqueCodec, nil
}

// PostRepository returns the post repository instance.
func (c *Container) PostRepository() (postUsecase.PostRepository, error) {
	c.postRepoInit.Do(func() {
		repo, err := c.initPostRepository()
		if err != nil {
			c.initErrors["postRepo"] = err
			return
		}
		c.postRepo = repo
	})
	if storedErr, exists := c.initErrors["postRepo"]; exists {
		return nil, storedErr
	}
	return c.postRepo, nil
}

// PostUseCase returns the post use case instance.
func (c *Container) PostUseCase() (postUsecase.UseCase, error) {
	c.postUseCaseInit.Do(func() {
		useCase, err := c.initPostUseCase()
		if err != nil {
			c.initErrors["postUseCase"] = err
			return
		}
		c.postUseCase = useCase
	})
	if storedErr, exists := c.initErrors["postUseCase"]; exists {
		return nil, storedErr
	}
	return c.postUseCase, nil
}

// PostHandler returns the post HTTP handler instance.
func (c *Container) PostHandler() (*postHTTP.PostHandler, error) {
	c.postHandlerInit.Do(func() {
		handler, err := c.initPostHandler()
		if err != nil {
			c.initErrors["postHandler"] = err
			return
		}
		c.postHandler = handler
	})
	if storedErr, exists := c.initErrors["postHandler"]; exists {
		return nil, storedErr
	}
	return c.postHandler, nil
}

// initPostRepository creates the post repository instance.
func (c *Container) initPostRepository() (postUsecase.PostRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for post repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case database.DriverMySQL:
		return postRepository.NewMySQLPostRepository(db), nil
	case database.DriverPostgres:
		return postRepository.NewPostgreSQLPostRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPostUseCase creates the post use case with its dependencies.
func (c *Container) initPostUseCase() (postUsecase.UseCase, error) {
	postRepo, err := c.PostRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get post repository for post use case: %w", err)
	}

	codec, err := c.OpaqueIDCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get opaque id codec for post use case: %w", err)
	}

	return postUsecase.NewPostUseCase(postRepo, codec), nil
}

// initPostHandler creates the post HTTP handler.
func (c *Container) initPostHandler() (*postHTTP.PostHandler, error) {
	postUseCase, err := c.PostUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get post use case for post handler: %w", err)
	}

	userUseCase, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for post handler: %w", err)
	}

	return postHTTP.NewPostHandler(postUseCase, userUseCase, c.Logger()), nil
}
