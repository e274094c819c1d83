// Package usecase implements the registration and login challenge-response
// protocol on top of the user repository.
package usecase

import (
	"context"
	"crypto/subtle"
	"time"

	validation "github.com/jellydator/validation"

	authService "github.com/capsulen/capsulen/internal/auth/service"
	"github.com/capsulen/capsulen/internal/database"
	apperrors "github.com/capsulen/capsulen/internal/errors"
	"github.com/capsulen/capsulen/internal/metrics"
	"github.com/capsulen/capsulen/internal/user/domain"
	"github.com/capsulen/capsulen/internal/user/service"
	appValidation "github.com/capsulen/capsulen/internal/validation"
)

const metricsDomain = "user"

// RequestAccessInput contains the input data for registration step one
type RequestAccessInput struct {
	Username   string `json:"username"`
	InviteCode string `json:"inviteCode"`
}

// RequestAccessOutput carries the registration correlator and challenge back
// to the client. Neither value is a secret by itself; secrecy comes from the
// client-held passphrase.
type RequestAccessOutput struct {
	Nonce     string `json:"nonce"`
	Challenge string `json:"challenge"`
}

// CreateUserInput contains the input data for registration step two
type CreateUserInput struct {
	Username           string `json:"username"`
	Nonce              string `json:"nonce"`
	ChallengeEncrypted string `json:"challengeEncrypted"`
}

// LoginInput contains the input data for login step two
type LoginInput struct {
	Username  string `json:"username"`
	Challenge string `json:"challenge"`
}

// UseCase defines the interface for the user protocol operations
type UseCase interface {
	// RequestAccess runs registration step one: uniqueness check, invite
	// consumption when gating is enabled, and persistence of the user in
	// the requested state.
	RequestAccess(ctx context.Context, input RequestAccessInput) (*RequestAccessOutput, error)

	// CreateUser runs registration step two: stores the client-sealed
	// challenge and activates the account.
	CreateUser(ctx context.Context, input CreateUserInput) error

	// RequestLogin runs login step one: returns the stored encrypted
	// challenge for an active user.
	RequestLogin(ctx context.Context, username string) (string, error)

	// Login runs login step two: compares the client-recovered challenge
	// against the stored plaintext and issues a session token on match.
	Login(ctx context.Context, input LoginInput) (string, error)

	// GetActiveUser resolves an active account by username.
	GetActiveUser(ctx context.Context, username string) (*domain.User, error)
}

// UserRepository interface defines user repository operations
type UserRepository interface {
	ExistsUsername(ctx context.Context, username string) (bool, error)
	CreateRequest(ctx context.Context, user *domain.User) error
	ActivateWithChallenge(ctx context.Context, username, nonce, challengeEncrypted string) error
	GetActive(ctx context.Context, username string) (*domain.User, error)
}

// InviteRepository interface defines the invite consumption operation the
// registration flow depends on
type InviteRepository interface {
	Consume(ctx context.Context, code string) error
}

// UserUseCase handles the challenge-response protocol business logic
type UserUseCase struct {
	txManager        database.TxManager
	userRepo         UserRepository
	inviteRepo       InviteRepository
	challengeService service.ChallengeService
	tokenAuthority   authService.TokenAuthority
	businessMetrics  metrics.BusinessMetrics
	inviteRequired   bool
}

// NewUserUseCase creates a new UserUseCase
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	inviteRepo InviteRepository,
	challengeService service.ChallengeService,
	tokenAuthority authService.TokenAuthority,
	businessMetrics metrics.BusinessMetrics,
	inviteRequired bool,
) *UserUseCase {
	return &UserUseCase{
		txManager:        txManager,
		userRepo:         userRepo,
		inviteRepo:       inviteRepo,
		challengeService: challengeService,
		tokenAuthority:   tokenAuthority,
		businessMetrics:  businessMetrics,
		inviteRequired:   inviteRequired,
	}
}

// recordOperation reports one finished protocol operation to the metrics
// backend.
func (uc *UserUseCase) recordOperation(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	uc.businessMetrics.RecordOperation(ctx, metricsDomain, operation, status)
	uc.businessMetrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func (uc *UserUseCase) validateRequestAccessInput(input RequestAccessInput) error {
	inviteRules := []validation.Rule{}
	if uc.inviteRequired {
		inviteRules = append(inviteRules,
			validation.Required.Error("invite code is required"),
			appValidation.NotBlank,
		)
	}

	err := validation.ValidateStruct(&input,
		validation.Field(&input.Username,
			validation.Required.Error("username is required"),
			appValidation.NoWhitespace,
			appValidation.Username,
			validation.Length(2, 64).Error("username must be between 2 and 64 characters"),
		),
		validation.Field(&input.InviteCode, inviteRules...),
	)
	return appValidation.WrapValidationError(err)
}

func (uc *UserUseCase) validateCreateUserInput(input CreateUserInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Username,
			validation.Required.Error("username is required"),
			appValidation.Username,
		),
		validation.Field(&input.Nonce,
			validation.Required.Error("nonce is required"),
			appValidation.Numeric,
		),
		validation.Field(&input.ChallengeEncrypted,
			validation.Required.Error("challengeEncrypted is required"),
			appValidation.Base64,
		),
	)
	return appValidation.WrapValidationError(err)
}

// RequestAccess checks username availability, generates the nonce and
// challenge, and persists the user in the requested state. The availability
// check races with concurrent identical registrations; the storage-level
// uniqueness constraint is the final arbiter, and the repository maps the
// losing insert to ErrUsernameTaken.
func (uc *UserUseCase) RequestAccess(ctx context.Context, input RequestAccessInput) (output *RequestAccessOutput, err error) {
	start := time.Now()
	defer func() { uc.recordOperation(ctx, "request_access", start, err) }()

	if err := uc.validateRequestAccessInput(input); err != nil {
		return nil, err
	}

	exists, err := uc.userRepo.ExistsUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUsernameTaken
	}

	nonce, err := uc.challengeService.GenerateNonce()
	if err != nil {
		return nil, err
	}
	challenge, err := uc.challengeService.GenerateChallenge()
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:  input.Username,
		Nonce:     nonce,
		Challenge: challenge,
		Status:    domain.UserStatusRequested,
	}

	// Invite consumption and user creation commit or roll back together, so
	// a lost uniqueness race cannot burn the invite code.
	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if uc.inviteRequired {
			if err := uc.inviteRepo.Consume(ctx, input.InviteCode); err != nil {
				return err
			}
		}
		return uc.userRepo.CreateRequest(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return &RequestAccessOutput{Nonce: nonce, Challenge: challenge}, nil
}

// CreateUser stores the client-sealed challenge and flips the account to
// active. A second completion with the same (username, nonce) no longer
// matches status=requested and fails with ErrRegistrationNotFound.
func (uc *UserUseCase) CreateUser(ctx context.Context, input CreateUserInput) (err error) {
	start := time.Now()
	defer func() { uc.recordOperation(ctx, "create_user", start, err) }()

	if err := uc.validateCreateUserInput(input); err != nil {
		return err
	}

	return uc.userRepo.ActivateWithChallenge(ctx, input.Username, input.Nonce, input.ChallengeEncrypted)
}

// RequestLogin returns the stored encrypted challenge for an active user.
// Unknown usernames yield ErrCredentialsIncorrect, identical in shape to a
// wrong-passphrase failure, so the response cannot confirm account existence.
func (uc *UserUseCase) RequestLogin(ctx context.Context, username string) (envelope string, err error) {
	start := time.Now()
	defer func() { uc.recordOperation(ctx, "request_login", start, err) }()

	user, err := uc.userRepo.GetActive(ctx, username)
	if err != nil {
		// Only a missing account collapses into the generic credentials
		// error; storage faults keep their chain and surface as 500.
		if apperrors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrCredentialsIncorrect
		}
		return "", err
	}

	return user.ChallengeEncrypted, nil
}

// Login compares the client-recovered challenge against the stored plaintext
// and issues a session token on an exact match.
func (uc *UserUseCase) Login(ctx context.Context, input LoginInput) (token string, err error) {
	start := time.Now()
	defer func() { uc.recordOperation(ctx, "login", start, err) }()

	user, err := uc.userRepo.GetActive(ctx, input.Username)
	if err != nil {
		if apperrors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrCredentialsIncorrect
		}
		return "", err
	}

	if subtle.ConstantTimeCompare([]byte(input.Challenge), []byte(user.Challenge)) != 1 {
		return "", domain.ErrCredentialsIncorrect
	}

	return uc.tokenAuthority.Issue(user.Username)
}

// GetActiveUser resolves an active account by username.
func (uc *UserUseCase) GetActiveUser(ctx context.Context, username string) (*domain.User, error) {
	return uc.userRepo.GetActive(ctx, username)
}
