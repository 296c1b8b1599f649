package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/KarpovAlexandrGo/task-tracker/internal/entity"
	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
	"github.com/google/uuid"
)

const (
	minPasswordLength = 8
	// bcrypt обрабатывает не более 72 байт.
	maxPasswordLength = 72
)

// Session - результат успешного входа или регистрации.
type Session struct {
	User  entity.User
	Token string
}

type AuthUseCase interface {
	Signup(ctx context.Context, name, email, password string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Profile(ctx context.Context, userID uuid.UUID) (entity.User, error)
}

type AuthUseCaseImpl struct {
	userRepo UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	// dummyHash сверяется вместо настоящего, когда email не найден.
	dummyHash string
}

func NewAuthUseCase(userRepo UserRepository, hasher PasswordHasher, tokens TokenIssuer) *AuthUseCaseImpl {
	dummyHash, err := hasher.Hash("task-tracker-dummy-password")
	if err != nil {
		logger.Log.WithError(err).Error("Failed to prepare dummy password hash")
	}
	return &AuthUseCaseImpl{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummyHash,
	}
}

func (uc *AuthUseCaseImpl) Signup(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return Session{}, validationError("Please fill all the fields")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, validationError("Please enter a valid email address")
	}
	if len(password) < minPasswordLength {
		return Session{}, validationError("Password must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		return Session{}, validationError("Password must be at most 72 characters")
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return Session{}, internalError(err)
	}

	user, err := uc.userRepo.Create(ctx, entity.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, entity.ErrDuplicate) {
			return Session{}, validationError("This email is already registered")
		}
		logger.Log.WithError(err).Error("Failed to create user")
		return Session{}, internalError(err)
	}

	logger.Log.WithField("user_id", user.ID.String()).Info("User registered")
	return uc.session(user)
}

func (uc *AuthUseCaseImpl) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, validationError("Please enter all the fields")
	}

	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			uc.hasher.Verify(password, uc.dummyHash)
			return Session{}, validationError("Incorrect email or password")
		}
		logger.Log.WithError(err).Error("Failed to find user")
		return Session{}, internalError(err)
	}

	if !uc.hasher.Verify(password, user.PasswordHash) {
		return Session{}, validationError("Incorrect email or password")
	}

	return uc.session(user)
}

func (uc *AuthUseCaseImpl) Profile(ctx context.Context, userID uuid.UUID) (entity.User, error) {
	user, err := uc.userRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return entity.User{}, notFoundError(ErrUserNotFound, "User not found")
		}
		logger.Log.WithField("user_id", userID.String()).WithError(err).Error("Failed to get user")
		return entity.User{}, internalError(err)
	}
	return user, nil
}

func (uc *AuthUseCaseImpl) session(user entity.User) (Session, error) {
	token, err := uc.tokens.Generate(user.ID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to generate token")
		return Session{}, internalError(err)
	}
	return Session{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UserRepository interface {
	Create(ctx context.Context, user entity.User) (entity.User, error)
	Get(ctx context.Context, id uuid.UUID) (entity.User, error)
	GetByEmail(ctx context.Context, email string) (entity.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	Generate(userID uuid.UUID) (string, error)
}
