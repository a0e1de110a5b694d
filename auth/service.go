package auth

import (
	"context"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/UnknownRpg/Sketch-Master-AI/domain"
)

var usernameFormat = regexp.MustCompile("^[a-z0-9_]{3,20}$")

type service struct {
	userRepo       UserRepo
	passwordHasher PasswordHasher
	tokenManager   TokenManager
}

func NewService(userRepo UserRepo, passwordHasher PasswordHasher, tokenManager TokenManager) *service {
	return &service{userRepo, passwordHasher, tokenManager}
}

func (as *service) Signup(ctx context.Context, username, password string) (string, error) {
	if !usernameFormat.MatchString(username) {
		return "", ErrInvalidUsernameFormat
	}

	runeCount := utf8.RuneCountInString(password)
	if runeCount < 8 {
		return "", ErrWeakPassword
	}
	if runeCount > 128 {
		return "", ErrPasswordTooLong
	}

	passwordHash, err := as.passwordHasher.Hash(password)
	if err != nil {
		return "", err
	}

	id, err := as.userRepo.CreateUser(ctx, username, passwordHash)
	if err != nil {
		return "", err
	}

	token, err := as.tokenManager.Generate(id, time.Now())
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.TokenGenerationError, err)
	}

	return token, nil
}

func (as *service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := as.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	match, err := as.passwordHasher.Compare(user.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !match {
		return "", ErrIncorrectPassword
	}

	token, err := as.tokenManager.Generate(user.Id, time.Now())
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.TokenGenerationError, err)
	}

	return token, nil
}

// VerifyToken returns the user id if the token is valid, else an error.
func (as *service) VerifyToken(token string) (string, error) {
	return as.tokenManager.Verify(token)
}

// GenerateToken mints a fresh token for an already-verified id, used by
// the session refresh endpoint.
func (as *service) GenerateToken(id string) (string, error) {
	return as.tokenManager.Generate(id, time.Now())
}
