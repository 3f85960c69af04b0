package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"messenger/models"
)

const (
	// CodeTTL is how long a login code stays valid.
	CodeTTL = 300 * time.Second
	// CodeLength is the number of decimal digits in a login code.
	CodeLength = 6
	// codeHashCost keeps verification fast; the hash only guards the cache.
	codeHashCost = bcrypt.MinCost
)

// CodeRequest is the outcome of RequestCode. Code is returned to the caller
// until an SMS gateway delivers it instead.
type CodeRequest struct {
	Phone   string
	Code    string
	User    *models.User
	Created bool
}

// Session is the outcome of a successful verification.
type Session struct {
	User   *models.User
	Tokens TokenPair
}

// SessionIssuer runs the phone/OTP login flow.
type SessionIssuer struct {
	users  *UserStore
	codes  CodeCache
	tokens TokenIssuer
	log    *zap.Logger
}

func NewSessionIssuer(users *UserStore, codes CodeCache, tokens TokenIssuer, log *zap.Logger) *SessionIssuer {
	return &SessionIssuer{users: users, codes: codes, tokens: tokens, log: log}
}

func codeKey(phone string) string {
	return "otp_" + phone
}

// RequestCode upserts the user for phone and stores a fresh code for it,
// replacing any earlier code.
func (s *SessionIssuer) RequestCode(ctx context.Context, phone, name string) (*CodeRequest, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrValidation)
	}
	if len(phone) > maxPhoneLength {
		return nil, fmt.Errorf("%w: phone must be at most %d characters", ErrValidation, maxPhoneLength)
	}

	user, created, err := s.users.UpsertByPhone(ctx, phone, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), codeHashCost)
	if err != nil {
		return nil, err
	}
	if err := s.codes.Set(ctx, codeKey(phone), string(hash), CodeTTL); err != nil {
		return nil, err
	}

	s.log.Debug("login code issued", zap.String("user_id", user.ID.String()), zap.Bool("new_user", created))

	return &CodeRequest{Phone: phone, Code: code, User: user, Created: created}, nil
}

// VerifyCode consumes the code for phone and mints a token pair. A code can
// be consumed once. A wrong guess leaves it in place until the cache's
// attempt limit is reached.
func (s *SessionIssuer) VerifyCode(ctx context.Context, phone, code string) (*Session, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" {
		return nil, fmt.Errorf("%w: phone and OTP required", ErrValidation)
	}

	found, consumed, err := s.codes.ConsumeIf(ctx, codeKey(phone), func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCodeExpiredOrMissing
	}
	if !consumed {
		return nil, ErrCodeMismatch
	}

	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokens.Mint(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *SessionIssuer) Refresh(ctx context.Context, refreshToken string) (string, uuid.UUID, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", uuid.Nil, fmt.Errorf("%w: refresh token required", ErrValidation)
	}
	access, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return "", uuid.Nil, err
	}
	userID, err := s.tokens.Validate(access)
	if err != nil {
		return "", uuid.Nil, err
	}
	if _, err := s.activeUser(ctx, userID); err != nil {
		return "", uuid.Nil, err
	}
	return access, userID, nil
}

// Authenticate resolves an access token to an active user's id.
func (s *SessionIssuer) Authenticate(ctx context.Context, accessToken string) (uuid.UUID, error) {
	userID, err := s.tokens.Validate(accessToken)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.activeUser(ctx, userID); err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

func (s *SessionIssuer) activeUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: user is inactive", ErrUnauthorized)
	}
	return user, nil
}

// generateCode returns a uniformly random code in [100000, 999999].
func generateCode() (string, error) {
	low := int64(1)
	for i := 1; i < CodeLength; i++ {
		low *= 10
	}
	n, err := rand.Int(rand.Reader, big.NewInt(9*low))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+low), nil
}
