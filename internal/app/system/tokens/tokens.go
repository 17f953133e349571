// Package tokens issues and verifies the purpose-tagged access tokens used
// for sessions, registration links, password resets and project invites.
//
// Tokens are HS256 JWTs. Verification checks the signature first and then
// applies an explicit expiry check against the service clock, so callers
// can tell an expired token (ErrExpired) from a forged or malformed one
// (ErrInvalid). Tokens are not revocable; expiry is the only invalidation.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose tags what a token may be used for.
type Purpose string

const (
	PurposeSession  Purpose = "session"
	PurposeRegister Purpose = "register"
	PurposeReset    Purpose = "reset"
	PurposeInvite   Purpose = "invite"
)

// Default lifetimes per purpose.
const (
	DefaultSessionTTL  = 30 * 24 * time.Hour
	DefaultRegisterTTL = 5 * time.Minute
	DefaultResetTTL    = time.Hour
	DefaultInviteTTL   = 7 * 24 * time.Hour
)

var (
	// ErrInvalid covers bad signatures, malformed tokens and purpose mismatches.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired is returned for a correctly signed token past its expiry.
	ErrExpired = errors.New("token expired")
)

// Claims is the payload union. Which fields are set depends on Purpose:
//   - session:  UserID, Role
//   - register: Email, FullName
//   - reset:    UserID
//   - invite:   Email, ProjectID, MemberID
type Claims struct {
	Purpose   Purpose `json:"purpose"`
	UserID    string  `json:"userId,omitempty"`
	Role      string  `json:"role,omitempty"`
	Email     string  `json:"email,omitempty"`
	FullName  string  `json:"fullName,omitempty"`
	ProjectID string  `json:"projectId,omitempty"`
	MemberID  string  `json:"memberId,omitempty"`
	jwt.RegisteredClaims
}

// TTLs configures per-purpose lifetimes. Zero values fall back to defaults.
type TTLs struct {
	Session  time.Duration
	Register time.Duration
	Reset    time.Duration
	Invite   time.Duration
}

// Service signs and verifies tokens with a shared secret.
type Service struct {
	secret []byte
	issuer string
	ttls   TTLs
	now    func() time.Time
}

// New creates a token Service.
func New(secret, issuer string, ttls TTLs) *Service {
	if ttls.Session <= 0 {
		ttls.Session = DefaultSessionTTL
	}
	if ttls.Register <= 0 {
		ttls.Register = DefaultRegisterTTL
	}
	if ttls.Reset <= 0 {
		ttls.Reset = DefaultResetTTL
	}
	if ttls.Invite <= 0 {
		ttls.Invite = DefaultInviteTTL
	}
	return &Service{secret: []byte(secret), issuer: issuer, ttls: ttls, now: time.Now}
}

// WithClock returns a copy of s that reads time from now. Used in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// TTLs returns the effective lifetimes.
func (s *Service) TTLs() TTLs { return s.ttls }

// Issue signs c with the given lifetime.
func (s *Service) Issue(c Claims, ttl time.Duration) (string, error) {
	if c.Purpose == "" {
		return "", fmt.Errorf("tokens: purpose is required")
	}
	now := s.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// IssueSession signs a 30-day (by default) session token.
func (s *Service) IssueSession(userID, role string) (string, error) {
	return s.Issue(Claims{Purpose: PurposeSession, UserID: userID, Role: role}, s.ttls.Session)
}

// IssueRegistration signs the short-lived email verification token.
func (s *Service) IssueRegistration(email, fullName string) (string, error) {
	return s.Issue(Claims{Purpose: PurposeRegister, Email: email, FullName: fullName}, s.ttls.Register)
}

// IssueReset signs a password reset token.
func (s *Service) IssueReset(userID string) (string, error) {
	return s.Issue(Claims{Purpose: PurposeReset, UserID: userID}, s.ttls.Reset)
}

// IssueInvite signs a project invitation token bound to one membership row.
func (s *Service) IssueInvite(email, projectID, memberID string) (string, error) {
	return s.Issue(Claims{Purpose: PurposeInvite, Email: email, ProjectID: projectID, MemberID: memberID}, s.ttls.Invite)
}

// Verify checks the signature, then expiry, then purpose.
func (s *Service) Verify(raw string, want Purpose) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.ExpiresAt == nil || !s.now().Before(c.ExpiresAt.Time) {
		return nil, ErrExpired
	}
	if c.Purpose != want {
		return nil, fmt.Errorf("%w: purpose %q, want %q", ErrInvalid, c.Purpose, want)
	}
	return &c, nil
}
