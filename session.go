package uptask

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the authenticated-context value produced once by session
// verification and threaded explicitly into downstream calls
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	Audience       []string   `json:"audience,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s aud=%v iss=%s iat=%s",
		s.UserID,
		s.Audience,
		s.Issuer,
		issuedAt,
	)
}

// HasUserUUID reports whether Session.GetUserUUID will succeed.
func HasUserUUID(session Session) bool {
	if session == nil {
		return false
	}
	_, err := session.GetUserUUID()
	return err == nil
}

// sessionFromClaims builds a SessionObject from raw JWT claims, used when the
// middleware hands us a parsed token instead of our structured claims
func sessionFromClaims(claims jwt.Claims) (*SessionObject, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrUnableToParseData
	}

	aud, err := claims.GetAudience()
	if err != nil {
		return nil, ErrUnableToParseData
	}

	iss, err := claims.GetIssuer()
	if err != nil {
		return nil, ErrUnableToParseData
	}

	eat, err := claims.GetExpirationTime()
	if err != nil || eat == nil {
		return nil, ErrUnableToParseData
	}

	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, ErrUnableToParseData
	}

	return &SessionObject{
		UserID:         sub,
		Audience:       aud,
		Issuer:         iss,
		IssuedAt:       &iat.Time,
		ExpirationDate: &eat.Time,
	}, nil
}

// sessionFromAuthClaims creates a SessionObject from validated claims
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToParseData
	}

	var audience []string
	var issuer string
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		issuer = jwtClaims.RegisteredClaims.Issuer
		for _, aud := range jwtClaims.RegisteredClaims.Audience {
			audience = append(audience, aud)
		}
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	return &SessionObject{
		UserID:         claims.UserID(),
		Audience:       audience,
		Issuer:         issuer,
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}
