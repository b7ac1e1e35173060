package uptask

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrUnableToDecodeSession
	}
	return f(tokenString)
}

// MultiTokenValidator tries validators in order until one succeeds. Useful
// when sessions may be minted by more than one issuer, e.g. local HS256 plus
// an external JWKS.
type MultiTokenValidator struct {
	validators []TokenValidator
}

// NewMultiTokenValidator filters nil validators and returns a composite validator.
func NewMultiTokenValidator(validators ...TokenValidator) *MultiTokenValidator {
	filtered := make([]TokenValidator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenValidator{validators: filtered}
}

// Validate returns the claims from the first validator that accepts the
// token, or the last failure when none do.
func (m *MultiTokenValidator) Validate(tokenString string) (AuthClaims, error) {
	if m == nil || len(m.validators) == 0 {
		return nil, ErrSessionInvalid
	}

	var lastErr error
	for _, v := range m.validators {
		claims, err := v.Validate(tokenString)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

var (
	_ TokenValidator = (TokenValidatorFunc)(nil)
	_ TokenValidator = (*MultiTokenValidator)(nil)
)
