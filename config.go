package uptask

// SimpleConfig is a plain struct implementation of Config
type SimpleConfig struct {
	SigningKey      string   `json:"signing_key"`
	ContextKey      string   `json:"context_key"`
	TokenExpiration int      `json:"token_expiration"`
	TokenLookup     string   `json:"token_lookup"`
	AuthScheme      string   `json:"auth_scheme"`
	Issuer          string   `json:"issuer"`
	Audience        []string `json:"audience"`
}

var _ Config = &SimpleConfig{}

func (c *SimpleConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c *SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return DefaultSessionHours
	}
	return c.TokenExpiration
}

func (c *SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization,cookie:" + c.GetContextKey()
	}
	return c.TokenLookup
}

func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *SimpleConfig) GetIssuer() string {
	return c.Issuer
}

func (c *SimpleConfig) GetAudience() []string {
	return c.Audience
}
