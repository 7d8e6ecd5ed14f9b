package config

type SSOConfig interface {
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	SSOEnabled() bool
}

type SSO struct {
	Issuer       string `env:"OIDC_ISSUER"`
	ClientID     string `env:"OIDC_CLIENT_ID"`
	ClientSecret string `env:"OIDC_CLIENT_SECRET"`
}

var _ SSOConfig = SSO{}

func (s SSO) GetOIDCIssuer() string {
	return s.Issuer
}

func (s SSO) GetOIDCClientID() string {
	return s.ClientID
}

func (s SSO) GetOIDCClientSecret() string {
	return s.ClientSecret
}

func (s SSO) SSOEnabled() bool {
	return s.Issuer != "" && s.ClientID != ""
}
