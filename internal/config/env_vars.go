package config

import "strings"

const (
	ProviderOIDC   = "oidc"
	ProviderMemory = "memory"
)

type EnvVars struct {
	AppName  string `env:"APP_NAME" envDefault:"Go Auth Portal"`
	Env      string `env:"ENV" envDefault:"DEV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.LogLevel)
}

type Identity struct {
	Provider     string   `env:"PROVIDER" envDefault:"oidc"`
	IssuerURL    string   `env:"ISSUER_URL" envDefault:"http://localhost:8080"`
	ClientID     string   `env:"CLIENT_ID" envDefault:"auth-portal"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES" envSeparator:" " envDefault:"openid profile email"`

	// SiteURL is where confirmation emails send the user back to
	SiteURL string `env:"SITE_URL" envDefault:"http://localhost:3000"`

	// MemoryAutoConfirm skips email confirmation in memory mode
	MemoryAutoConfirm bool `env:"MEMORY_AUTO_CONFIRM" envDefault:"true"`
}

var _ IdentityConfig = Identity{}

func (i Identity) GetProvider() string {
	return strings.ToLower(i.Provider)
}

func (i Identity) GetIssuerURL() string {
	return strings.TrimSuffix(i.IssuerURL, "/")
}

func (i Identity) GetClientID() string {
	return i.ClientID
}

func (i Identity) GetClientSecret() string {
	return i.ClientSecret
}

func (i Identity) GetScopes() []string {
	return i.Scopes
}

func (i Identity) GetMemoryAutoConfirm() bool {
	return i.MemoryAutoConfirm
}

// GetSiteURL returns the post-confirmation redirect target, always ending in "/"
func (i Identity) GetSiteURL() string {
	if strings.HasSuffix(i.SiteURL, "/") {
		return i.SiteURL
	}
	return i.SiteURL + "/"
}

type Storage struct {
	ProfileDBPath string `env:"PROFILE_DB" envDefault:"./data/profiles.db"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetProfileDBPath() string {
	return s.ProfileDBPath
}
