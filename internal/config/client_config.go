package config

const (
	apiURLVar     = "NEXT_PUBLIC_API_URL"
	appURLVar     = "PG_APP_URL"
	rootDomainVar = "PG_ROOT_DOMAIN"

	// DefaultAPIURL is used when NEXT_PUBLIC_API_URL is not set.
	DefaultAPIURL = "http://localhost:3001"
	// DefaultAppURL is the browsing location assumed by the CLI.
	DefaultAppURL = "http://localhost:3000/"
)

type ClientConfig interface {
	GetAPIURL() string
	GetAppURL() string
	GetRootDomain() string
}

type Client struct{}

var _ ClientConfig = Client{}

// GetAPIURL returns the origin every API call is sent to.
func (Client) GetAPIURL() string {
	return GetEnv(apiURLVar, DefaultAPIURL)
}

// GetAppURL returns the location the client pretends to browse from. Its
// hostname and query drive tenant resolution and its path picks the admin or
// tenant section.
func (Client) GetAppURL() string {
	return GetEnv(appURLVar, DefaultAppURL)
}

// GetRootDomain returns the domain tenant subdomains hang off, e.g. "pgportal.app".
// Empty means "derive it from the current hostname".
func (Client) GetRootDomain() string {
	return GetEnv(rootDomainVar, "")
}
