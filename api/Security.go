package api

// Security schemes of the TD security vocabulary
const (
	SecSchemeNoSec  = "nosec"
	SecSchemeBasic  = "basic"
	SecSchemeDigest = "digest"
	SecSchemeBearer = "bearer"
	SecSchemeAPIKey = "apikey"
	SecSchemePSK    = "psk"
	SecSchemeCert   = "cert"
	SecSchemeOAuth2 = "oauth2"
)

// Location of credentials in a request
const (
	SecInHeader = "header"
	SecInQuery  = "query"
	SecInBody   = "body"
	SecInCookie = "cookie"
)

// SecurityScheme describes how a Thing expects its consumers to authenticate.
// Schemes are resolved from the TD securityDefinitions and validated when the TD is parsed.
type SecurityScheme struct {
	// Scheme is one of the SecSchemeXxx values
	Scheme string `json:"scheme" yaml:"scheme"`
	// Description of the scheme
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// In is the location of the credentials, one of SecInXxx. Empty for the protocol default.
	In string `json:"in,omitempty" yaml:"in,omitempty"`
	// Name of the header, query parameter or cookie holding the credentials
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Format of the bearer token, eg jwt
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// Alg is the bearer token signing algorithm, eg ES256
	Alg string `json:"alg,omitempty" yaml:"alg,omitempty"`
	// Authorization server URI of bearer and oauth2 schemes
	Authorization string `json:"authorization,omitempty" yaml:"authorization,omitempty"`
}

// Credentials provided by the host for accessing a Thing.
// Which fields are used depends on the security scheme of the Thing.
type Credentials struct {
	// Username for basic and digest authentication
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	// Password for basic and digest authentication
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// Token for bearer authentication
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
	// APIKey for apikey authentication
	APIKey string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	// ClientCertFile and ClientKeyFile for certificate authentication
	ClientCertFile string `json:"clientCertFile,omitempty" yaml:"clientCertFile,omitempty"`
	ClientKeyFile  string `json:"clientKeyFile,omitempty" yaml:"clientKeyFile,omitempty"`
}
