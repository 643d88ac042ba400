package http

// BasicAuth protects the /api/v1 routes when a username is set
type BasicAuth struct {
	Username string
	Password string `validate:"required_with=Username"`
}

// Configuration the HTTP server configuration
type Configuration struct {
	Host string `validate:"required"`
	Port uint32 `validate:"required"`
	// TLS is enabled when a certificate is set
	Key  string `validate:"required_with=Cert"`
	Cert string `validate:"required_with=Key"`
	// client certificates are required when set
	Cacert     string
	Insecure   bool
	ServerName string    `yaml:"server-name"`
	BasicAuth  BasicAuth `yaml:"basic-auth"`
}
