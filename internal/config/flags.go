package config

import (
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
)

// Flags holds all command line flag values
type Flags struct {
	fs *flag.FlagSet

	// General
	configFile *string
	version    *bool

	// Server
	serverPort         *int
	serverHost         *string
	serverReadTimeout  *string
	serverWriteTimeout *string
	serverTLSEnabled   *bool
	serverTLSCert      *string
	serverTLSKey       *string

	// Database
	dbType             *string
	dbSQLitePath       *string
	dbPostgresURL      *string
	dbPostgresHost     *string
	dbPostgresPort     *int
	dbPostgresDatabase *string
	dbPostgresUser     *string
	dbPostgresPassword *string
	dbPostgresSSLMode  *string

	// JWT
	jwtSecret     *string
	jwtExpiration *string

	// Anchoring
	anchorDelay      *string
	anchorTimeout    *string
	anchorWorkers    *int
	anchorAutoAnchor *bool

	// Suggestion
	suggestionEnabled          *bool
	suggestionEndpoint         *string
	suggestionModel            *string
	suggestionAssistedCreation *bool

	// Logging
	logLevel  *string
	logFormat *string
	logOutput *string

	// Security
	securityCORSEnabled      *bool
	securityCORSOrigins      *[]string
	securityRateLimitEnabled *bool
}

// ParseFlags defines and parses all command line flags
func ParseFlags() (*Flags, string, bool) {
	f := newFlags(flag.CommandLine)
	flag.Usage = usage
	flag.Parse()
	return f, *f.configFile, *f.version
}

func newFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}

	// General flags
	f.configFile = fs.StringP("config", "c", "config.yaml", "Path to configuration file")
	f.version = fs.BoolP("version", "v", false, "Print version and exit")

	// Server flags
	f.serverPort = fs.Int("server.port", 0, "HTTP server port")
	f.serverHost = fs.String("server.host", "", "HTTP server bind address")
	f.serverReadTimeout = fs.String("server.read-timeout", "", "Server read timeout (e.g., 30s)")
	f.serverWriteTimeout = fs.String("server.write-timeout", "", "Server write timeout (e.g., 30s)")
	f.serverTLSEnabled = fs.Bool("server.tls-enabled", false, "Enable HTTPS")
	f.serverTLSCert = fs.String("server.tls-cert", "", "Path to TLS certificate")
	f.serverTLSKey = fs.String("server.tls-key", "", "Path to TLS key")

	// Database flags
	f.dbType = fs.String("db.type", "", "Database type (sqlite or postgres)")
	f.dbSQLitePath = fs.String("db.sqlite.path", "", "SQLite database file path")
	f.dbPostgresURL = fs.String("db.postgres.url", "", "PostgreSQL connection URL")
	f.dbPostgresHost = fs.String("db.postgres.host", "", "PostgreSQL host")
	f.dbPostgresPort = fs.Int("db.postgres.port", 0, "PostgreSQL port")
	f.dbPostgresDatabase = fs.String("db.postgres.database", "", "PostgreSQL database name")
	f.dbPostgresUser = fs.String("db.postgres.user", "", "PostgreSQL user")
	f.dbPostgresPassword = fs.String("db.postgres.password", "", "PostgreSQL password")
	f.dbPostgresSSLMode = fs.String("db.postgres.ssl-mode", "", "PostgreSQL SSL mode")

	// JWT flags
	f.jwtSecret = fs.String("jwt.secret", "", "JWT secret key")
	f.jwtExpiration = fs.String("jwt.expiration", "", "JWT expiration duration (e.g., 24h)")

	// Anchoring flags
	f.anchorDelay = fs.String("anchor.delay", "", "Simulated ledger latency before anchoring (e.g., 5s)")
	f.anchorTimeout = fs.String("anchor.timeout", "", "Upper bound for a single anchoring attempt (e.g., 30s)")
	f.anchorWorkers = fs.Int("anchor.workers", 0, "Background anchoring workers")
	f.anchorAutoAnchor = fs.Bool("anchor.auto", false, "Anchor new certificates in the background")

	// Suggestion flags
	f.suggestionEnabled = fs.Bool("suggestion.enabled", false, "Enable AI wipe suggestions")
	f.suggestionEndpoint = fs.String("suggestion.endpoint", "", "Chat completions endpoint")
	f.suggestionModel = fs.String("suggestion.model", "", "Model used for suggestions")
	f.suggestionAssistedCreation = fs.Bool("suggestion.assisted-creation", false, "Route certificate creation through the LLM")

	// Logging flags
	f.logLevel = fs.StringP("log.level", "l", "", "Log level (debug, info, warn, error)")
	f.logFormat = fs.String("log.format", "", "Log format (json or console)")
	f.logOutput = fs.String("log.output", "", "Log output (stdout or file path)")

	// Security flags
	f.securityCORSEnabled = fs.Bool("security.cors-enabled", false, "Enable CORS")
	f.securityCORSOrigins = fs.StringSlice("security.cors-origins", nil, "CORS allowed origins (can be specified multiple times)")
	f.securityRateLimitEnabled = fs.Bool("security.rate-limit-enabled", false, "Enable rate limiting")

	return f
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "GreenWipe - secure data erasure certificates with simulated ledger anchoring\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nConfiguration priority (highest to lowest):\n")
	fmt.Fprintf(os.Stderr, "  1. Command line flags\n")
	fmt.Fprintf(os.Stderr, "  2. Environment variables (GREENWIPE_*)\n")
	fmt.Fprintf(os.Stderr, "  3. Configuration file (default: config.yaml)\n\n")
	fmt.Fprintf(os.Stderr, "Examples:\n")
	fmt.Fprintf(os.Stderr, "  # Start with custom config file\n")
	fmt.Fprintf(os.Stderr, "  %s --config /etc/greenwipe/config.yaml\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  # Shorter anchoring delay for demos\n")
	fmt.Fprintf(os.Stderr, "  %s --anchor.delay 1s\n\n", os.Args[0])
}

func (f *Flags) changed(name string) bool {
	fl := f.fs.Lookup(name)
	return fl != nil && fl.Changed
}

// applyFlags copies every explicitly set flag onto the configuration
func (c *Config) applyFlags(f *Flags) error {
	durations := []struct {
		name   string
		value  *string
		target *time.Duration
	}{
		{"server.read-timeout", f.serverReadTimeout, &c.Server.ReadTimeout},
		{"server.write-timeout", f.serverWriteTimeout, &c.Server.WriteTimeout},
		{"jwt.expiration", f.jwtExpiration, &c.JWT.Expiration},
		{"anchor.delay", f.anchorDelay, &c.Anchoring.Delay},
		{"anchor.timeout", f.anchorTimeout, &c.Anchoring.Timeout},
	}
	for _, d := range durations {
		if !f.changed(d.name) {
			continue
		}
		parsed, err := time.ParseDuration(*d.value)
		if err != nil {
			return fmt.Errorf("--%s: %w", d.name, err)
		}
		*d.target = parsed
	}

	strs := []struct {
		name   string
		value  *string
		target *string
	}{
		{"server.host", f.serverHost, &c.Server.Host},
		{"server.tls-cert", f.serverTLSCert, &c.Server.TLSCert},
		{"server.tls-key", f.serverTLSKey, &c.Server.TLSKey},
		{"db.type", f.dbType, &c.Database.Type},
		{"db.sqlite.path", f.dbSQLitePath, &c.Database.SQLite.Path},
		{"db.postgres.url", f.dbPostgresURL, &c.Database.Postgres.URL},
		{"db.postgres.host", f.dbPostgresHost, &c.Database.Postgres.Host},
		{"db.postgres.database", f.dbPostgresDatabase, &c.Database.Postgres.Database},
		{"db.postgres.user", f.dbPostgresUser, &c.Database.Postgres.User},
		{"db.postgres.password", f.dbPostgresPassword, &c.Database.Postgres.Password},
		{"db.postgres.ssl-mode", f.dbPostgresSSLMode, &c.Database.Postgres.SSLMode},
		{"jwt.secret", f.jwtSecret, &c.JWT.Secret},
		{"suggestion.endpoint", f.suggestionEndpoint, &c.Suggestion.Endpoint},
		{"suggestion.model", f.suggestionModel, &c.Suggestion.Model},
		{"log.level", f.logLevel, &c.Logging.Level},
		{"log.format", f.logFormat, &c.Logging.Format},
		{"log.output", f.logOutput, &c.Logging.Output},
	}
	for _, s := range strs {
		if f.changed(s.name) {
			*s.target = *s.value
		}
	}

	ints := []struct {
		name   string
		value  *int
		target *int
	}{
		{"server.port", f.serverPort, &c.Server.Port},
		{"db.postgres.port", f.dbPostgresPort, &c.Database.Postgres.Port},
		{"anchor.workers", f.anchorWorkers, &c.Anchoring.Workers},
	}
	for _, i := range ints {
		if f.changed(i.name) {
			*i.target = *i.value
		}
	}

	bools := []struct {
		name   string
		value  *bool
		target *bool
	}{
		{"server.tls-enabled", f.serverTLSEnabled, &c.Server.TLSEnabled},
		{"anchor.auto", f.anchorAutoAnchor, &c.Anchoring.AutoAnchor},
		{"suggestion.enabled", f.suggestionEnabled, &c.Suggestion.Enabled},
		{"suggestion.assisted-creation", f.suggestionAssistedCreation, &c.Suggestion.AssistedCreation},
		{"security.cors-enabled", f.securityCORSEnabled, &c.Security.CORSEnabled},
		{"security.rate-limit-enabled", f.securityRateLimitEnabled, &c.Security.RateLimitEnabled},
	}
	for _, b := range bools {
		if f.changed(b.name) {
			*b.target = *b.value
		}
	}

	if f.changed("security.cors-origins") {
		c.Security.CORSOrigins = *f.securityCORSOrigins
	}

	return nil
}
