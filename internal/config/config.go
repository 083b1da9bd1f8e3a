package config // package config loads application configuration from environment variables

import (
	"os"      // os provides access to environment variables
	"strings" // strings splits list-valued variables
	"time"    // time parses durations

	"github.com/sirupsen/logrus"
)

// AdminKey is the credential for one access tier.  Hash is a bcrypt hash;
// when only the plain Key is set it is hashed at start-up and the plain
// value is dropped.
type AdminKey struct {
	Access string
	Key    string
	Hash   string
}

// BrevoConfig holds the transactional email settings.
type BrevoConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env               string        // application environment (e.g. "dev", "prod")
	Port              string        // HTTP port to listen on
	DBUser            string        // database username
	DBPass            string        // database password (optional)
	DBHost            string        // database host address
	DBPort            string        // database port number
	DBName            string        // database name
	AdminKeys         []AdminKey    // tiers in match order: dashboard, finance, scanner, backstage
	BcryptCost        int           // bcrypt cost used when hashing plain keys
	JWTSecret         string        // secret used to sign role tokens (empty disables them)
	RoleTokenTTL      time.Duration // lifetime of a role token
	CORSOrigins       []string      // allowed browser origins
	BackendURL        string        // public base URL, used in email QR links
	Brevo             BrevoConfig   // confirmation email sender
	NotifyTimeout     time.Duration // bound on handing an event to the notifier
	NotifyBuffer      int           // in-process queue size when no broker is set
	AMQPURL           string        // RabbitMQ URL; empty selects the in-process queue
	EventDefaultsFile string        // optional YAML overlay of event-setting defaults
	LogLevel          string        // logrus level name
}

// Load reads configuration values from environment variables and returns a
// Config.  Database coordinates are required and enforced by must(); every
// other variable has a default.
func Load() Config {
	return Config{
		Env:    getenv("APP_ENV", "dev"),
		Port:   getenv("APP_PORT", "8000"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost: must("DB_HOST"),
		DBPort: getenv("DB_PORT", "3306"),
		DBName: must("DB_NAME"),
		AdminKeys: []AdminKey{
			adminKey("dashboard", "DASHBOARD"),
			adminKey("finance", "FINANCE"),
			adminKey("scanner", "SCANNER"),
			adminKey("backstage", "BACKSTAGE"),
		},
		BcryptCost:   envInt("BCRYPT_COST", 10),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		RoleTokenTTL: envDur("ROLE_TOKEN_TTL", 12*time.Hour),
		CORSOrigins:  splitList(getenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5500,http://127.0.0.1:5500")),
		BackendURL:   strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
		Brevo: BrevoConfig{
			APIKey:    os.Getenv("BREVO_API_KEY"),
			FromEmail: getenv("BREVO_FROM_EMAIL", os.Getenv("SMTP_FROM")),
			FromName:  getenv("BREVO_FROM_NAME", "Theatre Booking"),
		},
		NotifyTimeout:     envDur("NOTIFY_TIMEOUT", 5*time.Second),
		NotifyBuffer:      envInt("NOTIFY_BUFFER", 256),
		AMQPURL:           getenv("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		EventDefaultsFile: getenv("EVENT_DEFAULTS_FILE", "config/event.yaml"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
	}
}

func adminKey(access, prefix string) AdminKey {
	return AdminKey{
		Access: access,
		Key:    os.Getenv(prefix + "_KEY"),
		Hash:   os.Getenv(prefix + "_KEY_HASH"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}
