package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	ExternalHost string // public base URL override, e.g. behind a tunnel

	IMAPServer    string
	IMAPPort      int
	EmailAddress  string
	EmailPassword string
	CheckInterval int // seconds
	MaxEmails     int // per mailbox sweep

	GeminiAPIKey string
	GeminiModel  string

	GitHubPAT      string
	GitHubUsername string
	RepoPrefix     string

	VenmoProfileURL string
	MinAmount       float64 // payments below this are ignored

	CooldownSeconds int
	AppsDir         string

	PrinterAddr   string // network printer, host:port
	PrinterDevice string // raw device path, e.g. /dev/usb/lp0

	ShutdownTimeout int // seconds
}

// Load reads configuration from environment variables. Nothing is strictly
// required: missing credentials degrade the matching feature and print a
// warning instead of stopping the installation.
func Load() *Config {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	emailAddress := os.Getenv("VENMO_EMAIL_ADDRESS")
	emailPassword := os.Getenv("VENMO_EMAIL_PASSWORD")
	if emailAddress == "" || emailPassword == "" {
		fmt.Println("Warning: VENMO_EMAIL_ADDRESS or VENMO_EMAIL_PASSWORD not set, email monitoring will not work")
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		fmt.Println("Warning: GEMINI_API_KEY not set, app generation will not work")
	}

	githubPAT := os.Getenv("GITHUB_PAT")
	if githubPAT == "" {
		fmt.Println("Warning: GITHUB_PAT not set, generated apps will not be pushed to GitHub")
	}

	return &Config{
		Port:         getEnvInt("PORT", 5002),
		ExternalHost: os.Getenv("EXTERNAL_HOST"),

		IMAPServer:    getEnv("VENMO_IMAP_SERVER", "mail.infomaniak.com"),
		IMAPPort:      getEnvInt("VENMO_IMAP_PORT", 993),
		EmailAddress:  emailAddress,
		EmailPassword: emailPassword,
		CheckInterval: getEnvInt("EMAIL_CHECK_INTERVAL", 15),
		MaxEmails:     getEnvInt("MAX_EMAILS_TO_PROCESS", 10),

		GeminiAPIKey: geminiAPIKey,
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),

		GitHubPAT:      githubPAT,
		GitHubUsername: getEnv("GITHUB_USERNAME", "haukesand"),
		RepoPrefix:     getEnv("GITHUB_REPO_PREFIX", "vibe-app-"),

		VenmoProfileURL: getEnv("VENMO_PROFILE_URL", "https://account.venmo.com/u/haukesa"),
		MinAmount:       getEnvFloat("VENMO_MIN_AMOUNT", 0.25),

		CooldownSeconds: getEnvInt("GENERATION_COOLDOWN", 30),
		AppsDir:         getEnv("GENERATED_APPS_DIR", "generated_apps"),

		PrinterAddr:   os.Getenv("PRINTER_ADDR"),
		PrinterDevice: os.Getenv("PRINTER_DEVICE"),

		ShutdownTimeout: getEnvInt("SHUTDOWN_TIMEOUT", 30),
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Printf("Warning: %s=%q is not a number, using %d\n", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		fmt.Printf("Warning: %s=%q is not a number, using %g\n", key, v, def)
		return def
	}
	return f
}
