package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Env       string
	Port      string
	JWTKey    string
	SaltRound int

	AllowOrigins string

	DBDriver   string // postgres, mysql, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBDsn      string // overrides the host/port/user fields when set

	RazorpayBaseURL   string
	RazorpayKeyID     string
	RazorpayKeySecret string
	Currency          string

	// Percentage of every sale credited to the course instructor; the rest is platform revenue.
	InstructorSharePercent int

	MediaDriver         string // local, cloudinary
	MediaDir            string
	MediaBaseURL        string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	EmailDriver     string // log, sendgrid
	SendGridAPIKey  string
	EmailSender     string
	EmailSenderName string
	FrontendURL     string

	RedisAddr string

	RollbarToken string
	CodeVersion  string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from the .env file, environment variables or defaults
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	AppConfig = &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetString("PORT"),
		JWTKey:    v.GetString("JWT_SECRET_KEY"),
		SaltRound: v.GetInt("SALT_ROUND"),

		AllowOrigins: v.GetString("ALLOW_ORIGINS"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBDsn:      v.GetString("DB_DSN"),

		RazorpayBaseURL:   v.GetString("RAZORPAY_BASE_URL"),
		RazorpayKeyID:     v.GetString("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: v.GetString("RAZORPAY_KEY_SECRET"),
		Currency:          v.GetString("CURRENCY"),

		InstructorSharePercent: v.GetInt("INSTRUCTOR_SHARE_PERCENT"),

		MediaDriver:         strings.ToLower(v.GetString("MEDIA_DRIVER")),
		MediaDir:            v.GetString("MEDIA_DIR"),
		MediaBaseURL:        v.GetString("MEDIA_BASE_URL"),
		CloudinaryCloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: v.GetString("CLOUDINARY_API_SECRET"),

		EmailDriver:     strings.ToLower(v.GetString("EMAIL_DRIVER")),
		SendGridAPIKey:  v.GetString("SENDGRID_API_KEY"),
		EmailSender:     v.GetString("EMAIL_SENDER"),
		EmailSenderName: v.GetString("EMAIL_SENDER_NAME"),
		FrontendURL:     v.GetString("FRONTEND_URL"),

		RedisAddr: v.GetString("REDIS_ADDR"),

		RollbarToken: v.GetString("ROLLBAR_TOKEN"),
		CodeVersion:  v.GetString("CODE_VERSION"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.RazorpayKeySecret == "" {
		log.Println("Warning: RAZORPAY_KEY_SECRET is empty. Payment verification will reject every callback.")
	}
	if AppConfig.InstructorSharePercent < 0 || AppConfig.InstructorSharePercent > 100 {
		log.Printf("Warning: INSTRUCTOR_SHARE_PERCENT=%d out of range, falling back to 70", AppConfig.InstructorSharePercent)
		AppConfig.InstructorSharePercent = 70
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("JWT_SECRET_KEY", "defaultSecret")
	v.SetDefault("SALT_ROUND", 10)
	v.SetDefault("ALLOW_ORIGINS", "*")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "studysync")

	v.SetDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1")
	v.SetDefault("CURRENCY", "INR")
	v.SetDefault("INSTRUCTOR_SHARE_PERCENT", 70)

	v.SetDefault("MEDIA_DRIVER", "local")
	v.SetDefault("MEDIA_DIR", "./public/uploads")
	v.SetDefault("MEDIA_BASE_URL", "/uploads")

	v.SetDefault("EMAIL_DRIVER", "log")
	v.SetDefault("EMAIL_SENDER", "noreply@studysync.local")
	v.SetDefault("EMAIL_SENDER_NAME", "Study Sync")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")

	v.SetDefault("CODE_VERSION", "dev")
}
