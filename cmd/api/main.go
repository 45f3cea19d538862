package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"worthit/internal/auth"
	"worthit/internal/consensus"
	"worthit/internal/db"
	"worthit/internal/domain/claim"
	"worthit/internal/domain/suggestion"
	"worthit/internal/events"
	"worthit/internal/mailer"
	"worthit/internal/ratelimiter"
	"worthit/internal/store"

	_ "github.com/lib/pq"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	defaultRequests := 20
	defaultEnabled := true

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            time.Minute,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel
	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)
	return logger.Sugar(), nil
}

// storageCatalog adapts the catalog read stores to the suggestion
// gateway's duplicate-detection view.
type storageCatalog struct {
	store store.Storage
}

func (c storageCatalog) FindDishByName(ctx context.Context, restaurantID int64, nameNorm string) (int64, bool, error) {
	return c.store.Dishes.FindByNormalizedName(ctx, restaurantID, nameNorm)
}

func (c storageCatalog) FindRestaurantByName(ctx context.Context, nameNorm string) (int64, bool, error) {
	return c.store.Restaurants.FindByNormalizedName(ctx, nameNorm)
}

func (c storageCatalog) FindRestaurantByPlaceID(ctx context.Context, placeID string) (int64, bool, error) {
	return c.store.Restaurants.FindByPlaceID(ctx, placeID)
}

var version = "0.3.0"

//	@title			WorthIt API
//	@description	API for WorthIt, a community dish recommendation platform.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}

	maxOpenConnsStr := os.Getenv("DB_MAX_OPEN_CONNS")
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		log.Fatalf("Invalid value for DB_MAX_OPEN_CONNS: %v", err)
	}
	maxIdleConnsStr := os.Getenv("DB_MAX_IDLE_CONNS")
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		log.Fatalf("Invalid value for DB_MAX_IDLE_CONNS: %v", err)
	}
	mailPortStr := os.Getenv("MAIL_PORT")
	mailPort, err := strconv.Atoi(mailPortStr)
	if err != nil {
		log.Fatalf("Invalid value for MAIL_PORT: %v", err)
	}

	submissionsPerDay := 10
	if val, exists := os.LookupEnv("SUBMISSIONS_PER_DAY"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			submissionsPerDay = parsedVal
		} else {
			log.Fatalf("Invalid value for SUBMISSIONS_PER_DAY: %v", err)
		}
	}

	cfg := config{
		addr:        os.Getenv("ADDR"),
		env:         os.Getenv("ENV"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		apiURL:      os.Getenv("EXTERNAL_URL"),
		db: dbConfig{
			addr:         os.Getenv("DB_ADDR"),
			maxOpenConns: maxOpenConns,
			maxIdleConns: maxIdleConns,
			maxIdleTime:  os.Getenv("DB_MAX_IDLE_TIME"),
		},
		mail: mailConfig{
			host:      os.Getenv("MAIL_HOST"),
			port:      mailPort,
			username:  os.Getenv("MAIL_USERNAME"),
			password:  os.Getenv("MAIL_PASSWORD"),
			fromEmail: os.Getenv("MAIL_FROM_EMAIL"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret: os.Getenv("AUTH_TOKEN_SECRET"),
				iss:    "WorthIt",
				aud:    "WorthIt",
			},
		},
		quota: quotaConfig{
			submissionsPerDay: submissionsPerDay,
		},
		rateLimiter: LoadRateLimiterConfig(),
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Two pools on the same database: pgx for the transactional domain
	// repositories, database/sql for the catalog read stores.
	pool, err := db.New(cfg.db.addr, int32(cfg.db.maxOpenConns), cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()

	sqlDB, err := db.NewSQL(cfg.db.addr, cfg.db.maxOpenConns, cfg.db.maxIdleConns, cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer sqlDB.Close()
	logger.Info("database connection pools established")

	storage := store.NewStorage(sqlDB)
	suggestions := suggestion.NewRepository(pool)
	claims := claim.NewRepository(pool)

	refCodes, err := suggestion.NewRefCodeGenerator(os.Getenv("REF_CODE_SALT"))
	if err != nil {
		logger.Fatal(err)
	}

	sink := events.NewZapSink(logger)

	gateway := suggestion.NewGateway(
		suggestions,
		storageCatalog{store: storage},
		ratelimiter.NewPostgresQuota(pool, cfg.quota.submissionsPerDay),
		refCodes,
		sink,
		logger,
	)

	smtpMailer := mailer.NewSMTP(
		cfg.mail.host,
		cfg.mail.port,
		cfg.mail.username,
		cfg.mail.password,
		cfg.mail.fromEmail,
	)

	ipLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.aud,
		cfg.auth.token.iss,
	)

	app := &application{
		config:        cfg,
		store:         storage,
		suggestions:   suggestions,
		claims:        claims,
		gateway:       gateway,
		consensus:     consensus.DefaultConfig(),
		logger:        logger,
		mailer:        smtpMailer,
		authenticator: jwtAuthenticator,
		sink:          sink,
		ipLimiter:     ipLimiter,
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		return sqlDB.Stats()
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
