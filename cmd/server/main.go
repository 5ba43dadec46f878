package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/smarthomesolar/solarsite/internal/api"
	"github.com/smarthomesolar/solarsite/internal/content"
	"github.com/smarthomesolar/solarsite/internal/httpapi"
	"github.com/smarthomesolar/solarsite/internal/leads"
	"github.com/smarthomesolar/solarsite/internal/notifications"
	"github.com/smarthomesolar/solarsite/internal/storage"
	"github.com/smarthomesolar/solarsite/internal/task"
)

const (
	commandUseName                  = "server"
	commandShortDescription         = "Run the solar site"
	commandLongDescription          = "Serve the solar marketing site, the lead admin panel and the inquiry API"
	missingConfigurationMessage     = "missing required configuration"
	invalidConfigurationMessage     = "invalid configuration"
	loggerCreationErrorMessage      = "logger"
	logEventListening               = "listening"
	logEventShutdown                = "shutdown"
	logEventOperatorBootstrapped    = "operator_bootstrapped"
	logEventContentWatchUnavailable = "content_watch_unavailable"
	logEventDatabaseCloseFailed     = "database_close_failed"
	logFieldAddress                 = "addr"
	logFieldServeMode               = "serve_mode"
	unexpectedArgumentsMessage      = "unexpected command arguments"
	commandInitializationFailure    = "failed to configure command"
	flagNotDefinedMessage           = "flag %s not defined"
	environmentConfigurationError   = "failed to apply environment configuration"
	readHeaderTimeoutSeconds        = 5
	shutdownTimeout                 = 10 * time.Second
	retentionSweepInterval          = 6 * time.Hour
	csrfKeyLength                   = 32
	loopbackHost                    = "127.0.0.1"
	defaultApplicationAddress       = ":8080"
	defaultDatabaseDriver           = storage.DriverNameSQLite
	defaultDatabaseDataSourceName   = "solarsite.db"
	defaultPublicBaseURL            = "http://localhost:8080"
	defaultDisplayTimeZone          = "UTC"
)

const (
	flagNameApplicationAddress = "app-addr"
	flagNameServeMode          = "serve-mode"
	flagNameInquiryAPIURL      = "inquiry-api-url"
	flagNameSessionSecret      = "session-secret"
	flagNameCSRFKey            = "csrf-key"
	flagNameSecureCookies      = "secure-cookies"
	flagNameDatabaseDriver     = "db-driver"
	flagNameDatabaseDSN        = "db-dsn"
	flagNameJWTSecret          = "jwt-secret"
	flagNameAdminUsername      = "admin-username"
	flagNameAdminPassword      = "admin-password"
	flagNameContentFile        = "content-file"
	flagNamePublicBaseURL      = "public-base-url"
	flagNameDisplayTimeZone    = "display-timezone"
	flagNameResendAPIKey       = "resend-api-key"
	flagNameNotifyFrom         = "notify-from"
	flagNameNotifyTo           = "notify-to"
	flagNameRetentionDays      = "retention-days"
	flagNameTrustedProxies     = "trusted-proxies"
)

const (
	environmentKeyApplicationAddress = "APP_ADDR"
	environmentKeyServeMode          = "SERVE_MODE"
	environmentKeyInquiryAPIURL      = "INQUIRY_API_URL"
	environmentKeySessionSecret      = "SESSION_SECRET"
	environmentKeyCSRFKey            = "CSRF_KEY"
	environmentKeySecureCookies      = "SECURE_COOKIES"
	environmentKeyDatabaseDriver     = "DB_DRIVER"
	environmentKeyDatabaseDSN        = "DB_DSN"
	environmentKeyJWTSecret          = "JWT_SECRET"
	environmentKeyAdminUsername      = "ADMIN_USERNAME"
	environmentKeyAdminPassword      = "ADMIN_PASSWORD"
	environmentKeyContentFile        = "CONTENT_FILE"
	environmentKeyPublicBaseURL      = "PUBLIC_BASE_URL"
	environmentKeyDisplayTimeZone    = "DISPLAY_TIMEZONE"
	environmentKeyResendAPIKey       = "RESEND_API_KEY"
	environmentKeyNotifyFrom         = "NOTIFY_FROM"
	environmentKeyNotifyTo           = "NOTIFY_TO"
	environmentKeyRetentionDays      = "RETENTION_DAYS"
	environmentKeyTrustedProxies     = "TRUSTED_PROXIES"
)

var errInvalidCSRFKey = errors.New("csrf key must be 64 hex characters")

type configurationFlag struct {
	environmentKey string
	flagName       string
	defaultValue   string
	usage          string
}

var configurationFlags = []configurationFlag{
	{environmentKeyApplicationAddress, flagNameApplicationAddress, defaultApplicationAddress, "address for the HTTP server to listen on"},
	{environmentKeyServeMode, flagNameServeMode, string(ServeModeMonolith), "what to serve: monolith, web or api"},
	{environmentKeyInquiryAPIURL, flagNameInquiryAPIURL, "", "base URL of the inquiry API (defaults to this server in monolith mode)"},
	{environmentKeySessionSecret, flagNameSessionSecret, "", "secret used to sign and encrypt admin session cookies"},
	{environmentKeyCSRFKey, flagNameCSRFKey, "", "32-byte hex key used to sign CSRF tokens"},
	{environmentKeySecureCookies, flagNameSecureCookies, "false", "mark cookies Secure (enable behind HTTPS)"},
	{environmentKeyDatabaseDriver, flagNameDatabaseDriver, defaultDatabaseDriver, "database driver for the inquiry API"},
	{environmentKeyDatabaseDSN, flagNameDatabaseDSN, defaultDatabaseDataSourceName, "database connection string for the inquiry API"},
	{environmentKeyJWTSecret, flagNameJWTSecret, "", "secret used to sign operator API tokens"},
	{environmentKeyAdminUsername, flagNameAdminUsername, "", "operator account created or updated at startup"},
	{environmentKeyAdminPassword, flagNameAdminPassword, "", "password for the startup operator account"},
	{environmentKeyContentFile, flagNameContentFile, "", "YAML file overriding the built-in site content"},
	{environmentKeyPublicBaseURL, flagNamePublicBaseURL, defaultPublicBaseURL, "public URL of the site, used in the sitemap and emails"},
	{environmentKeyDisplayTimeZone, flagNameDisplayTimeZone, defaultDisplayTimeZone, "IANA time zone for dashboard dates"},
	{environmentKeyResendAPIKey, flagNameResendAPIKey, "", "Resend API key for new lead emails"},
	{environmentKeyNotifyFrom, flagNameNotifyFrom, "", "sender address for new lead emails"},
	{environmentKeyNotifyTo, flagNameNotifyTo, "", "comma separated recipients for new lead emails"},
	{environmentKeyRetentionDays, flagNameRetentionDays, "0", "days to keep closed inquiries (0 keeps them forever)"},
	{environmentKeyTrustedProxies, flagNameTrustedProxies, "", "comma separated proxies allowed to set X-Forwarded-For (defaults to loopback)"},
}

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	ApplicationAddress string
	ServeMode          ServeMode
	InquiryAPIURL      string
	SessionSecret      string
	CSRFKey            string
	SecureCookies      bool
	DatabaseDriver     string
	DatabaseDSN        string
	JWTSecret          string
	AdminUsername      string
	AdminPassword      string
	ContentFile        string
	PublicBaseURL      string
	DisplayTimeZone    string
	ResendAPIKey       string
	NotifyFrom         string
	NotifyTo           []string
	RetentionDays      int
	TrustedProxies     []string
}

// DatabaseOpener opens the inquiry database.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	commandFlags := command.Flags()
	for _, definition := range configurationFlags {
		application.configurationLoader.SetDefault(definition.environmentKey, definition.defaultValue)
		commandFlags.String(definition.flagName, definition.defaultValue, definition.usage)
	}
	application.configurationLoader.AutomaticEnv()

	for _, definition := range configurationFlags {
		if bindErr := application.bindFlag(commandFlags, definition.environmentKey, definition.flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, definition.environmentKey, definition.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}

	return nil
}

func (application *ServerApplication) loadConfiguration() (ServerConfig, error) {
	loader := application.configurationLoader
	serveMode, serveModeErr := ParseServeMode(loader.GetString(environmentKeyServeMode))
	if serveModeErr != nil {
		return ServerConfig{}, fmt.Errorf("%s: %w", invalidConfigurationMessage, serveModeErr)
	}

	serverConfig := ServerConfig{
		ApplicationAddress: strings.TrimSpace(loader.GetString(environmentKeyApplicationAddress)),
		ServeMode:          serveMode,
		InquiryAPIURL:      strings.TrimSpace(loader.GetString(environmentKeyInquiryAPIURL)),
		SessionSecret:      strings.TrimSpace(loader.GetString(environmentKeySessionSecret)),
		CSRFKey:            strings.TrimSpace(loader.GetString(environmentKeyCSRFKey)),
		SecureCookies:      loader.GetBool(environmentKeySecureCookies),
		DatabaseDriver:     strings.TrimSpace(loader.GetString(environmentKeyDatabaseDriver)),
		DatabaseDSN:        strings.TrimSpace(loader.GetString(environmentKeyDatabaseDSN)),
		JWTSecret:          strings.TrimSpace(loader.GetString(environmentKeyJWTSecret)),
		AdminUsername:      strings.TrimSpace(loader.GetString(environmentKeyAdminUsername)),
		AdminPassword:      loader.GetString(environmentKeyAdminPassword),
		ContentFile:        strings.TrimSpace(loader.GetString(environmentKeyContentFile)),
		PublicBaseURL:      strings.TrimSpace(loader.GetString(environmentKeyPublicBaseURL)),
		DisplayTimeZone:    strings.TrimSpace(loader.GetString(environmentKeyDisplayTimeZone)),
		ResendAPIKey:       strings.TrimSpace(loader.GetString(environmentKeyResendAPIKey)),
		NotifyFrom:         strings.TrimSpace(loader.GetString(environmentKeyNotifyFrom)),
		NotifyTo:           splitList(loader.GetString(environmentKeyNotifyTo)),
		RetentionDays:      loader.GetInt(environmentKeyRetentionDays),
		TrustedProxies:     splitList(loader.GetString(environmentKeyTrustedProxies)),
	}

	if serverConfig.ServeMode.CallsLocalAPI() && serverConfig.InquiryAPIURL == "" {
		serverConfig.InquiryAPIURL = localAPIBaseURL(serverConfig.ApplicationAddress)
	}

	return serverConfig, nil
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig, configurationErr := application.loadConfiguration()
	if configurationErr != nil {
		return configurationErr
	}

	if validationErr := application.ensureRequiredConfiguration(serverConfig); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	parentContext := command.Context()
	if parentContext == nil {
		parentContext = context.Background()
	}
	signalContext, stopSignals := signal.NotifyContext(parentContext, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	router := gin.New()
	if proxyErr := api.TrustForwardedFor(router, serverConfig.TrustedProxies); proxyErr != nil {
		return fmt.Errorf("%s: %w", invalidConfigurationMessage, proxyErr)
	}
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestLogger(logger))
	router.Use(httpapi.SecurityHeaders())

	// Components are built before any goroutine starts.
	var backend backendComponents
	if serverConfig.ServeMode.ServesAPI() {
		builtBackend, backendErr := application.buildBackend(serverConfig, logger)
		if backendErr != nil {
			return backendErr
		}
		backend = builtBackend
		defer func() {
			if closeErr := storage.CloseDatabase(backend.database); closeErr != nil {
				logger.Warn(logEventDatabaseCloseFailed, zap.Error(closeErr))
			}
		}()
	}

	var frontend frontendComponents
	if serverConfig.ServeMode.ServesWeb() {
		builtFrontend, frontendErr := buildFrontend(serverConfig, logger)
		if frontendErr != nil {
			return frontendErr
		}
		frontend = builtFrontend
	}

	group, groupContext := errgroup.WithContext(signalContext)

	if serverConfig.ServeMode.ServesAPI() {
		api.RegisterRoutes(router, backend.handlers)
		if backend.retentionSweep.Enabled() {
			scheduler := task.NewScheduler(task.RetentionSweepJobName, retentionSweepInterval, backend.retentionSweep.Run, logger).RunOnStart()
			group.Go(func() error {
				return scheduler.Run(groupContext)
			})
		}
	}

	if serverConfig.ServeMode.ServesWeb() {
		if serverConfig.ContentFile != "" {
			if watchErr := frontend.contentStore.Watch(groupContext); watchErr != nil {
				logger.Warn(logEventContentWatchUnavailable, zap.Error(watchErr))
			}
			defer func() {
				_ = frontend.contentStore.Close()
			}()
		}
		registerFrontendRoutes(router, frontend.routes)
	}

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	group.Go(func() error {
		logger.Info(logEventListening, zap.String(logFieldAddress, serverConfig.ApplicationAddress), zap.String(logFieldServeMode, string(serverConfig.ServeMode)))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil
	})
	group.Go(func() error {
		<-groupContext.Done()
		shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info(logEventShutdown)
		return httpServer.Shutdown(shutdownContext)
	})

	return group.Wait()
}

type backendComponents struct {
	database       *gorm.DB
	handlers       api.Handlers
	retentionSweep *task.RetentionSweep
}

func (application *ServerApplication) buildBackend(serverConfig ServerConfig, logger *zap.Logger) (backendComponents, error) {
	database, databaseErr := application.databaseOpener(storage.Config{
		DriverName:     serverConfig.DatabaseDriver,
		DataSourceName: serverConfig.DatabaseDSN,
		Logger:         logger,
	})
	if databaseErr != nil {
		return backendComponents{}, databaseErr
	}

	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		return backendComponents{}, migrateErr
	}

	if serverConfig.AdminUsername != "" && serverConfig.AdminPassword != "" {
		operator, operatorErr := storage.EnsureOperator(database, serverConfig.AdminUsername, serverConfig.AdminPassword)
		if operatorErr != nil {
			return backendComponents{}, operatorErr
		}
		logger.Info(logEventOperatorBootstrapped, zap.String("username", operator.Username))
	}

	issuer, issuerErr := api.NewTokenIssuer(serverConfig.JWTSecret, 0)
	if issuerErr != nil {
		return backendComponents{}, fmt.Errorf("%s: %w", invalidConfigurationMessage, issuerErr)
	}

	notifier, notifierErr := buildNotifier(serverConfig, logger)
	if notifierErr != nil {
		return backendComponents{}, notifierErr
	}

	inquiryStore := storage.NewInquiryStore(database)
	return backendComponents{
		database: database,
		handlers: api.Handlers{
			Issuer:         issuer,
			Auth:           api.NewAuthHandlers(database, issuer, logger),
			Inquiries:      api.NewInquiryHandlers(inquiryStore, logger),
			Public:         api.NewPublicHandlers(inquiryStore, logger, notifier),
			AllowedOrigins: allowedAPIOrigins(serverConfig),
		},
		retentionSweep: task.NewRetentionSweep(inquiryStore, logger, serverConfig.RetentionDays),
	}, nil
}

func buildNotifier(serverConfig ServerConfig, logger *zap.Logger) (notifications.InquiryNotifier, error) {
	if serverConfig.ResendAPIKey == "" {
		return notifications.NoopNotifier{}, nil
	}
	notifier, notifierErr := notifications.NewResendNotifier(logger, notifications.ResendConfig{
		APIKey:       serverConfig.ResendAPIKey,
		From:         serverConfig.NotifyFrom,
		To:           serverConfig.NotifyTo,
		DashboardURL: serverConfig.PublicBaseURL,
	})
	if notifierErr != nil {
		return nil, fmt.Errorf("%s: %w", invalidConfigurationMessage, notifierErr)
	}
	return notifier, nil
}

type frontendComponents struct {
	contentStore *content.Store
	routes       frontendRoutes
}

func buildFrontend(serverConfig ServerConfig, logger *zap.Logger) (frontendComponents, error) {
	contentStore, contentErr := content.NewStore(serverConfig.ContentFile, logger)
	if contentErr != nil {
		return frontendComponents{}, contentErr
	}

	client, clientErr := leads.NewClient(serverConfig.InquiryAPIURL, nil)
	if clientErr != nil {
		return frontendComponents{}, fmt.Errorf("%s: %w", invalidConfigurationMessage, clientErr)
	}

	authManager, authErr := httpapi.NewAuthManager(logger, httpapi.SessionConfig{
		Secret: serverConfig.SessionSecret,
		Secure: serverConfig.SecureCookies,
	})
	if authErr != nil {
		return frontendComponents{}, fmt.Errorf("%s: %w", invalidConfigurationMessage, authErr)
	}

	csrfKey, csrfKeyErr := decodeCSRFKey(serverConfig.CSRFKey)
	if csrfKeyErr != nil {
		return frontendComponents{}, fmt.Errorf("%s: %w", invalidConfigurationMessage, csrfKeyErr)
	}
	csrfMiddleware, csrfErr := httpapi.CSRFMiddleware(httpapi.CSRFConfig{
		AuthKey:        csrfKey,
		Secure:         serverConfig.SecureCookies,
		TrustedOrigins: httpapi.TrustedOriginHosts(serverConfig.PublicBaseURL),
	}, logger)
	if csrfErr != nil {
		return frontendComponents{}, fmt.Errorf("%s: %w", invalidConfigurationMessage, csrfErr)
	}

	location, locationErr := time.LoadLocation(serverConfig.DisplayTimeZone)
	if locationErr != nil {
		return frontendComponents{}, fmt.Errorf("%s: %w", invalidConfigurationMessage, locationErr)
	}

	return frontendComponents{
		contentStore: contentStore,
		routes: frontendRoutes{
			csrfMiddleware:  csrfMiddleware,
			authManager:     authManager,
			landingHandlers: httpapi.NewLandingPageHandlers(logger, contentStore, client),
			privacyHandlers: httpapi.NewPrivacyPageHandlers(logger, contentStore),
			sitemapHandlers: httpapi.NewSitemapHandlers(serverConfig.PublicBaseURL),
			adminHandlers:   httpapi.NewAdminHandlers(logger, authManager, client, location),
		},
	}, nil
}

func (application *ServerApplication) ensureRequiredConfiguration(configuration ServerConfig) error {
	var missingParameters []string

	if configuration.ServeMode.ServesWeb() {
		if configuration.InquiryAPIURL == "" {
			missingParameters = append(missingParameters, flagNameInquiryAPIURL)
		}
		if configuration.SessionSecret == "" {
			missingParameters = append(missingParameters, flagNameSessionSecret)
		}
		if configuration.CSRFKey == "" {
			missingParameters = append(missingParameters, flagNameCSRFKey)
		}
	}

	if configuration.ServeMode.ServesAPI() {
		if configuration.DatabaseDSN == "" {
			missingParameters = append(missingParameters, flagNameDatabaseDSN)
		}
		if configuration.JWTSecret == "" {
			missingParameters = append(missingParameters, flagNameJWTSecret)
		}
	}

	if len(missingParameters) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
}

func decodeCSRFKey(encoded string) ([]byte, error) {
	key, decodeErr := hex.DecodeString(encoded)
	if decodeErr != nil || len(key) != csrfKeyLength {
		return nil, errInvalidCSRFKey
	}
	return key, nil
}

// localAPIBaseURL points the web tier at the API served by the same process.
func localAPIBaseURL(applicationAddress string) string {
	host, port, splitErr := net.SplitHostPort(applicationAddress)
	if splitErr != nil {
		return ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = loopbackHost
	}
	return "http://" + net.JoinHostPort(host, port)
}

func allowedAPIOrigins(serverConfig ServerConfig) []string {
	if !serverConfig.ServeMode.ServesWeb() {
		return nil
	}
	origin := strings.TrimRight(serverConfig.PublicBaseURL, "/")
	if origin == "" {
		return nil
	}
	return []string{origin}
}

func splitList(raw string) []string {
	var values []string
	for _, value := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func main() {
	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
