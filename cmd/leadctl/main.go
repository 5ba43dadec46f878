package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/smarthomesolar/solarsite/internal/leads"
)

const (
	commandUseName                = "leadctl"
	commandShortDescription       = "Manage solar leads from the terminal"
	commandLongDescription        = "Sign in to the inquiry API and list, update, annotate, export or delete solar leads"
	commandInitializationFailure  = "failed to configure command"
	missingConfigurationMessage   = "missing required configuration"
	invalidConfigurationMessage   = "invalid configuration"
	flagNotDefinedMessage         = "flag %s not defined"
	environmentConfigurationError = "failed to apply environment configuration"
	defaultDisplayTimeZone        = "UTC"
)

const (
	flagNameAPIURL      = "api-url"
	flagNameSessionFile = "session-file"
	flagNameTimeZone    = "timezone"
	flagNameNoColor     = "no-color"
	flagNameUsername    = "username"
	flagNamePassword    = "password"
)

const (
	environmentKeyAPIURL      = "LEADCTL_API_URL"
	environmentKeySessionFile = "LEADCTL_SESSION_FILE"
	environmentKeyTimeZone    = "LEADCTL_TIMEZONE"
	environmentKeyNoColor     = "NO_COLOR"
	environmentKeyUsername    = "LEADCTL_USERNAME"
	environmentKeyPassword    = "LEADCTL_PASSWORD"
)

var (
	errNotLoggedIn    = errors.New("not logged in; run leadctl login")
	errSessionExpired = errors.New("session expired; run leadctl login")
)

type configurationFlag struct {
	environmentKey string
	flagName       string
	defaultValue   string
	usage          string
}

var globalConfigurationFlags = []configurationFlag{
	{environmentKeyAPIURL, flagNameAPIURL, "", "base URL of the inquiry API"},
	{environmentKeySessionFile, flagNameSessionFile, "", "file holding the saved operator session (defaults to the user config dir)"},
	{environmentKeyTimeZone, flagNameTimeZone, defaultDisplayTimeZone, "IANA time zone for dates"},
	{environmentKeyNoColor, flagNameNoColor, "false", "disable colored output"},
}

var loginConfigurationFlags = []configurationFlag{
	{environmentKeyUsername, flagNameUsername, "", "operator username"},
	{environmentKeyPassword, flagNamePassword, "", "operator password (prompted when empty)"},
}

// LeadsAPI is the inquiry API surface used by the CLI.
type LeadsAPI interface {
	leads.API
	Login(ctx context.Context, username string, password string) (leads.Session, error)
}

// ClientFactory builds an API client for the configured base URL.
type ClientFactory func(baseURL string) (LeadsAPI, error)

// CLIConfig captures the settings shared by every subcommand.
type CLIConfig struct {
	APIURL      string
	SessionFile string
	Location    *time.Location
	NoColor     bool
}

// LeadctlApplication constructs and executes the leadctl command tree.
type LeadctlApplication struct {
	configurationLoader *viper.Viper
	clientFactory       ClientFactory
	now                 func() time.Time
}

// NewLeadctlApplication creates a LeadctlApplication backed by the HTTP inquiry client.
func NewLeadctlApplication() *LeadctlApplication {
	return &LeadctlApplication{
		configurationLoader: viper.New(),
		clientFactory:       newHTTPLeadsAPI,
		now:                 time.Now,
	}
}

// WithClientFactory overrides how API clients are built.
func (application *LeadctlApplication) WithClientFactory(clientFactory ClientFactory) *LeadctlApplication {
	application.clientFactory = clientFactory
	return application
}

func newHTTPLeadsAPI(baseURL string) (LeadsAPI, error) {
	return leads.NewClient(baseURL, nil)
}

// Command builds the Cobra command tree.
func (application *LeadctlApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:           commandUseName,
		Short:         commandShortDescription,
		Long:          commandLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if configurationErr := application.configureFlags(rootCommand.PersistentFlags(), globalConfigurationFlags); configurationErr != nil {
		return nil, configurationErr
	}

	loginCommand := application.loginCommand()
	if configurationErr := application.configureFlags(loginCommand.Flags(), loginConfigurationFlags); configurationErr != nil {
		return nil, configurationErr
	}

	rootCommand.AddCommand(
		loginCommand,
		application.logoutCommand(),
		application.listCommand(),
		application.showCommand(),
		application.statusCommand(),
		application.noteCommand(),
		application.deleteCommand(),
		application.exportCommand(),
	)
	return rootCommand, nil
}

func (application *LeadctlApplication) configureFlags(flagSet *pflag.FlagSet, definitions []configurationFlag) error {
	for _, definition := range definitions {
		application.configurationLoader.SetDefault(definition.environmentKey, definition.defaultValue)
		flagSet.String(definition.flagName, definition.defaultValue, definition.usage)
	}
	application.configurationLoader.AutomaticEnv()

	for _, definition := range definitions {
		if bindErr := application.bindFlag(flagSet, definition.environmentKey, definition.flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(flagSet, definition.environmentKey, definition.flagName); environmentErr != nil {
			return environmentErr
		}
	}
	return nil
}

func (application *LeadctlApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}
	return application.configurationLoader.BindPFlag(environmentKey, flag)
}

func (application *LeadctlApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}
	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}
	return nil
}

func (application *LeadctlApplication) loadConfiguration() (CLIConfig, error) {
	loader := application.configurationLoader
	apiURL := strings.TrimSpace(loader.GetString(environmentKeyAPIURL))
	if apiURL == "" {
		return CLIConfig{}, fmt.Errorf("%s: %s", missingConfigurationMessage, flagNameAPIURL)
	}

	sessionFile := strings.TrimSpace(loader.GetString(environmentKeySessionFile))
	if sessionFile == "" {
		defaultPath, pathErr := leads.DefaultTokenStorePath()
		if pathErr != nil {
			return CLIConfig{}, pathErr
		}
		sessionFile = defaultPath
	}

	timeZoneName := strings.TrimSpace(loader.GetString(environmentKeyTimeZone))
	if timeZoneName == "" {
		timeZoneName = defaultDisplayTimeZone
	}
	location, locationErr := time.LoadLocation(timeZoneName)
	if locationErr != nil {
		return CLIConfig{}, fmt.Errorf("%s: %w", invalidConfigurationMessage, locationErr)
	}

	return CLIConfig{
		APIURL:      apiURL,
		SessionFile: sessionFile,
		Location:    location,
		NoColor:     loader.GetBool(environmentKeyNoColor),
	}, nil
}

// operatorSession bundles what an authenticated subcommand needs.
type operatorSession struct {
	config     CLIConfig
	api        LeadsAPI
	tokenStore *leads.TokenStore
	session    leads.Session
}

func (application *LeadctlApplication) connect() (CLIConfig, LeadsAPI, *leads.TokenStore, error) {
	config, configErr := application.loadConfiguration()
	if configErr != nil {
		return CLIConfig{}, nil, nil, configErr
	}
	api, clientErr := application.clientFactory(config.APIURL)
	if clientErr != nil {
		return CLIConfig{}, nil, nil, fmt.Errorf("%s: %w", invalidConfigurationMessage, clientErr)
	}
	tokenStore, storeErr := leads.NewTokenStore(config.SessionFile)
	if storeErr != nil {
		return CLIConfig{}, nil, nil, storeErr
	}
	return config, api, tokenStore, nil
}

func (application *LeadctlApplication) resumeSession() (operatorSession, error) {
	config, api, tokenStore, connectErr := application.connect()
	if connectErr != nil {
		return operatorSession{}, connectErr
	}
	session, loadErr := tokenStore.Load()
	if errors.Is(loadErr, leads.ErrNoSession) {
		return operatorSession{}, errNotLoggedIn
	}
	if loadErr != nil {
		return operatorSession{}, loadErr
	}
	if session.Expired(application.now()) {
		_ = tokenStore.Clear()
		return operatorSession{}, errSessionExpired
	}
	return operatorSession{config: config, api: api, tokenStore: tokenStore, session: session}, nil
}

// openService loads the collection for the saved session.
func (application *LeadctlApplication) openService(ctx context.Context) (operatorSession, *leads.Service, error) {
	operator, resumeErr := application.resumeSession()
	if resumeErr != nil {
		return operatorSession{}, nil, resumeErr
	}
	service, openErr := leads.Open(ctx, operator.api, operator.session.Token)
	if openErr != nil {
		return operatorSession{}, nil, operator.remoteFailure(openErr)
	}
	return operator, service, nil
}

// remoteFailure discards the saved token when the API rejected it.
func (operator operatorSession) remoteFailure(err error) error {
	if errors.Is(err, leads.ErrUnauthorized) {
		_ = operator.tokenStore.Clear()
		return errSessionExpired
	}
	return errors.New(leads.ErrorMessage(err))
}

func main() {
	application := NewLeadctlApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if executeErr := rootCommand.ExecuteContext(ctx); executeErr != nil {
		fmt.Fprintf(os.Stderr, "leadctl: %v\n", executeErr)
		stop()
		os.Exit(1)
	}
}
