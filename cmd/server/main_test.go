package main_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"

	servercmd "github.com/smarthomesolar/solarsite/cmd/server"
	"github.com/smarthomesolar/solarsite/internal/storage"
	"github.com/smarthomesolar/solarsite/internal/testutil"
)

const (
	testEnvironmentKeyServeMode     = "SERVE_MODE"
	testEnvironmentKeySessionSecret = "SESSION_SECRET"
	testEnvironmentKeyCSRFKey       = "CSRF_KEY"
	testEnvironmentKeyInquiryAPIURL = "INQUIRY_API_URL"
	testEnvironmentKeyJWTSecret     = "JWT_SECRET"
	testEnvironmentKeyDatabaseDSN   = "DB_DSN"
	testPlaceholderSessionSecret    = "0123456789abcdef0123456789abcdef"
	testPlaceholderCSRFKey          = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	testPlaceholderJWTSecret        = "jwt-secret-for-tests"
	testMissingConfigurationMessage = "missing required configuration"
	testInvalidConfigurationMessage = "invalid configuration"
	testFlagIndicator               = "--"
	testUsagePrefix                 = "Usage:"
)

func failingDatabaseOpener(testingT *testing.T) servercmd.DatabaseOpener {
	return func(configuration storage.Config) (*gorm.DB, error) {
		testingT.Fatalf("database opener invoked with %s", configuration.DataSourceName)
		return nil, errors.New("unexpected database open")
	}
}

func TestServerCommandMissingConfigurationShowsHelp(testingT *testing.T) {
	testCases := []struct {
		name                string
		environment         map[string]string
		expectedMissingFlag string
	}{
		{
			name: "web mode without session secret",
			environment: map[string]string{
				testEnvironmentKeyServeMode:     "web",
				testEnvironmentKeyInquiryAPIURL: "http://api.example.com",
				testEnvironmentKeySessionSecret: "",
				testEnvironmentKeyCSRFKey:       testPlaceholderCSRFKey,
			},
			expectedMissingFlag: "session-secret",
		},
		{
			name: "web mode without api url",
			environment: map[string]string{
				testEnvironmentKeyServeMode:     "web",
				testEnvironmentKeyInquiryAPIURL: "",
				testEnvironmentKeySessionSecret: testPlaceholderSessionSecret,
				testEnvironmentKeyCSRFKey:       testPlaceholderCSRFKey,
			},
			expectedMissingFlag: "inquiry-api-url",
		},
		{
			name: "monolith without csrf key",
			environment: map[string]string{
				testEnvironmentKeyServeMode:     "monolith",
				testEnvironmentKeySessionSecret: testPlaceholderSessionSecret,
				testEnvironmentKeyCSRFKey:       "",
				testEnvironmentKeyJWTSecret:     testPlaceholderJWTSecret,
			},
			expectedMissingFlag: "csrf-key",
		},
		{
			name: "api mode without jwt secret",
			environment: map[string]string{
				testEnvironmentKeyServeMode:   "api",
				testEnvironmentKeyJWTSecret:   "",
				testEnvironmentKeyDatabaseDSN: "file:solarsite.db",
			},
			expectedMissingFlag: "jwt-secret",
		},
		{
			name: "api mode without database dsn",
			environment: map[string]string{
				testEnvironmentKeyServeMode:   "api",
				testEnvironmentKeyJWTSecret:   testPlaceholderJWTSecret,
				testEnvironmentKeyDatabaseDSN: "",
			},
			expectedMissingFlag: "db-dsn",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(testingT *testing.T) {
			for key, value := range testCase.environment {
				testingT.Setenv(key, value)
			}

			application := servercmd.NewServerApplication().WithDatabaseOpener(failingDatabaseOpener(testingT))
			command, commandErr := application.Command()
			if commandErr != nil {
				testingT.Fatalf("unexpected command construction error: %v", commandErr)
			}

			commandOutput := &bytes.Buffer{}
			command.SetOut(commandOutput)
			command.SetErr(commandOutput)
			command.SetArgs([]string{})

			executionErr := command.Execute()
			if executionErr == nil {
				testingT.Fatalf("expected error for missing configuration")
			}

			combinedOutput := commandOutput.String()
			if !strings.Contains(combinedOutput, testMissingConfigurationMessage) {
				testingT.Fatalf("expected combined output to mention missing configuration: %s", combinedOutput)
			}

			if !strings.Contains(combinedOutput, testUsagePrefix) {
				testingT.Fatalf("expected combined output to include usage instructions: %s", combinedOutput)
			}

			expectedFlagIndicator := testFlagIndicator + testCase.expectedMissingFlag
			if !strings.Contains(combinedOutput, expectedFlagIndicator) {
				testingT.Fatalf("expected help output to include flag %s, actual output: %s", expectedFlagIndicator, combinedOutput)
			}
		})
	}
}

func TestServerCommandRejectsUnknownServeMode(testingT *testing.T) {
	testingT.Setenv(testEnvironmentKeyServeMode, "batch")

	application := servercmd.NewServerApplication().WithDatabaseOpener(failingDatabaseOpener(testingT))
	command, commandErr := application.Command()
	if commandErr != nil {
		testingT.Fatalf("unexpected command construction error: %v", commandErr)
	}
	commandOutput := &bytes.Buffer{}
	command.SetOut(commandOutput)
	command.SetErr(commandOutput)
	command.SetArgs([]string{})

	executionErr := command.Execute()
	if executionErr == nil {
		testingT.Fatalf("expected error for unknown serve mode")
	}
	if !errors.Is(executionErr, servercmd.ErrInvalidServeMode) {
		testingT.Fatalf("expected invalid serve mode error, got %v", executionErr)
	}
	if !strings.Contains(commandOutput.String(), testInvalidConfigurationMessage) {
		testingT.Fatalf("expected output to mention invalid configuration: %s", commandOutput.String())
	}
}

func TestServerCommandFrontendFailureLeavesNothingRunning(testingT *testing.T) {
	defer goleak.VerifyNone(testingT, goleak.IgnoreCurrent())

	testingT.Setenv(testEnvironmentKeyServeMode, "monolith")
	testingT.Setenv(testEnvironmentKeySessionSecret, testPlaceholderSessionSecret)
	testingT.Setenv(testEnvironmentKeyCSRFKey, "not-hex")
	testingT.Setenv(testEnvironmentKeyJWTSecret, testPlaceholderJWTSecret)
	testingT.Setenv("RETENTION_DAYS", "1")
	testingT.Setenv("APP_ADDR", "127.0.0.1:0")

	var opened *gorm.DB
	application := servercmd.NewServerApplication().WithDatabaseOpener(func(storage.Config) (*gorm.DB, error) {
		opened = testutil.NewMigratedDatabase(testingT)
		return opened, nil
	})
	command, commandErr := application.Command()
	require.NoError(testingT, commandErr)
	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{})

	executionErr := command.Execute()
	require.Error(testingT, executionErr)
	require.Contains(testingT, executionErr.Error(), testInvalidConfigurationMessage)

	require.NotNil(testingT, opened)
	sqlDatabase, sqlErr := opened.DB()
	require.NoError(testingT, sqlErr)
	require.Error(testingT, sqlDatabase.Ping())
}
