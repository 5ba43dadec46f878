package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	serveModeMonolith       = "monolith"
	serveModeWeb            = "web"
	serveModeAPI            = "api"
	defaultApplicationPort  = "8080"
	sessionSecretMinLength  = 32
	jwtSecretMinLength      = 16
	csrfKeyHexLength        = 64
	environmentServeMode    = "SERVE_MODE"
	environmentAppAddress   = "APP_ADDR"
	environmentInquiryAPI   = "INQUIRY_API_URL"
	environmentSession      = "SESSION_SECRET"
	environmentCSRFKey      = "CSRF_KEY"
	environmentSecure       = "SECURE_COOKIES"
	environmentDatabaseDSN  = "DB_DSN"
	environmentJWTSecret    = "JWT_SECRET"
	environmentRetention    = "RETENTION_DAYS"
	environmentResendAPIKey = "RESEND_API_KEY"
	environmentNotifyFrom   = "NOTIFY_FROM"
	environmentNotifyTo     = "NOTIFY_TO"
	environmentAdminUser    = "ADMIN_USERNAME"
	environmentAdminPass    = "ADMIN_PASSWORD"
	environmentPublicURL    = "PUBLIC_BASE_URL"
)

var errAuditFailed = errors.New("config_audit_failed")

var requiredEnvironmentByMode = map[string][]string{
	serveModeMonolith: {environmentSession, environmentCSRFKey, environmentJWTSecret},
	serveModeWeb:      {environmentInquiryAPI, environmentSession, environmentCSRFKey},
	serveModeAPI:      {environmentDatabaseDSN, environmentJWTSecret},
}

type stringList []string

func (list *stringList) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*list = nil
		return nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		value := strings.TrimSpace(node.Value)
		if value == "" {
			*list = nil
			return nil
		}
		*list = []string{value}
		return nil
	case yaml.SequenceNode:
		entries := make([]string, 0, len(node.Content))
		for _, child := range node.Content {
			if child == nil {
				continue
			}
			value := strings.TrimSpace(child.Value)
			if value == "" {
				continue
			}
			entries = append(entries, value)
		}
		*list = entries
		return nil
	default:
		return fmt.Errorf("unsupported yaml node kind %d for list", node.Kind)
	}
}

type environmentMap map[string]string

func (environment *environmentMap) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*environment = nil
		return nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		decoded := make(map[string]string)
		if err := node.Decode(&decoded); err != nil {
			return err
		}
		normalized := make(map[string]string, len(decoded))
		for key, value := range decoded {
			normalized[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		*environment = normalized
		return nil
	case yaml.SequenceNode:
		normalized := make(map[string]string, len(node.Content))
		for _, child := range node.Content {
			key, value, _ := strings.Cut(strings.TrimSpace(child.Value), "=")
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			normalized[key] = strings.TrimSpace(value)
		}
		*environment = normalized
		return nil
	default:
		return fmt.Errorf("unsupported yaml node kind %d for environment", node.Kind)
	}
}

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	EnvFile     stringList     `yaml:"env_file"`
	Environment environmentMap `yaml:"environment"`
	Ports       stringList     `yaml:"ports"`
	Image       string         `yaml:"image"`
	OtherKeys   map[string]any `yaml:",inline"`
}

// siteService is a compose service running the solarsite server in one serve mode.
type siteService struct {
	name        string
	mode        string
	environment map[string]string
}

func (service siteService) servesAPI() bool {
	return service.mode == serveModeMonolith || service.mode == serveModeAPI
}

type auditResult struct {
	errors   []string
	warnings []string
}

func (result *auditResult) addError(message string, arguments ...any) {
	result.errors = append(result.errors, fmt.Sprintf(message, arguments...))
}

func (result *auditResult) addWarning(message string, arguments ...any) {
	result.warnings = append(result.warnings, fmt.Sprintf(message, arguments...))
}

func (result auditResult) ok() bool {
	return len(result.errors) == 0
}

func main() {
	composePath := flag.String("compose", "docker-compose.yml", "compose file describing the deployment")
	flag.Parse()

	result := runAudit(*composePath)
	if !report(result, os.Stdout, os.Stderr) {
		os.Exit(1)
	}
}

func report(result auditResult, stdout io.Writer, stderr io.Writer) bool {
	sort.Strings(result.errors)
	sort.Strings(result.warnings)

	for _, warning := range result.warnings {
		_, _ = fmt.Fprintf(stdout, "WARN: %s\n", warning)
	}
	for _, errorMessage := range result.errors {
		_, _ = fmt.Fprintf(stderr, "ERROR: %s\n", errorMessage)
	}
	if !result.ok() {
		_, _ = fmt.Fprintf(stderr, "config-audit failed\n")
		return false
	}
	_, _ = fmt.Fprintf(stdout, "config-audit OK\n")
	return true
}

func runAudit(composePath string) auditResult {
	var result auditResult

	composeDocument, readErr := os.ReadFile(composePath)
	if readErr != nil {
		result.addError("read compose file %s: %v", composePath, readErr)
		return result
	}

	var compose composeFile
	if decodeErr := yaml.Unmarshal(composeDocument, &compose); decodeErr != nil {
		result.addError("parse compose file %s: %v", composePath, decodeErr)
		return result
	}
	if len(compose.Services) == 0 {
		result.addError("compose file %s: no services defined", composePath)
		return result
	}

	composeDirectory := filepath.Dir(composePath)
	hostPortToService := make(map[string]string)
	services := make([]siteService, 0, len(compose.Services))

	serviceNames := make([]string, 0, len(compose.Services))
	for serviceName := range compose.Services {
		serviceNames = append(serviceNames, serviceName)
	}
	sort.Strings(serviceNames)

	for _, serviceName := range serviceNames {
		service := compose.Services[serviceName]
		checkHostPortCollisions(serviceName, service.Ports, hostPortToService, &result)

		env, envErr := loadServiceEnvironment(composeDirectory, serviceName, service.EnvFile, service.Environment, &result)
		if envErr != nil {
			result.addError("service %s: %v", serviceName, envErr)
			continue
		}
		rawMode, runsSite := env[environmentServeMode]
		if !runsSite {
			continue
		}
		mode := strings.ToLower(strings.TrimSpace(rawMode))
		if mode == "" {
			mode = serveModeMonolith
		}
		if _, known := requiredEnvironmentByMode[mode]; !known {
			result.addError("service %s: unsupported %s %q", serviceName, environmentServeMode, rawMode)
			continue
		}
		services = append(services, siteService{name: serviceName, mode: mode, environment: env})
	}

	if len(services) == 0 {
		result.addError("compose file %s: no service sets %s", composePath, environmentServeMode)
		return result
	}

	for _, service := range services {
		checkRequiredEnvironment(service, &result)
		checkSecretFormats(service, &result)
		checkNotificationSettings(service, &result)
	}
	checkInquiryAPIReachable(services, &result)
	checkSharedWebSecrets(services, &result)

	return result
}

func loadServiceEnvironment(composeDirectory string, serviceName string, envFiles []string, environment environmentMap, result *auditResult) (map[string]string, error) {
	merged := make(map[string]string)

	for _, envFile := range envFiles {
		resolvedPath := filepath.Clean(filepath.Join(composeDirectory, envFile))
		if _, statErr := os.Stat(resolvedPath); statErr != nil {
			result.addError("service %s: env_file %s is missing (%v)", serviceName, envFile, statErr)
			continue
		}
		values, duplicates, parseErr := parseDotEnv(resolvedPath)
		if parseErr != nil {
			return nil, fmt.Errorf("parse env_file %s: %w", envFile, parseErr)
		}
		for _, duplicate := range duplicates {
			result.addError("service %s: env_file %s defines %s more than once", serviceName, envFile, duplicate)
		}
		for key, value := range values {
			merged[key] = value
		}
	}

	for key, value := range environment {
		if strings.TrimSpace(key) == "" {
			continue
		}
		merged[key] = value
	}

	if len(merged) == 0 && len(envFiles) > 0 {
		return nil, fmt.Errorf("%w: no environment variables resolved", errAuditFailed)
	}

	return merged, nil
}

func parseDotEnv(path string) (map[string]string, []string, error) {
	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, nil, openErr
	}
	defer func() { _ = file.Close() }()

	entries := make(map[string]string)
	seen := make(map[string]struct{})
	var duplicates []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, already := seen[key]; already {
			duplicates = append(duplicates, key)
		}
		seen[key] = struct{}{}
		entries[key] = value
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, nil, scanErr
	}

	return entries, uniqueStrings(duplicates), nil
}

func uniqueStrings(values []string) []string {
	if len(values) == 0 {
		return values
	}
	sort.Strings(values)
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if len(unique) == 0 || unique[len(unique)-1] != value {
			unique = append(unique, value)
		}
	}
	return unique
}

func checkHostPortCollisions(serviceName string, ports []string, hostPortToService map[string]string, result *auditResult) {
	for _, mapping := range ports {
		hostPort, ok := parseHostPort(strings.TrimSpace(mapping))
		if !ok {
			continue
		}
		if existingService, already := hostPortToService[hostPort]; already {
			result.addError("compose: host port %s is published by both %s and %s", hostPort, existingService, serviceName)
		} else {
			hostPortToService[hostPort] = serviceName
		}
	}
}

func parseHostPort(portMapping string) (string, bool) {
	trimmed := strings.Trim(portMapping, `"`)
	parts := strings.Split(trimmed, ":")
	if len(parts) < 2 {
		return "", false
	}
	hostPort := strings.TrimSpace(parts[len(parts)-2])
	if _, convertErr := strconv.Atoi(hostPort); convertErr != nil {
		return "", false
	}
	return hostPort, true
}

func checkRequiredEnvironment(service siteService, result *auditResult) {
	for _, key := range requiredEnvironmentByMode[service.mode] {
		if strings.TrimSpace(service.environment[key]) == "" {
			result.addError("service %s (%s): required env %s is missing or empty", service.name, service.mode, key)
		}
	}
	if service.servesAPI() {
		username := strings.TrimSpace(service.environment[environmentAdminUser])
		password := strings.TrimSpace(service.environment[environmentAdminPass])
		if (username == "") != (password == "") {
			result.addError("service %s: %s and %s must be set together", service.name, environmentAdminUser, environmentAdminPass)
		}
	}
}

func checkSecretFormats(service siteService, result *auditResult) {
	if sessionSecret := service.environment[environmentSession]; sessionSecret != "" && len(sessionSecret) < sessionSecretMinLength {
		result.addError("service %s: %s must be at least %d characters", service.name, environmentSession, sessionSecretMinLength)
	}
	if csrfKey := service.environment[environmentCSRFKey]; csrfKey != "" {
		decoded, decodeErr := hex.DecodeString(csrfKey)
		if decodeErr != nil || len(csrfKey) != csrfKeyHexLength || len(decoded) != csrfKeyHexLength/2 {
			result.addError("service %s: %s must be %d hex characters", service.name, environmentCSRFKey, csrfKeyHexLength)
		}
	}
	if jwtSecret := service.environment[environmentJWTSecret]; jwtSecret != "" && len(jwtSecret) < jwtSecretMinLength {
		result.addError("service %s: %s must be at least %d characters", service.name, environmentJWTSecret, jwtSecretMinLength)
	}
	if rawRetention, present := service.environment[environmentRetention]; present && strings.TrimSpace(rawRetention) != "" {
		if days, convertErr := strconv.Atoi(strings.TrimSpace(rawRetention)); convertErr != nil || days < 0 {
			result.addError("service %s: %s must be a non-negative integer", service.name, environmentRetention)
		}
	}
	if rawSecure, present := service.environment[environmentSecure]; present && strings.TrimSpace(rawSecure) != "" {
		secure, parseErr := strconv.ParseBool(strings.TrimSpace(rawSecure))
		if parseErr != nil {
			result.addError("service %s: %s must be true or false", service.name, environmentSecure)
		} else if !secure && strings.HasPrefix(service.environment[environmentPublicURL], "https://") {
			result.addWarning("service %s: %s is https but %s is false", service.name, environmentPublicURL, environmentSecure)
		}
	}
}

func checkNotificationSettings(service siteService, result *auditResult) {
	if !service.servesAPI() || strings.TrimSpace(service.environment[environmentResendAPIKey]) == "" {
		return
	}
	for _, key := range []string{environmentNotifyFrom, environmentNotifyTo} {
		if strings.TrimSpace(service.environment[key]) == "" {
			result.addWarning("service %s: %s is set but %s is empty, new lead emails are disabled", service.name, environmentResendAPIKey, key)
		}
	}
}

// checkInquiryAPIReachable verifies that web services point at an api service by compose name and container port.
func checkInquiryAPIReachable(services []siteService, result *auditResult) {
	apiServicesByName := make(map[string]siteService)
	for _, service := range services {
		if service.servesAPI() {
			apiServicesByName[service.name] = service
		}
	}

	for _, service := range services {
		if service.mode != serveModeWeb {
			continue
		}
		rawURL := strings.TrimSpace(service.environment[environmentInquiryAPI])
		if rawURL == "" {
			continue
		}
		parsedURL, parseErr := url.Parse(rawURL)
		if parseErr != nil || parsedURL.Host == "" {
			result.addError("service %s: %s %q is not an absolute URL", service.name, environmentInquiryAPI, rawURL)
			continue
		}
		target, composeTarget := apiServicesByName[parsedURL.Hostname()]
		if !composeTarget {
			if len(apiServicesByName) > 0 {
				result.addWarning("service %s: %s points outside this compose file (%s)", service.name, environmentInquiryAPI, parsedURL.Host)
			}
			continue
		}
		expectedPort := listenPort(target.environment[environmentAppAddress])
		actualPort := parsedURL.Port()
		if actualPort == "" {
			actualPort = defaultPortForScheme(parsedURL.Scheme)
		}
		if actualPort != expectedPort {
			result.addError("service %s: %s uses port %s but %s listens on %s", service.name, environmentInquiryAPI, actualPort, target.name, expectedPort)
		}
	}
}

// checkSharedWebSecrets requires web replicas to share the cookie and CSRF keys.
func checkSharedWebSecrets(services []siteService, result *auditResult) {
	var reference *siteService
	for index := range services {
		service := services[index]
		if service.mode == serveModeAPI {
			continue
		}
		if reference == nil {
			reference = &services[index]
			continue
		}
		for _, key := range []string{environmentSession, environmentCSRFKey} {
			if service.environment[key] != reference.environment[key] {
				result.addError("invariant check failed: %s.%s must match %s.%s", service.name, key, reference.name, key)
			}
		}
	}
}

func listenPort(address string) string {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return defaultApplicationPort
	}
	_, port, splitErr := net.SplitHostPort(trimmed)
	if splitErr != nil || port == "" {
		return defaultApplicationPort
	}
	return port
}

func defaultPortForScheme(scheme string) string {
	if strings.EqualFold(scheme, "https") {
		return "443"
	}
	return "80"
}
