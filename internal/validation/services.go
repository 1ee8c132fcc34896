package validation

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/zfogg/screams/backend/internal/logger"
	"go.uber.org/zap"
)

// Check probes one dependency
type Check func(ctx context.Context) error

// ServiceValidator runs startup checks for the services marked required through
// SCREAMS_REQUIRE_<NAME> environment variables
type ServiceValidator struct {
	checks   map[string]Check
	required []string
	timeout  time.Duration
}

// NewServiceValidator creates a validator with no checks registered
func NewServiceValidator() *ServiceValidator {
	return &ServiceValidator{
		checks:  make(map[string]Check),
		timeout: 10 * time.Second,
	}
}

// Register adds a named check. Names are matched case-insensitively against the env vars.
func (sv *ServiceValidator) Register(name string, check Check) *ServiceValidator {
	sv.checks[strings.ToLower(name)] = check
	return sv
}

// Require marks a service required regardless of the environment
func (sv *ServiceValidator) Require(names ...string) *ServiceValidator {
	for _, name := range names {
		sv.required = append(sv.required, strings.ToLower(name))
	}
	return sv
}

// RequiredServices returns the services that will be validated
func (sv *ServiceValidator) RequiredServices() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range sv.required {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for name := range sv.checks {
		if !seen[name] && isTruthy(os.Getenv("SCREAMS_REQUIRE_"+strings.ToUpper(name))) {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ValidateServices runs every required check and fails on the first error
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	required := sv.RequiredServices()
	if len(required) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services", zap.Strings("services", required))

	for _, name := range required {
		check, ok := sv.checks[name]
		if !ok {
			return fmt.Errorf("required service %q has no check registered", name)
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, sv.timeout)
		err := check(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("Required service validation failed", zap.String("service", name), zap.Error(err))
			return fmt.Errorf("required service %q validation failed: %w", name, err)
		}

		logger.Log.Info("Service validated", zap.String("service", name))
	}

	return nil
}

// isTruthy checks if a string value represents a truthy value
func isTruthy(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}
