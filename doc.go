// Package backend provides the Screams API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/repository: Document store over gorm, publishes change events after commit
// - internal/events: Change-event buses (inline, in-process, Redis stream, SQS)
// - internal/triggers: Reactive triggers (notifications, author propagation, cascade)
// - internal/auth: Identity provider (signup, login, ID tokens, action links)
// - internal/middleware: HTTP middleware (Auth Gate, rate limiting, metrics, tracing)
// - internal/storage: Profile image storage (S3)
// - internal/email: Verification and password reset mail (SES)
// - internal/database: Database connection and migrations
// - internal/container: Dependency wiring for the server, workers and tools
// - internal/seed: Development and test fixtures

// See the individual package documentation for detailed API reference.
package backend
