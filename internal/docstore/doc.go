// Package docstore is a minimal HTTP client for a RavenDB server: it checks
// that the server answers, creates databases and releases its connections on
// Close. It is the default document-store client used when no other client
// factory is configured.
package docstore
