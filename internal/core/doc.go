// Package core provides the internal implementation of the ravenembed
// library. It contains the Server, which owns one RavenDB server process
// started lazily at most once, and the per-database document stores it hands
// out, each created at most once per database name and forgotten again when
// the caller closes it.
package core
