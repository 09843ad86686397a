// Package provider materializes RavenDB server files into a target directory.
//
// Zip extracts an archive, Copy copies an unpacked distribution and External
// picks one of the two from what a location holds. Lock serializes providers
// across processes that share a target directory.
package provider
