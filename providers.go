package ravenembed

import (
	"github.com/giantswarm/ravenembed/internal/provider"
)

// Provider materializes the server files into a target directory.
type Provider = provider.Provider

// ProviderFunc adapts a function to Provider.
type ProviderFunc = provider.Func

// ExternalServerProvider returns a provider for a server stored outside the
// program: a zip file is extracted, a directory holding Raven.Server.dll or
// Raven.Server.exe is copied. Any other location returns an error matching
// ErrInvalidServerLocation.
//
//nolint:ireturn // Returns Provider interface: the concrete type depends on location.
func ExternalServerProvider(location string) (Provider, error) {
	return provider.External(location)
}

// ZipProvider returns a provider extracting the zip file at path.
//
//nolint:ireturn // Returns Provider interface to keep the provider types internal.
func ZipProvider(path string) Provider {
	requireNonEmpty("zip path", path)
	return provider.Zip{Path: path}
}

// CopyProvider returns a provider copying the directory at dir.
//
//nolint:ireturn // Returns Provider interface to keep the provider types internal.
func CopyProvider(dir string) Provider {
	requireNonEmpty("server files directory", dir)
	return provider.Copy{Dir: dir}
}
