// Package ravenembed runs a RavenDB server as a child process of a Go program
// and hands out document stores bound to the databases it hosts.
//
// The server is started at most once per Server, however many goroutines ask
// for it. Each database's document store is likewise opened at most once and
// shared by every caller until it is closed.
//
// # Basic Usage
//
//	import "github.com/giantswarm/ravenembed"
//
//	ctx := context.Background()
//
//	files, err := ravenembed.ExternalServerProvider("/opt/ravendb/RavenDB.zip")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv := ravenembed.NewServer(ravenembed.WithProvider(files))
//	defer srv.Close()
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	store, err := srv.DocumentStore(ctx, "Orders")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Use store...
//
// # Runtime Version
//
// The server runs on the .NET runtime found at WithDotNetPath. The version
// passed to WithFrameworkVersion may contain wildcards ("8.0.x") or an
// at-least patch ("7.0.15+"); it is matched against the runtimes reported by
// "dotnet --info" and the highest matching one is used.
//
// # Shutdown
//
// Close closes every document store, then asks the server to shut down on
// its standard input and kills it if it has not exited within the shutdown
// timeout. The same happens when this process receives SIGINT or SIGTERM,
// unless WithExitHook(false) is set.
package ravenembed
