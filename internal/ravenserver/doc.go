// Package ravenserver launches a RavenDB server under a .NET runtime host and
// supervises it.
//
// Start resolves the server binary and runtime version, spawns the host with
// a deterministic argument list, and scans the server's stdout until it
// announces the address it is listening on. A Process is shut down by
// writing the shutdown command to the server's stdin, falling back to a kill
// when the server does not exit within the graceful timeout.
package ravenserver
