// Package fxversion resolves .NET runtime version specifications against the
// runtimes installed on the host.
//
// A specification has the form major.minor.patch[-suffix] where any numeric
// component may be the wildcard "x" and the patch component may carry the
// at-least marker "+" (for example "8.0.x", "7.0.15+", "x" or
// "5.0.x-rc.2.20475.17"). Resolve picks the highest installed runtime that
// satisfies the specification by scanning "dotnet --info" output.
package fxversion
