package ravenserver

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/giantswarm/ravenembed/internal/fileutil"
	"github.com/giantswarm/ravenembed/internal/sentinel"
)

// ErrServerNotFound is returned when none of the known server binary
// locations exist under the server directory.
const ErrServerNotFound = sentinel.Error("server file was not found in any of the expected locations")

const (
	defaultURL       = "http://127.0.0.1:0"
	defaultSecureURL = "https://127.0.0.1:0"
)

// serverBinaryCandidates are probed in order, relative to the server directory.
var serverBinaryCandidates = []string{
	"Raven.Server.dll",
	filepath.Join("Server", "Raven.Server.dll"),
	filepath.Join("contentFiles", "any", "any", "RavenDBServer", "Raven.Server.dll"),
}

// ResolveServerBinary returns the first server binary candidate that exists
// under dir.
func ResolveServerBinary(dir string) (string, error) {
	for _, rel := range serverBinaryCandidates {
		p := filepath.Join(dir, rel)
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", ErrServerNotFound.Errorf("searched %s for %v", dir, serverBinaryCandidates)
}

// Invocation holds the values Start derives before building the command line.
type Invocation struct {
	ServerBinary string
	// FrameworkVersion is the resolved runtime version; empty omits
	// --fx-version.
	FrameworkVersion string
	// AdminThumbprint registers the client certificate as an admin.
	AdminThumbprint string
	ParentPID       int
}

// ServerURL returns the configured URL, or an ephemeral loopback URL whose
// scheme follows whether security is enabled.
func ServerURL(cfg Config) string {
	switch {
	case cfg.ServerURL != "":
		return cfg.ServerURL
	case cfg.Security != nil:
		return defaultSecureURL
	default:
		return defaultURL
	}
}

// BuildArgs returns the full argv for the runtime host, argv[0] included:
//
//	dotnet [--fx-version V] server.dll [extra...] settings... [security...] --ServerUrl=U
func BuildArgs(cfg Config, inv Invocation) []string {
	pid := inv.ParentPID
	if pid == 0 {
		pid = os.Getpid()
	}

	var runtime []string
	if inv.FrameworkVersion != "" {
		runtime = []string{"--fx-version", inv.FrameworkVersion}
	}

	settings := []string{
		"--Embedded.ParentProcessId=" + strconv.Itoa(pid),
		"--License.Eula.Accepted=" + strconv.FormatBool(cfg.AcceptEULA),
		"--Setup.Mode=None",
		"--DataDir=" + cfg.DataDir,
		"--Logs.Path=" + cfg.LogsDir,
	}

	return slices.Concat(
		[]string{cfg.DotNetPath},
		runtime,
		[]string{inv.ServerBinary},
		cfg.ExtraArgs,
		settings,
		securityArgs(cfg.Security, inv.AdminThumbprint),
		[]string{"--ServerUrl=" + ServerURL(cfg)},
	)
}

func securityArgs(sec *SecurityConfig, adminThumbprint string) []string {
	if sec == nil {
		return nil
	}

	var args []string
	switch {
	case sec.CertificatePath != "":
		args = append(args, "--Security.Certificate.Path="+sec.CertificatePath)
		if sec.CertificatePassword != "" {
			args = append(args, "--Security.Certificate.Password="+sec.CertificatePassword)
		}
	case sec.CertificateExec != "":
		args = append(args,
			"--Security.Certificate.Exec="+sec.CertificateExec,
			"--Security.Certificate.Exec.Arguments="+sec.CertificateExecArgs,
		)
	}
	if adminThumbprint != "" {
		args = append(args, "--Security.WellKnownCertificates.Admin="+adminThumbprint)
	}
	return args
}
