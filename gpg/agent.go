package gpg

import (
	"strings"

	"github.com/effective-security/xlog"
	"github.com/shirou/gopsutil/v4/process"
)

// agentNames are the GnuPG daemons that may outlive a private home.
var agentNames = []string{
	"gpg-agent",
	"dirmngr",
	"keyboxd",
	"scdaemon",
}

// sweepAgents terminates gpg daemons bound to the given home directory.
// Used as a fallback when gpgconf is not installed. Best effort: processes
// that cannot be inspected or terminated are logged and skipped.
func sweepAgents(home string) {
	procs, err := process.Processes()
	if err != nil {
		logger.KV(xlog.WARNING, "reason", "list_processes", "err", err.Error())
		return
	}

	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		cmdline, _ := p.CmdlineSlice()
		environ, _ := p.Environ()

		if !agentMatches(home, name, cmdline, environ) {
			continue
		}

		logger.KV(xlog.DEBUG, "action", "terminate_agent", "pid", p.Pid, "name", name)
		if err := p.Terminate(); err != nil {
			logger.KV(xlog.WARNING, "reason", "terminate_agent", "pid", p.Pid, "name", name, "err", err.Error())
		}
	}
}

// agentMatches reports whether a process is a gpg daemon bound to the home
// directory, either via a command line argument or its GNUPGHOME.
func agentMatches(home, name string, cmdline, environ []string) bool {
	known := false
	for _, n := range agentNames {
		if name == n {
			known = true
			break
		}
	}
	if !known {
		return false
	}

	for _, arg := range cmdline {
		if strings.Contains(arg, home) {
			return true
		}
	}
	for _, kv := range environ {
		if kv == "GNUPGHOME="+home {
			return true
		}
	}
	return false
}
