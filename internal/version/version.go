package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Version information for the xclower CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Info is the machine-readable build identity.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

func Current() Info {
	return Info{Version: Version, GitCommit: GitCommit, GitMessage: GitMessage, BuildDate: BuildDate}
}

// Colored paints the major, minor and patch numbers; anything after the
// patch number is kept as is. color.NoColor disables the paint.
func Colored(v string) string {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 {
		return v
	}
	patch, rest := parts[2], ""
	if i := strings.IndexAny(patch, "-+"); i >= 0 {
		patch, rest = patch[:i], patch[i:]
	}
	return versionMajorColor.Sprint(parts[0]) + "." + versionMinorColor.Sprint(parts[1]) + "." + versionPatchColor.Sprint(patch) + rest
}

// Describe renders the identity for `xclower version`.
func Describe(i Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "xclower %s\n", Colored(i.Version))
	if i.GitCommit != "" {
		commit := i.GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		fmt.Fprintf(&b, "commit %s", commit)
		if i.GitMessage != "" {
			fmt.Fprintf(&b, " %s", strings.SplitN(i.GitMessage, "\n", 2)[0])
		}
		b.WriteString("\n")
	}
	if i.BuildDate != "" {
		fmt.Fprintf(&b, "built %s\n", i.BuildDate)
	}
	return b.String()
}
