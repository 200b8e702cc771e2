package version

import (
	"context"

	"github.com/toitware/tlsp/src/tlsp/entity"
)

// ProbeFunc runs an executable once.
type ProbeFunc func(ctx context.Context, path string, args ...string) entity.ProbeResult

// Flag is a command line flag that only exists from a given tool version onward.
type Flag struct {
	Name         string
	IntroducedIn string
}

// NoAnalytics is the jag flag that disables analytics reporting for a single invocation.
var NoAnalytics = Flag{Name: "--no-analytics", IntroducedIn: "1.5.0"}

// Probe runs path with args followed by the flag.
// If that invocation fails, the command is repeated once without the flag. The result without the flag
// is only used if the tool reports a version that predates the flag; otherwise the original failure stands.
func (f Flag) Probe(ctx context.Context, probe ProbeFunc, path string, args ...string) entity.ProbeResult {
	withFlag := make([]string, 0, len(args)+1)
	withFlag = append(withFlag, args...)
	withFlag = append(withFlag, f.Name)

	res := probe(ctx, path, withFlag...)
	if res.Err == nil || !res.ExecutableExists {
		return res
	}

	fallback := probe(ctx, path, args...)
	if fallback.Err != nil {
		return res
	}

	supported, err := AtLeast(Extract(fallback.Output), f.IntroducedIn)
	if err != nil || supported {
		return res
	}
	return fallback
}
