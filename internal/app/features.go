package app

import (
	"runtime"

	"github.com/hermes-app/hermes/internal/config"
)

type Platform string

const (
	Desktop Platform = config.PlatformDesktop
	Mobile  Platform = config.PlatformMobile
)

// Features are the two switches gating optional behavior. Platform gates the
// window setup, scheme registration and the sidecar; DebugTools gates the
// inspector toggle.
type Features struct {
	Platform   Platform
	DebugTools bool
}

func (f Features) Desktop() bool { return f.Platform == Desktop }

// DevtoolsCompiled reports whether the build carries the devtools tag.
func DevtoolsCompiled() bool { return devtoolsCompiled }

// PlatformFor maps GOOS to a platform.
func PlatformFor(goos string) Platform {
	switch goos {
	case "android", "ios":
		return Mobile
	default:
		return Desktop
	}
}

// ResolveFeatures combines the build with configuration. Config may pin the
// platform and may disable debug tools, but cannot enable tooling the build
// does not contain.
func ResolveFeatures(platform, debugTools string) Features {
	f := Features{Platform: PlatformFor(runtime.GOOS), DebugTools: devtoolsCompiled}
	switch platform {
	case config.PlatformDesktop:
		f.Platform = Desktop
	case config.PlatformMobile:
		f.Platform = Mobile
	}
	if debugTools == config.DebugToolsDisabled {
		f.DebugTools = false
	}
	return f
}
