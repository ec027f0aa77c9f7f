package app

import (
	"runtime"
	"testing"
)

func TestPlatformFor(t *testing.T) {
	cases := map[string]Platform{
		"linux":   Desktop,
		"darwin":  Desktop,
		"windows": Desktop,
		"android": Mobile,
		"ios":     Mobile,
	}
	for goos, want := range cases {
		if got := PlatformFor(goos); got != want {
			t.Errorf("PlatformFor(%q) = %q, want %q", goos, got, want)
		}
	}
}

func TestResolveFeatures(t *testing.T) {
	f := ResolveFeatures("", "")
	if f.Platform != PlatformFor(runtime.GOOS) {
		t.Fatalf("default platform = %q", f.Platform)
	}
	if f.DebugTools != DevtoolsCompiled() {
		t.Fatalf("default debug tools = %v, build has %v", f.DebugTools, DevtoolsCompiled())
	}

	if f := ResolveFeatures("mobile", ""); f.Desktop() {
		t.Fatal("platform override ignored")
	}
	if f := ResolveFeatures("", "disabled"); f.DebugTools {
		t.Fatal("config must be able to disable debug tools")
	}
	if f := ResolveFeatures("", "enabled"); f.DebugTools != DevtoolsCompiled() {
		t.Fatal("config must not enable debug tools missing from the build")
	}
}
