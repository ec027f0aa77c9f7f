//go:build darwin

package deeplink

// On macOS schemes are declared in the bundle's Info.plist
// (CFBundleURLTypes); there is nothing to do at runtime.
func DefaultRegistrar() Registrar {
	return RegistrarFunc(func(string, string) error { return nil })
}
