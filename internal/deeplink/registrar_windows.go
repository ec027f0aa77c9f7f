//go:build windows

package deeplink

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// RegistryRegistrar writes the per-user URL protocol handler under
// HKCU\Software\Classes\<scheme>.
type RegistryRegistrar struct{}

func DefaultRegistrar() Registrar { return RegistryRegistrar{} }

func (RegistryRegistrar) Register(scheme, exe string) error {
	base := `Software\Classes\` + scheme
	k, _, err := registry.CreateKey(registry.CURRENT_USER, base, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create %s: %w", base, err)
	}
	defer func() { _ = k.Close() }()
	if err := k.SetStringValue("", "URL:"+scheme+" protocol"); err != nil {
		return err
	}
	if err := k.SetStringValue("URL Protocol", ""); err != nil {
		return err
	}

	cmdKey, _, err := registry.CreateKey(registry.CURRENT_USER, base+`\shell\open\command`, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create open command key: %w", err)
	}
	defer func() { _ = cmdKey.Close() }()
	return cmdKey.SetStringValue("", fmt.Sprintf(`"%s" "%%1"`, exe))
}
