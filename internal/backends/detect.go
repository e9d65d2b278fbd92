package backends

import "scrivo/internal/inject"

// DetectOptions tune which optional methods detection may register.
type DetectOptions struct {
	// AllowYdotool permits the ydotool paste dispatcher on desktops
	// without a compositor-native shortcut path.
	AllowYdotool bool
	// AllowNoOp registers the no-op sink, for dry runs.
	AllowNoOp bool
	// PasteShortcut overrides the hyprctl sendshortcut spec.
	PasteShortcut string
}

func methodNamesOf(injectors []inject.Injector) []string {
	names := make([]string, 0, len(injectors))
	for _, inj := range injectors {
		names = append(names, inj.Method().String())
	}
	return names
}
