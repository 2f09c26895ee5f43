// Package autostart provides auto-start on login through an XDG autostart entry.
package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const desktopEntry = `[Desktop Entry]
Type=Application
Name=dualkey
Comment=Dual-role key remapping
Exec={{.Exec}}
Terminal=false
X-GNOME-Autostart-enabled=true
`

const entryName = "dualkey.desktop"

// EntryPath returns the location of the autostart entry
func EntryPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "autostart", entryName), nil
}

// Enable enables auto-start on login. args are appended to the executable
// path on the Exec line.
func Enable(args ...string) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	return enable(execPath, args)
}

func enable(execPath string, args []string) error {
	path, err := EntryPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpl, err := template.New("desktop").Parse(desktopEntry)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fields := append([]string{execPath}, args...)
	for i, field := range fields {
		fields[i] = quoteExecArg(field)
	}
	return tmpl.Execute(f, struct{ Exec string }{strings.Join(fields, " ")})
}

// quoteExecArg quotes an Exec field per the desktop entry specification.
func quoteExecArg(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'\\><~|&;$*?#()`") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}

// Disable disables auto-start on login
func Disable() error {
	path, err := EntryPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	path, err := EntryPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
