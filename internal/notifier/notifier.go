// Package notifier delivers device notifications as desktop notifications.
package notifier

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"devdisplay/internal/display"
)

// ErrUnsupportedPlatform is returned on operating systems without a known
// notification helper.
var ErrUnsupportedPlatform = errors.New("desktop notifications not supported")

// Desktop shows each notification through the operating system's
// notification service. The device identifier becomes the title.
//
// Display waits for the helper process to exit, not for the user to dismiss
// the notification.
type Desktop struct {
	appName string
	goos    string
	run     func(*exec.Cmd) error
}

// New creates a Desktop notifier for the current platform.
func New(appName string) *Desktop {
	if appName == "" {
		appName = "devdisplay"
	}
	return &Desktop{
		appName: appName,
		goos:    runtime.GOOS,
		run:     (*exec.Cmd).Run,
	}
}

// Display implements display.Sink.
func (d *Desktop) Display(n display.Notification) error {
	cmd, err := d.command(title(n), n.Message)
	if err != nil {
		return err
	}
	if err := d.run(cmd); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

func title(n display.Notification) string {
	if n.DeviceID == "" {
		return "device"
	}
	return "device " + n.DeviceID
}

func (d *Desktop) command(title, message string) (*exec.Cmd, error) {
	switch d.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("notify-send", "--app-name", d.appName, "--", title, message), nil
	case "darwin":
		script := fmt.Sprintf(`display notification %s with title %s`, appleScriptQuote(message), appleScriptQuote(title))
		return exec.Command("osascript", "-e", script), nil
	case "windows":
		return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", balloonScript(title, message)), nil
	default:
		return nil, fmt.Errorf("%w on %s", ErrUnsupportedPlatform, d.goos)
	}
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// balloonScript shows a tray balloon tip; works without WinRT.
func balloonScript(title, message string) string {
	return `Add-Type -AssemblyName System.Windows.Forms;` +
		`$n = New-Object System.Windows.Forms.NotifyIcon;` +
		`$n.Icon = [System.Drawing.SystemIcons]::Information;` +
		`$n.BalloonTipTitle = ` + powerShellQuote(title) + `;` +
		`$n.BalloonTipText = ` + powerShellQuote(message) + `;` +
		`$n.Visible = $true;` +
		`$n.ShowBalloonTip(5000);` +
		`Start-Sleep -Milliseconds 5100;` +
		`$n.Dispose()`
}

func powerShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
