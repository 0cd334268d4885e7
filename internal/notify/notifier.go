package notify

import (
	"fyne.io/fyne/v2"

	"github.com/mediamorph/mediamorph/internal/logging"
)

// Severity classifies a user-visible notification
type Severity int

const (
	// SeverityInfo is a neutral or success notification
	SeverityInfo Severity = iota
	// SeverityError is a failure notification
	SeverityError
)

// String returns the string representation of Severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Notifier delivers short title/description notices to the user. Messages
// carry no diagnostic detail; causes are logged by the caller instead.
type Notifier interface {
	Notify(title, description string, severity Severity)
}

// FyneNotifier routes notifications to the system notification tray.
type FyneNotifier struct {
	app fyne.App
}

// NewFyneNotifier creates a Notifier backed by the Fyne app
func NewFyneNotifier(app fyne.App) *FyneNotifier {
	return &FyneNotifier{app: app}
}

// Notify sends a system notification
func (n *FyneNotifier) Notify(title, description string, severity Severity) {
	logging.Debug("Notification (%s): %s - %s", severity, title, description)
	n.app.SendNotification(&fyne.Notification{
		Title:   title,
		Content: description,
	})
}
