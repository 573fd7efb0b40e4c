package platform

import "winrec/internal/infrastructure/logging"

// LogNotifier writes notifications to the log, optionally forwarding them to
// a desktop notifier as well
type LogNotifier struct {
	logger logging.Logger
	next   Notifier
}

func NewLogNotifier(logger logging.Logger, next Notifier) *LogNotifier {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &LogNotifier{logger: logger, next: next}
}

func (n *LogNotifier) Notify(title, message string) error {
	n.logger.Warn(message, "notification", title)
	if n.next == nil {
		return nil
	}
	return n.next.Notify(title, message)
}
