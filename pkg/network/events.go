package network

import "fmt"

// emit sends a formatted event string to the controller. It never blocks
// indefinitely longer than the event channel's buffer allows back-pressure
// to the controller, per the loop's suspension-point policy.
func (l *Loop) emit(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.events <- msg
	l.logger.Info(msg)
}

func (l *Loop) emitErr(context string, err error) {
	l.emit("%s: %v", context, err)
}
