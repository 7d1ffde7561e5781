package parser

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("pkg", "parser")

// SetLogger replaces the entry transitions are traced to. Tracing happens at
// logrus.TraceLevel only.
func SetLogger(entry *logrus.Entry) {
	logger = entry
}

func traceTransition(machine string, r rune, from, to fmt.Stringer) {
	if !logger.Logger.IsLevelEnabled(logrus.TraceLevel) {
		return
	}
	logger.WithFields(logrus.Fields{
		"machine": machine,
		"rune":    string(r),
		"from":    from.String(),
		"to":      to.String(),
	}).Trace("transition")
}
