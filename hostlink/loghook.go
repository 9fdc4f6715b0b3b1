package hostlink

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// LogHook forwards log entries to the host as Log messages
type LogHook struct {
	link   *Link
	levels []logrus.Level
}

// NewLogHook forwards entries at min or more severe
func NewLogHook(l *Link, min logrus.Level) *LogHook {
	return &LogHook{link: l, levels: logrus.AllLevels[:min+1]}
}

func (h *LogHook) Levels() []logrus.Level {
	return h.levels
}

func (h *LogHook) Fire(e *logrus.Entry) error {
	line := e.Message
	if cat, ok := e.Data["cat"]; ok {
		line = fmt.Sprintf("[%v] %s", cat, line)
	}
	h.link.QueueLog(line)
	return nil
}
