package monitor

import (
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/rule"
)

// LogObserver writes every mutation outcome at debug level. Stage timings
// are skipped; they are too frequent to be useful as log lines.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver logs mutations at debug level under the "rule" logger name.
func NewLogObserver(log *zap.Logger) *LogObserver {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogObserver{log: log.Named("rule")}
}

func (o *LogObserver) StageDone(rule.Stage, time.Duration) {}

func (o *LogObserver) Updated(kind rule.OpKind, status rule.Status) {
	if ce := o.log.Check(zap.DebugLevel, "mutation"); ce != nil {
		ce.Write(zap.Stringer("op", kind), zap.Stringer("status", status))
	}
}
