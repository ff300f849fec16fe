package feed

import (
	"time"

	"github.com/vnykmshr/streambody/pkg/streaming/body"
)

// Ticker returns a producer that writes format(now) once per invocation.
// Pace it with body.WithLoopSchedule or body.WithLoopInterval. A nil
// format writes an RFC 3339 timestamp followed by a newline.
func Ticker(format func(time.Time) string) body.Producer {
	if format == nil {
		format = func(t time.Time) string {
			return t.Format(time.RFC3339) + "\n"
		}
	}
	return func(sink body.Sink) error {
		_, err := sink.WriteString(format(time.Now()))
		return err
	}
}
