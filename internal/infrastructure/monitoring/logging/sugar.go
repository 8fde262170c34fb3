package logging

import "fmt"

// SugarLogger adapts a Logger to the loosely-typed keysAndValues style used
// by the extraction packages. Keys at even positions, values at odd; a
// dangling key is logged with a nil value.
type SugarLogger struct {
	l Logger
}

// Sugar wraps the logger. A nil logger yields a no-op sugar logger.
func Sugar(l Logger) *SugarLogger {
	if l == nil {
		l = NewNopLogger()
	}
	return &SugarLogger{l: l}
}

func kvFields(keysAndValues []interface{}) []Field {
	fields := make([]Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		var val interface{}
		if i+1 < len(keysAndValues) {
			val = keysAndValues[i+1]
		}
		fields = append(fields, Any(key, val))
	}
	return fields
}

func (s *SugarLogger) Debug(msg string, keysAndValues ...interface{}) {
	s.l.Debug(msg, kvFields(keysAndValues)...)
}

func (s *SugarLogger) Info(msg string, keysAndValues ...interface{}) {
	s.l.Info(msg, kvFields(keysAndValues)...)
}

func (s *SugarLogger) Warn(msg string, keysAndValues ...interface{}) {
	s.l.Warn(msg, kvFields(keysAndValues)...)
}

func (s *SugarLogger) Error(msg string, keysAndValues ...interface{}) {
	s.l.Error(msg, kvFields(keysAndValues)...)
}

//Personal.AI order the ending
