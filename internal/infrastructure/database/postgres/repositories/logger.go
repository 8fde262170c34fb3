package repositories

// Logger is the minimal logging contract required by repository
// implementations. It is satisfied by the platform's monitoring/logging
// adapters and by most structured-logging libraries.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

//Personal.AI order the ending
