package core

// Logger is implemented by services/logger.
// args may contain errors, map[string]interface{} extras and one LogPerson identifying the caller.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogPerson identifies the signed-in user attached to a log entry.
type LogPerson struct {
	ID    string
	Name  string
	Email string
}
