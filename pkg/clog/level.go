package clog

type Level int

const (
	LevelDebug Level = iota + 1
	LevelInfo
	LevelWarn
	LevelError
)

// HTTPStatusToLevel maps an HTTP response status to a log level for the
// request log line. 499 (client closed request) is informational.
func HTTPStatusToLevel(status int) Level {
	switch {
	case status >= 100 && status < 400:
		return LevelInfo
	case status == 499:
		return LevelInfo
	case status >= 400 && status < 500:
		return LevelWarn
	case status >= 500:
		return LevelError
	default:
		return LevelError
	}
}
