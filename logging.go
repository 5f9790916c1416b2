package grove

// LogFunc matches the logging hook the teacher's store package accepts;
// callers may plug in whatever logger they already use. A nil LogFunc is
// replaced with a no-op at construction time, matching GroveOpts/
// ForestOpts' documented "defaults to a no-op" contract.
type LogFunc func(format string, v ...interface{})

func noopLogFunc(string, ...interface{}) {}

func resolveLogFunc(f LogFunc) LogFunc {
	if f == nil {
		return noopLogFunc
	}
	return f
}
