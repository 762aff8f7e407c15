package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	ExtractError    = 4
	WriteError      = 5
	PartialSuccess  = 6
)
