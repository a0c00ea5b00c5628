package shared

const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
	ExitAborted     = 3
)
