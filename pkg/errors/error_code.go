package errors

const (
	RequestParameterInvalid int = 4001
	RequestDataNotExisted   int = 4004
	InvalidOperation        int = 4016

	InternalError     int = 5000
	InvalidDataError  int = 5001
	CodeDatabaseError int = 5002

	CodeMetricsSourceError int = 6001
	CodeChannelError       int = 6002

	CodeInitializeError int = 7001
	CodeLackOfConfig    int = 7002
)
