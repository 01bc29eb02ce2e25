package optname

const (
	CacheFile        = "cache-file"
	Concurrency      = "concurrency"
	ConnTimeout      = "connect-timeout"
	ContinueDownload = "continue-download"
	Force            = "force"
	Header           = "header"
	IdleTimeout      = "idle-timeout"
	Include          = "include"
	Location         = "location"
	LoggingLevel     = "log-level"
	Method           = "method"
	NoSave           = "no-save"
	Output           = "output"
	Parallel         = "parallel"
	Profile          = "profile"
	Rate             = "rate"
	Requests         = "requests"
	Retries          = "retries"
	UseCache         = "use-cache"
	Verbose          = "verbose"
)
