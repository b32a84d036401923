package cfg

type Cfg struct {
	// Storage configuration
	DataDir string

	// Application configuration
	SitesDir     string
	Port         string
	WorkerCount  int
	QueueSize    int
	APIAccessKey string

	// Detection tuning (milliseconds)
	ClickWindowMs   int
	DebounceMs      int
	SettleTimeoutMs int
	NotifyWindowMs  int
	NudgeTTLMs      int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
