package seed

// Config describes the fixture dataset.
type Config struct {
	Prefix             string   // results prefix, with trailing slash
	JobPrefix          string   // judge job name prefix
	Participants       int      // number of participant namespaces
	RunsPerParticipant int      // completed runs per participant, oldest first
	RecordsPerRun      int      // verdict lines per run output
	Metrics            []string // metric names scored on every line
	Categories         []string // input categories cycled over lines
	BaseTimestamp      int64    // creation time of the first run, unix seconds
	RunInterval        int64    // seconds between consecutive runs
	MalformedEvery     int      // every Nth line is corrupted; 0 disables
	Seed               uint64   // random source seed
	Workers            int      // concurrent writers
}

// Stats summarizes a seeding pass.
type Stats struct {
	Participants int
	Runs         int
	Records      int
	Malformed    int
	Bytes        int64
}

// DefaultConfig returns a small dataset matching the judge's defaults.
func DefaultConfig() Config {
	return Config{
		Prefix:             "evaluation-results/",
		JobPrefix:          "llm-judge",
		Participants:       8,
		RunsPerParticipant: 2,
		RecordsPerRun:      25,
		Metrics:            []string{"Builtin.Correctness", "Builtin.Completeness", "Builtin.Helpfulness"},
		Categories:         []string{"math", "reasoning", "coding", ""},
		BaseTimestamp:      1_700_000_000,
		RunInterval:        3600,
		MalformedEvery:     0,
		Seed:               42,
		Workers:            4,
	}
}
