package config

type WorkerKeyStruct struct {
	RecordAttemptStatsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	RecordAttemptStatsQueue: "record_attempt_stats_queue",
}
