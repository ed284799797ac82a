package config

const (
	defaultDataDir               = "~/.local/share/storesync"
	defaultLogDir                = "~/.local/share/storesync/logs"
	defaultStorageBackend        = BackendSQLite
	defaultStorageNamespace      = "storefront"
	defaultStorageQuotaBytes     = 5 * 1024 * 1024
	defaultQueueKey              = "offline_mutation_queue"
	defaultQueueSchemaVersion    = 1
	defaultSyncedDisplaySeconds  = 3
	defaultRemoteRequestTimeout  = 30
	defaultRemoteProbeInterval   = 15
	defaultRemoteMaxConnsPerHost = 16
	defaultAPIBind               = "127.0.0.1:7491"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 14
)

// Supported storage backends.
const (
	BackendSQLite = "sqlite"
	BackendPebble = "pebble"
	BackendMemory = "memory"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Storage: Storage{
			Backend:    defaultStorageBackend,
			Namespace:  defaultStorageNamespace,
			QuotaBytes: defaultStorageQuotaBytes,
		},
		Queue: Queue{
			Key:           defaultQueueKey,
			SchemaVersion: defaultQueueSchemaVersion,
		},
		Replay: Replay{
			SyncedDisplaySeconds: defaultSyncedDisplaySeconds,
		},
		Remote: Remote{
			RequestTimeout:  defaultRemoteRequestTimeout,
			ProbeInterval:   defaultRemoteProbeInterval,
			MaxConnsPerHost: defaultRemoteMaxConnsPerHost,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
