package config

const (
	defaultEditorBinary  = "nvim"
	defaultDialTimeoutMS = 5000
	defaultBurst         = 1
	defaultEtcdName      = "default"
	defaultEtcdTimeoutMS = 2000
	defaultLogLevel      = "warn"
	defaultLogFormat     = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Editor: Editor{
			Binary: defaultEditorBinary,
		},
		Client: Client{
			DialTimeoutMS: defaultDialTimeoutMS,
			Burst:         defaultBurst,
		},
		Registry: Registry{
			EtcdName:      defaultEtcdName,
			EtcdTimeoutMS: defaultEtcdTimeoutMS,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
