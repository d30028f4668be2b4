package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Learning     LearningConfig     `mapstructure:"learning"`
	Notification NotificationConfig `mapstructure:"notification"`
	Generation   GenerationConfig   `mapstructure:"generation"`
	Task         TaskConfig         `mapstructure:"task"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port                int `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds" validate:"gt=0"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	AccessTokenLifetimeMinutes  int    `mapstructure:"access_token_lifetime_minutes" validate:"gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"gt=0"`

	// BCryptCost controls the bcrypt work factor for password hashing.
	// 0 selects the library default.
	BCryptCost int `mapstructure:"bcrypt_cost" validate:"gte=0,lte=31"`
}

// LearningConfig tunes word selection and the repetition schedule.
type LearningConfig struct {
	// WordsPerCycle is how many words a learning cycle holds.
	WordsPerCycle int `mapstructure:"words_per_cycle" validate:"gte=1"`

	// ReviewRatio is the fraction of each cycle reserved for words that
	// are due for review; the remainder is filled with new words.
	ReviewRatio float64 `mapstructure:"review_ratio" validate:"gte=0,lte=1"`

	MinPriority     int `mapstructure:"min_priority" validate:"gte=0"`
	MaxPriority     int `mapstructure:"max_priority" validate:"gte=0"`
	DefaultPriority int `mapstructure:"default_priority" validate:"gte=0"`

	// RepetitionIntervals is the review ladder in days, indexed by review
	// stage.
	RepetitionIntervals []int `mapstructure:"repetition_intervals" validate:"min=1,dive,gte=1"`

	// DayStartHour is the UTC hour at which a learning day rolls over.
	DayStartHour int `mapstructure:"day_start_hour" validate:"gte=0,lte=23"`
}

// NotificationConfig tunes the background notification schedulers.
type NotificationConfig struct {
	// DailyReminderHour is the notification hour assigned to new users.
	DailyReminderHour int `mapstructure:"daily_reminder_hour" validate:"gte=0,lte=23"`

	DailyCheckIntervalMinutes  int `mapstructure:"daily_check_interval_minutes" validate:"gt=0"`
	ReviewCheckIntervalMinutes int `mapstructure:"review_check_interval_minutes" validate:"gt=0"`

	// ErrorBackoffSeconds is how long a scheduler loop sleeps after a
	// failed pass before trying again.
	ErrorBackoffSeconds int `mapstructure:"error_backoff_seconds" validate:"gt=0"`
}

// GenerationConfig contains the word content generation settings.
type GenerationConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name" validate:"required"`
	MaxRetries   int    `mapstructure:"max_retries" validate:"gte=0"`

	// RetryDelaySeconds is the base delay for exponential backoff between
	// retried generation calls.
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=0"`

	// MinExamples and MaxExamples bound how many usage examples are
	// requested per word.
	MinExamples int `mapstructure:"min_examples" validate:"gte=1"`
	MaxExamples int `mapstructure:"max_examples" validate:"gte=1"`

	// PromptTemplate overrides the built-in enrichment prompt when set.
	PromptTemplate string `mapstructure:"prompt_template"`
}

// TaskConfig tunes the background task runner and session maintenance.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize   int `mapstructure:"queue_size" validate:"gte=1"`

	// StuckTaskAgeMinutes is how old a task in the processing state must
	// be before recovery resets it to pending.
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"gt=0"`

	// SessionIdleTimeoutMinutes is how long a training session may sit
	// idle before it is evicted and its progress cleared.
	SessionIdleTimeoutMinutes int `mapstructure:"session_idle_timeout_minutes" validate:"gt=0"`
}

// MetricsConfig contains the Prometheus monitoring settings.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig contains the logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}
