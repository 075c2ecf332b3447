package granola

import "github.com/goliatone/go-granola/internal/runtimeconfig"

var (
	ErrContentModeInvalid       = runtimeconfig.ErrContentModeInvalid
	ErrDatePrefixInvalid        = runtimeconfig.ErrDatePrefixInvalid
	ErrFilenameStyleInvalid     = runtimeconfig.ErrFilenameStyleInvalid
	ErrFilenameMaxLengthInvalid = runtimeconfig.ErrFilenameMaxLengthInvalid
	ErrStrategyInvalid          = runtimeconfig.ErrStrategyInvalid
	ErrWordThresholdInvalid     = runtimeconfig.ErrWordThresholdInvalid
	ErrClientBaseURLRequired    = runtimeconfig.ErrClientBaseURLRequired
	ErrLoggingProviderRequired  = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config            = runtimeconfig.Config
	ConverterConfig   = runtimeconfig.ConverterConfig
	FrontmatterConfig = runtimeconfig.FrontmatterConfig
	FilenameConfig    = runtimeconfig.FilenameConfig
	DedupConfig       = runtimeconfig.DedupConfig
	ImporterConfig    = runtimeconfig.ImporterConfig
	ClientConfig      = runtimeconfig.ClientConfig
	LoggingConfig     = runtimeconfig.LoggingConfig
	Features          = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
