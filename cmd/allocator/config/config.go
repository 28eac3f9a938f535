// Package config translates CLI flags into the configuration types of the
// allocation components.
package config

import (
	"fmt"

	"order-allocation-service/internal/allocator"
	"order-allocation-service/internal/parsers"
	"order-allocation-service/internal/reporter"
	"order-allocation-service/pkg/logger"
)

// CreateLoaderConfig builds the table loader configuration. The delimiter
// comes in as a flag string and must be a single character.
func CreateLoaderConfig(delimiter string) (*parsers.LoaderConfig, error) {
	config := parsers.DefaultLoaderConfig()

	if delimiter != "" {
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
		}
		config.Delimiter = runes[0]
	}

	return config, nil
}

// CreateEngineConfig builds the allocation engine configuration.
func CreateEngineConfig(decrementOnAllocate bool) *allocator.EngineConfig {
	config := allocator.DefaultEngineConfig()
	config.DecrementOnAllocate = decrementOnAllocate
	return config
}

// CreateReportConfig builds the report configuration for the requested
// output format. CSV output carries every allocation record; console and
// JSON default to the summary plus the lines without stock.
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(format)

	if config.Format == reporter.FormatCSV {
		config.IncludeRecords = true
	}

	return config
}

// CreateLoggerConfig builds the logger configuration. Verbose runs log at
// debug level with caller information.
func CreateLoggerConfig(verbose bool) *logger.Config {
	if verbose {
		return logger.DebugConfig()
	}
	return logger.DefaultConfig()
}
