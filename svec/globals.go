package internal

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName is used for config search paths and env prefixes
	DefaultAppName        = "svec"
	DefaultAppCMDShortCut = "svec"
	DefaultConfigPath     = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultModelDir       = filepath.Join(DefaultConfigPath, "models")
	DefaultModelPath      = filepath.Join(DefaultModelDir, "all-MiniLM-L6-v2.onnx")
	DefaultVocabPath      = filepath.Join(DefaultModelDir, "vocab.txt")

	// Model defaults for all-MiniLM-L6-v2
	DefaultMaxSequenceLength = 256
	DefaultHiddenSize        = 384
	DefaultBatchSize         = 32
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// GetLoggerWithLevel returns GetLogger() filtered at the named level.
// Unknown level names fall back to info.
func GetLoggerWithLevel(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return GetLogger().Level(lvl)
}
