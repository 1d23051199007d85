package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/subosito/gotenv"
)

// LoadEnv loads environment variables from .env file if it exists.
// Variables already set in the environment win.
func LoadEnv(filename string) error {
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		// .env file is optional
		return nil
	}
	return gotenv.Load(filename)
}

// GetRPCEndpoints returns RPC endpoints from the RPC_ENDPOINTS environment variable
func GetRPCEndpoints() []string {
	return splitAndClean(os.Getenv("RPC_ENDPOINTS"))
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
