package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// commandContext bounds every CLI call
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// printJSON pretty-prints a response to stdout
func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(out))
}

// parseTimeFlag parses an RFC 3339 flag value, empty means zero time
func parseTimeFlag(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be RFC 3339 (e.g. 2026-09-01T06:00:00Z)", name)
	}
	return t, nil
}
