package subscribe

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// vmessLink builds a share link from a flat record.
func vmessLink(t *testing.T, rec map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	return SchemeVMess + base64.StdEncoding.EncodeToString(raw)
}

func baseRecord(name string) map[string]any {
	return map[string]any{
		"v":    "2",
		"ps":   name,
		"add":  name + ".example",
		"port": "443",
		"id":   "11111111-2222-3333-4444-555555555555",
	}
}

func with(rec map[string]any, kv ...any) map[string]any {
	out := make(map[string]any, len(rec)+len(kv)/2)
	for k, v := range rec {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i].(string)] = kv[i+1]
	}
	return out
}

func without(rec map[string]any, key string) map[string]any {
	out := with(rec)
	delete(out, key)
	return out
}

// envelope base64-wraps newline separated links.
func envelope(lines ...string) []byte {
	return []byte(base64.StdEncoding.EncodeToString([]byte(strings.Join(lines, "\n"))))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
