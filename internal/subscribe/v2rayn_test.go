package subscribe

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBundleSkipsInvalidLines(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	raw := envelope(
		vmessLink(t, baseRecord("a")),
		vmessLink(t, with(baseRecord("b"), "scy", "aes-128-gcm")),
		"ss://not-supported",
		"",
		vmessLink(t, baseRecord("c"))+"\r",
	)

	bundle, err := ParseBundle(raw, logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, bundle.Names())
	require.Len(t, bundle.Rejected, 2)
	assert.Equal(t, 2, bundle.Rejected[0].Line)
	assert.ErrorIs(t, bundle.Rejected[0].Err, ErrUnsupportedCipher)
	assert.Equal(t, 3, bundle.Rejected[1].Line)
	assert.ErrorIs(t, bundle.Rejected[1].Err, ErrUnsupportedScheme)

	assert.Contains(t, logs.String(), "invalid vmess url")
	assert.Contains(t, logs.String(), "invalid url scheme")
}

func TestParseBundleNeverExceedsValidLines(t *testing.T) {
	lines := []string{
		vmessLink(t, baseRecord("ok1")),
		vmessLink(t, with(baseRecord("bad1"), "v", "3")),
		vmessLink(t, baseRecord("ok2")),
		vmessLink(t, with(baseRecord("bad2"), "tls", "reality")),
		"vmess://%%%",
		vmessLink(t, baseRecord("ok3")),
	}
	const invalid = 3

	bundle, err := ParseBundle(envelope(lines...), discardLogger())
	require.NoError(t, err)
	assert.LessOrEqual(t, bundle.Len(), len(lines)-invalid)
	assert.Len(t, bundle.Rejected, invalid)
}

func TestParseBundleDuplicateNamesLastWins(t *testing.T) {
	raw := envelope(
		vmessLink(t, with(baseRecord("dup"), "add", "first.example")),
		vmessLink(t, baseRecord("other")),
		vmessLink(t, with(baseRecord("dup"), "add", "second.example")),
	)

	bundle, err := ParseBundle(raw, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"dup", "other"}, bundle.Names())
	d, ok := bundle.Get("dup")
	require.True(t, ok)
	assert.Equal(t, "second.example", d.Endpoint.Address)
}

func TestParseBundleEnvelope(t *testing.T) {
	_, err := ParseBundle([]byte("vmess://this is not base64!"), discardLogger())
	assert.ErrorIs(t, err, ErrInvalidEnvelope)

	bundle, err := ParseBundle(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, bundle.Len())

	// 外层 base64 中间夹带换行
	wrapped := envelope(vmessLink(t, baseRecord("w")))
	folded := append(append([]byte{}, wrapped[:10]...), '\n')
	folded = append(folded, wrapped[10:]...)
	bundle, err = ParseBundle(folded, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"w"}, bundle.Names())
}
