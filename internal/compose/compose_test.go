package compose

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/v2mng/internal/outbound"
)

func sampleDescriptor() outbound.Descriptor {
	return outbound.Descriptor{
		Name:      "srv1",
		Protocol:  outbound.ProtocolVMess,
		Endpoint:  outbound.Endpoint{Address: "a.example", Port: 443, ID: "u-1"},
		Transport: outbound.WebSocket{Path: "/ws", Host: "a.example"},
		Security:  outbound.TLS{ServerName: "a.example"},
	}
}

func TestComposeReplacesFirstSlotOnly(t *testing.T) {
	skeleton := []byte(`{"log":{"loglevel":"warning"},"outbounds":[null,{"protocol":"freedom","tag":"direct"}]}`)
	original := append([]byte(nil), skeleton...)

	out, err := Compose(skeleton, sampleDescriptor())
	require.NoError(t, err)
	assert.Equal(t, original, skeleton, "skeleton must not be modified")

	wantOutbound, err := json.Marshal(sampleDescriptor())
	require.NoError(t, err)

	var doc struct {
		Log       map[string]any    `json:"log"`
		Outbounds []json.RawMessage `json:"outbounds"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Len(t, doc.Outbounds, 2)
	assert.JSONEq(t, string(wantOutbound), string(doc.Outbounds[0]))
	assert.JSONEq(t, `{"protocol":"freedom","tag":"direct"}`, string(doc.Outbounds[1]))
	assert.Equal(t, "warning", doc.Log["loglevel"])
	assert.JSONEq(t, string(wantOutbound), SelectedOutbound(out))
}

func TestComposeDefaultSkeleton(t *testing.T) {
	out, err := Compose(DefaultSkeleton(), sampleDescriptor())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	inbounds := doc["inbounds"].([]any)
	assert.EqualValues(t, 1080, inbounds[0].(map[string]any)["port"])
	routing := doc["routing"].(map[string]any)
	assert.Equal(t, "IPOnDemand", routing["domainStrategy"])

	// 默认骨架每次返回新副本
	a := DefaultSkeleton()
	a[0] = 'x'
	assert.Equal(t, byte('{'), DefaultSkeleton()[0])
}

func TestComposeMissingSlot(t *testing.T) {
	for _, skeleton := range []string{
		`{}`,
		`{"outbounds":{}}`,
		`{"outbounds":[]}`,
		`{"outbounds":"x"}`,
	} {
		_, err := Compose([]byte(skeleton), sampleDescriptor())
		assert.ErrorIs(t, err, ErrMissingOutboundSlot, skeleton)
	}

	_, err := Compose([]byte(`{"outbounds":[`), sampleDescriptor())
	assert.ErrorIs(t, err, ErrInvalidSkeleton)
}

func TestFindSkeleton(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "skel.json")
	yamlPath := filepath.Join(dir, "skel.yaml")

	doc, path, err := FindSkeleton(jsonPath, yamlPath)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultSkeleton(), doc)

	require.NoError(t, os.WriteFile(yamlPath, []byte("outbounds:\n  - null\n  - protocol: blackhole\n"), 0o600))
	doc, path, err = FindSkeleton(jsonPath, yamlPath)
	require.NoError(t, err)
	assert.Equal(t, yamlPath, path)
	assert.JSONEq(t, `{"outbounds":[null,{"protocol":"blackhole"}]}`, string(doc))

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"outbounds":[null]}`), 0o600))
	doc, path, err = FindSkeleton(jsonPath, yamlPath)
	require.NoError(t, err)
	assert.Equal(t, jsonPath, path)
	assert.JSONEq(t, `{"outbounds":[null]}`, string(doc))

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{broken`), 0o600))
	_, _, err = FindSkeleton(jsonPath, yamlPath)
	assert.ErrorIs(t, err, ErrInvalidSkeleton)
}
