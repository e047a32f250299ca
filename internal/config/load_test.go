// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedJSON = `{
  "host_config": {"samplerate": 48000},
  "tracks": [
    {
      "name": "master",
      "mode": "stereo",
      "plugins": [{"name": "gain1", "type": "internal", "uid": "gain"}]
    }
  ]
}`

func TestParse_AcceptsWellFormedDocument(t *testing.T) {
	doc, err := Parse([]byte(wellFormedJSON))
	require.NoError(t, err)
	assert.Equal(t, 48000.0, doc.HostConfig.SampleRate)
	require.Len(t, doc.Tracks, 1)
	assert.Equal(t, "master", doc.Tracks[0].Name)
}

func TestParse_RejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	assert.Error(t, err)
}

func TestParse_RejectsFailedValidation(t *testing.T) {
	_, err := Parse([]byte(`{"host_config": {"samplerate": 0}, "tracks": []}`))
	assert.Error(t, err)
	var cfgErr *Error
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_ReadsFileFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(wellFormedJSON), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "master", doc.Tracks[0].Name)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
