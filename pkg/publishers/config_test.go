package publishers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileYAML(t *testing.T) {
	t.Setenv("HOOK_TOKEN", "s3cret")
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: " site-rebuild "
    type: HTTP
    http:
      url: https://hooks.example.com/rebuild
      headers:
        Authorization: "Bearer ${HOOK_TOKEN}"
        Empty: ""
  - id: covers-queue
    type: queue
    enabled: false
    queue:
      provider: AWS-SQS
      sqs:
        uri: https://sqs.eu-west-1.amazonaws.com/1/capas
        region: eu-west-1
`)

	file, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, file.Publishers, 2)

	hook := file.Publishers[0]
	assert.Equal(t, "site-rebuild", hook.ID)
	assert.Equal(t, TypeHTTP, hook.Type)
	assert.Equal(t, "POST", hook.HTTP.Method)
	assert.Equal(t, 5, hook.HTTP.TimeoutSeconds)
	assert.Equal(t, map[string]string{"Authorization": "Bearer s3cret"}, hook.HTTP.Headers)

	q := file.Publishers[1]
	assert.Equal(t, QueueProviderAWSSQS, q.Queue.Provider)
	assert.Equal(t, "eu-west-1", q.Queue.SQS.Region)
	assert.False(t, q.IsEnabled())

	enabled := file.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "site-rebuild", enabled[0].ID)
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "publishers.json", `{"publishers":[{"id":"topic","type":"queue","queue":{"provider":"gcp","gcp":{"project_id":"capas","topic":"covers"}}}]}`)

	file, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "covers", file.Publishers[0].Queue.PubSub.Topic)
}

func TestLoadFileErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "publishers: []\n",
		"missing id":     "publishers:\n  - type: http\n    http: {url: http://x}\n",
		"unknown type":   "publishers:\n  - id: a\n    type: smtp\n",
		"missing url":    "publishers:\n  - id: a\n    type: http\n    http: {}\n",
		"duplicate id":   "publishers:\n  - {id: a, type: http, http: {url: http://x}}\n  - {id: a, type: http, http: {url: http://y}}\n",
		"azure provider": "publishers:\n  - id: a\n    type: queue\n    queue: {provider: azure}\n",
		"half keys":      "publishers:\n  - id: a\n    type: queue\n    queue: {provider: aws-sns, sns: {topic_arn: arn, region: eu-west-1, access_key_id: k}}\n",
		"no region":      "publishers:\n  - id: a\n    type: queue\n    queue: {provider: aws-sqs, sqs: {uri: http://q}}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, "p.yaml", body))
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(writeFile(t, "p.toml", "x"))
	assert.Error(t, err)

	_, err = LoadFile("")
	assert.Error(t, err)
}
