package rest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKeysConvertsSnakeCaseRecursively(t *testing.T) {
	input := []byte(`{"message_id":"m1","parts":[{"mime_type":"text/plain"}],"accepted_output_modes":["text"]}`)
	out, err := normalizeKeys(input)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "m1", decoded["messageId"])
	parts := decoded["parts"].([]interface{})
	assert.Equal(t, "text/plain", parts[0].(map[string]interface{})["mimeType"])
	assert.Equal(t, []interface{}{"text"}, decoded["acceptedOutputModes"])
}

func TestNormalizeKeysLeavesCamelCaseUntouched(t *testing.T) {
	input := []byte(`{"messageId":"m1","contextId":"c1"}`)
	out, err := normalizeKeys(input)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "m1", decoded["messageId"])
	assert.Equal(t, "c1", decoded["contextId"])
}

func TestNormalizeKeysHandlesEmptyInput(t *testing.T) {
	out, err := normalizeKeys(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSnakeToCamel(t *testing.T) {
	cases := map[string]string{
		"message_id":            "messageId",
		"push_notification_config": "pushNotificationConfig",
		"id":                    "id",
		"alreadyCamel":          "alreadyCamel",
	}
	for in, want := range cases {
		assert.Equal(t, want, snakeToCamel(in), in)
	}
}
