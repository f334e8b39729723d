package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactHandle(t *testing.T) {
	assert.Equal(t, "cr***", RedactHandle("creator_jane"))
	assert.Equal(t, "cr***", RedactHandle("@creator_jane"))
	assert.Equal(t, "***", RedactHandle("ab"))
	assert.Equal(t, "***", RedactHandle(""))
}

func TestRedactPath(t *testing.T) {
	assert.Equal(t, "/var/sessions/***", RedactPath("/var/sessions/brand_kr.json"))
	assert.Equal(t, "***", RedactPath("brand_kr.json"))
}

func TestRedactValueByKey(t *testing.T) {
	assert.Equal(t, "cr***", redactValue("username", "creator_jane"))
	assert.Equal(t, "cr***,ot***", redactValue("usernames", "creator_jane, other_guy"))
	assert.Equal(t, "/opt/s/***", redactValue("session_file_path", "/opt/s/a.json"))
	assert.Equal(t, "plain", redactValue("config_id", "plain"))
}
