package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	assert.Equal(t, "fallback", GetEnv("GASFLOW_TEST_UNSET", "fallback"))

	t.Setenv("GASFLOW_TEST_SET", "value")
	assert.Equal(t, "value", GetEnv("GASFLOW_TEST_SET", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	assert.Equal(t, 9000, GetEnvInt("GASFLOW_TEST_UNSET", 9000))

	t.Setenv("GASFLOW_TEST_PORT", "9440")
	assert.Equal(t, 9440, GetEnvInt("GASFLOW_TEST_PORT", 9000))

	t.Setenv("GASFLOW_TEST_PORT", "not a number")
	assert.Equal(t, 9000, GetEnvInt("GASFLOW_TEST_PORT", 9000))
}

func TestGetEnvBool(t *testing.T) {
	assert.True(t, GetEnvBool("GASFLOW_TEST_UNSET", true))

	t.Setenv("GASFLOW_TEST_FLAG", "TRUE")
	assert.True(t, GetEnvBool("GASFLOW_TEST_FLAG", false))

	t.Setenv("GASFLOW_TEST_FLAG", "1")
	assert.True(t, GetEnvBool("GASFLOW_TEST_FLAG", false))

	t.Setenv("GASFLOW_TEST_FLAG", "no")
	assert.False(t, GetEnvBool("GASFLOW_TEST_FLAG", true))
}
