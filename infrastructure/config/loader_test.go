package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvFallsBackToDefault(t *testing.T) {
	os.Unsetenv("AIVCS_TEST_KEY")
	assert.Equal(t, "fallback", GetEnv("AIVCS_TEST_KEY", "fallback"))

	os.Setenv("AIVCS_TEST_KEY", " configured ")
	defer os.Unsetenv("AIVCS_TEST_KEY")
	assert.Equal(t, "configured", GetEnv("AIVCS_TEST_KEY", "fallback"))
}

func TestGetEnvBool(t *testing.T) {
	os.Setenv("AIVCS_TEST_BOOL", "YES")
	defer os.Unsetenv("AIVCS_TEST_BOOL")
	assert.True(t, GetEnvBool("AIVCS_TEST_BOOL", false))
	assert.False(t, GetEnvBool("AIVCS_TEST_MISSING_BOOL", false))
}

func TestGetEnvInt(t *testing.T) {
	os.Setenv("AIVCS_TEST_INT", "42")
	defer os.Unsetenv("AIVCS_TEST_INT")
	assert.Equal(t, 42, GetEnvInt("AIVCS_TEST_INT", 7))
	assert.Equal(t, 7, GetEnvInt("AIVCS_TEST_MISSING_INT", 7))
}

func TestParseEnvDuration(t *testing.T) {
	os.Setenv("AIVCS_TEST_DURATION", "5s")
	defer os.Unsetenv("AIVCS_TEST_DURATION")
	parsed, ok := ParseEnvDuration("AIVCS_TEST_DURATION")
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, parsed)

	_, ok = ParseEnvDuration("AIVCS_TEST_MISSING_DURATION")
	assert.False(t, ok)
}

func TestSplitAndTrimCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitAndTrimCSV(" a, b ,c,"))
	assert.Nil(t, SplitAndTrimCSV(""))
}

func TestParseByteSize(t *testing.T) {
	cases := map[string]int64{
		"512":  512,
		"1kb":  1024,
		"2MB":  2 * 1024 * 1024,
		"1GiB": 1024 * 1024 * 1024,
	}
	for raw, want := range cases {
		got, err := ParseByteSize(raw)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseByteSize("")
	assert.Error(t, err)

	_, err = ParseByteSize("-5MB")
	assert.Error(t, err)
}

func TestGetPort(t *testing.T) {
	os.Unsetenv("PORT")
	assert.Equal(t, 8080, GetPort(8080))

	os.Setenv("PORT", "9090")
	defer os.Unsetenv("PORT")
	assert.Equal(t, 9090, GetPort(8080))
}

func TestGetDefaultTimeoutsUsesOverrides(t *testing.T) {
	os.Setenv("AIVCS_HTTP_READ_TIMEOUT", "1s")
	defer os.Unsetenv("AIVCS_HTTP_READ_TIMEOUT")

	timeouts := GetDefaultTimeouts()
	assert.Equal(t, 1*time.Second, timeouts.HTTPRead)
	assert.Equal(t, 30*time.Second, timeouts.HTTPWrite)
}
