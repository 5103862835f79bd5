package utils

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetVerbose_And_IsVerbose(t *testing.T) {
	// save original state and restore after test
	original := IsVerbose()
	defer SetVerbose(original)

	SetVerbose(true)
	assert.True(t, IsVerbose())
	assert.Equal(t, logrus.DebugLevel, Logger().GetLevel())

	SetVerbose(false)
	assert.False(t, IsVerbose())
	assert.Equal(t, logrus.InfoLevel, Logger().GetLevel())
}

func TestVerbose_SuppressedWhenDisabled(t *testing.T) {
	original := IsVerbose()
	defer SetVerbose(original)
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetVerbose(false)
	Verbose("test message %s %d", "arg", 42)
	assert.Empty(t, buf.String())
}

func TestVerbose_WrittenWhenEnabled(t *testing.T) {
	original := IsVerbose()
	defer SetVerbose(original)
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetVerbose(true)
	Verbose("test message %s %d", "arg", 42)
	assert.Contains(t, buf.String(), "test message arg 42")
}

func TestLevels_Written(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Info("info %s", "message")
	Warn("warn %s", "message")
	Error("error %s", "message")
	WithFields(logrus.Fields{"method": "Encode"}).Info("structured")

	out := buf.String()
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "method=Encode")
}
