package main

import (
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReportsStartupFailures(t *testing.T) {
	if os.Getenv("DATABASE_DSN") != "" || os.Getenv("REDIS_ADDRESS") != "" {
		t.Skip("an external storage backend is configured in the environment")
	}

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	testCases := []struct {
		name string
		args []string
	}{
		{"invalid config", []string{"-t", "not-a-cidr"}},
		{"address already in use", []string{"-a", busy.Addr().String(), "-f", "", "-l", "error"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Error(t, run(testCase.args))
		})
	}
}
