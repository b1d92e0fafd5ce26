package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func benchList(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "||site%d.example\n", i)
	}
	return b.String()
}

// BenchmarkBuildApplication measures config-to-classifier construction.
func BenchmarkBuildApplication(b *testing.B) {
	silenceLogs(b)
	cfg := testConfig(b, benchList(5000))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		app, err := buildApplication(cfg)
		require.NoError(b, err)
		_ = app
	}
}

// BenchmarkRun measures classification of a batch of URLs read from args.
func BenchmarkRun(b *testing.B) {
	silenceLogs(b)
	app, err := buildApplication(testConfig(b, benchList(5000)))
	require.NoError(b, err)

	urls := make([]string, 100)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://www.site%d.example/index.html", i*37)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		require.NoError(b, app.Run(context.Background(), urls, nil, io.Discard))
	}
}
