package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptIssueNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "plain number", input: "42\n", want: 42},
		{name: "hash prefix", input: "#7\n", want: 7},
		{name: "no trailing newline", input: "15", want: 15},
		{name: "surrounding spaces", input: "  3  \n", want: 3},
		{name: "not a number", input: "abc\n", wantErr: true},
		{name: "zero", input: "0\n", wantErr: true},
		{name: "empty input", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := promptIssueNumber(strings.NewReader(tt.input), &bytes.Buffer{}, false)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPromptIssueNumberInteractive(t *testing.T) {
	var out bytes.Buffer

	_, err := promptIssueNumber(strings.NewReader("1\n"), &out, true)
	require.NoError(t, err)
	assert.Equal(t, "Enter the issue number to process: ", out.String())

	out.Reset()
	_, err = promptIssueNumber(strings.NewReader("1\n"), &out, false)
	require.NoError(t, err)
	assert.Empty(t, out.String())
}
