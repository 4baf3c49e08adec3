package main

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-kit/internal/regenerate"
)

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	want := []string{"serve", "sync", "regenerate", "migrate", "token"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestParseItems(t *testing.T) {
	items, err := parseItems([]string{"42=too vague", " 43 ", "44=a=b", "45="})
	require.NoError(t, err)
	assert.Equal(t, []regenerate.FeedbackItem{
		{QuestionID: 42, Feedback: "too vague"},
		{QuestionID: 43, Feedback: ""},
		{QuestionID: 44, Feedback: "a=b"},
		{QuestionID: 45, Feedback: ""},
	}, items)
}

func TestParseItems_Invalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "0=x", "-3", "=feedback"} {
		t.Run(raw, func(t *testing.T) {
			_, err := parseItems([]string{raw})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid --item")
		})
	}
}

func TestCommands_FlagsValidation(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errorString string
	}{
		{
			name:        "sync without --req-id",
			args:        []string{"sync", "--user-id", "u1"},
			errorString: "required",
		},
		{
			name:        "sync without --user-id",
			args:        []string{"sync", "--req-id", "REQ-1"},
			errorString: "required",
		},
		{
			name:        "regenerate without target",
			args:        []string{"regenerate"},
			errorString: "at least one of the flags",
		},
		{
			name:        "regenerate with both targets",
			args:        []string{"regenerate", "--question", "1", "--record", "2", "--item", "1"},
			errorString: "none of the others can be",
		},
		{
			name:        "batch regenerate without items",
			args:        []string{"regenerate", "--record", "2"},
			errorString: "must all be set",
		},
		{
			name:        "batch regenerate with malformed item",
			args:        []string{"regenerate", "--record", "2", "--item", "x=y"},
			errorString: "invalid --item",
		},
		{
			name:        "token without --subject",
			args:        []string{"token"},
			errorString: "required",
		},
	}

	binaryPath := getBinaryPath(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binaryPath, tt.args...)
			output, err := cmd.CombinedOutput()

			assert.Error(t, err)
			assert.Contains(t, string(output), tt.errorString)
		})
	}
}

func TestMigrateCommand_List(t *testing.T) {
	binaryPath := getBinaryPath(t)

	output, err := exec.Command(binaryPath, "migrate", "--list").CombinedOutput()

	require.NoError(t, err, string(output))
	assert.True(t, strings.Contains(string(output), "000001_init.up.sql"))
}
