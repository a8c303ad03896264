package command

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCommandListsSubcommands(t *testing.T) {
	root := NewRootCommand(t.TempDir())
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "completion")
	assert.Contains(t, names, "version")
}

func TestRootHelpTextListsCommands(t *testing.T) {
	root := NewRootCommand(t.TempDir())
	text := rootHelpText(root)
	assert.True(t, strings.Contains(text, "run"))
	assert.True(t, strings.Contains(text, "Available Commands"))
}

func TestVersionCommandPrints(t *testing.T) {
	cmd := newVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	require := assert.New(t)
	require.NoError(cmd.RunE(cmd, nil))
	require.Contains(out.String(), "openray")
}

func TestCompletionCommandRejectsUnknownShell(t *testing.T) {
	cmd := newCompletionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	err := cmd.RunE(cmd, []string{"tcsh"})
	assert.Error(t, err)
}
