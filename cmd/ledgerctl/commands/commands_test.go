package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cipherledger/internal/orchestrator"
)

func TestParseMetadata(t *testing.T) {
	meta, err := parseMetadata([]string{"subject=Hi there", "from=a=b"}, []string{"score=73"})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", meta.Fields["subject"])
	assert.Equal(t, "a=b", meta.Fields["from"])
	assert.Equal(t, int64(73), meta.Numbers["score"])

	_, err = parseMetadata([]string{"nokey"}, nil)
	assert.Error(t, err)
	_, err = parseMetadata(nil, []string{"score=high"})
	assert.Error(t, err)
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	approve := prompt(strings.NewReader("y\nno\n"), &out)

	assert.True(t, approve(context.Background(), "0xalice", "ledger:submit_record"))
	assert.False(t, approve(context.Background(), "0xalice", "ledger:submit_record"))
	assert.False(t, approve(context.Background(), "0xalice", "ledger:submit_record"), "EOF declines")
	assert.Contains(t, out.String(), "Authorize ledger:submit_record as 0xalice?")
}

func TestProgressReportsPendingProof(t *testing.T) {
	var out bytes.Buffer
	progress(&out).OnTransition(context.Background(), orchestrator.Transition{
		Workflow: orchestrator.WorkflowDisclose,
		RecordID: "email-1",
		From:     orchestrator.StateFetchingHandle,
		To:       orchestrator.StateAwaitingExternalProof,
	})
	assert.Equal(t, "email-1: waiting for decryption proof...\n", out.String())
}

func TestKeygenSkipsConfig(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"keygen"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"public_key"`)
}
