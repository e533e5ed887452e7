package transcript_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/branchrun/agentry/transcript"
)

func TestLedger_AppendOnlySnapshotIsPrefixStable(t *testing.T) {
	l := transcript.NewLedger()
	l.Append(transcript.UserText{Text: "hi"})
	snap1 := l.Snapshot()

	l.Append(transcript.ModelText{Text: "done"})
	snap2 := l.Snapshot()

	assert.Len(t, snap1, 1)
	assert.Len(t, snap2, 2)
	assert.Equal(t, snap1[0], snap2[0])
}

func TestLedger_ToolRoundTrip(t *testing.T) {
	l := transcript.NewLedger()
	l.Append(transcript.UserText{Text: "hi"})
	l.Append(transcript.ToolUse{ToolUseID: "1", ToolName: "echo", Args: map[string]any{"text": "hi"}})
	l.Append(transcript.ToolResult{ToolUseID: "1", ToolName: "echo", Output: "hi", IsError: false})
	l.Append(transcript.ModelText{Text: "done"})

	snap := l.Snapshot()
	var useIDs, resultIDs []string
	for _, p := range snap {
		switch v := p.(type) {
		case transcript.ToolUse:
			useIDs = append(useIDs, v.ToolUseID)
		case transcript.ToolResult:
			resultIDs = append(resultIDs, v.ToolUseID)
		}
	}
	assert.Equal(t, useIDs, resultIDs)
}
