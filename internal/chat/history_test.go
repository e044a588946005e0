package chat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileRec(id int, fileID string) FileRecord {
	return FileRecord{MessageID: id, File: Attachment{Type: AttachDocument, FileID: fileID}}
}

func TestHistory_Merge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.bolt")
	h, err := OpenHistory(path)
	require.NoError(t, err)

	first := map[int64]GroupData{
		-100: {GroupInfo: devGroup, Files: []FileRecord{fileRec(2, "B"), fileRec(1, "A")}, CollectedAt: "t1"},
		-200: {GroupInfo: newsChan, Files: []FileRecord{fileRec(9, "N")}, CollectedAt: "t1"},
	}
	added, err := h.Merge(first)
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	require.NoError(t, h.Close())

	// A later run only sees a newer window of updates.
	h, err = OpenHistory(path)
	require.NoError(t, err)
	defer h.Close()

	renamed := devGroup
	renamed.Title = "Dev Team"
	second := map[int64]GroupData{
		-100: {GroupInfo: renamed, Files: []FileRecord{fileRec(2, "B"), fileRec(10, "C")}, CollectedAt: "t2"},
	}
	added, err = h.Merge(second)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	require.Len(t, second, 2, "chats from earlier runs are restored")
	dev := second[-100]
	assert.Equal(t, "Dev Team", dev.GroupInfo.Title)
	assert.Equal(t, "t2", dev.CollectedAt)
	assert.Equal(t, 3, dev.FileCount)
	var ids []string
	for _, f := range dev.Files {
		ids = append(ids, f.File.FileID)
	}
	assert.Equal(t, []string{"A", "B", "C"}, ids, "ordered by message id")

	news := second[-200]
	assert.Equal(t, newsChan, news.GroupInfo)
	assert.Equal(t, "t1", news.CollectedAt)
	assert.Equal(t, 1, news.FileCount)
}

func TestMsgKeyOrdering(t *testing.T) {
	assert.Less(t, string(msgKey(9)), string(msgKey(10)))
	assert.Equal(t, int64(-100), key2id(id2key(-100)))
}
