package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var (
	chatsBucket = []byte("chats")
	filesBucket = []byte("files")
)

// History accumulates collected files across runs. The Bot API only
// returns recent updates, so each collection sees a sliding window; the
// history keeps everything seen so far.
//
// Layout: "chats" maps chat id to its latest GroupInfo and collection
// time. "files" holds one nested bucket per chat id mapping zero-padded
// message ids to FileRecord JSON.
type History struct {
	db *bolt.DB
}

type chatRecord struct {
	GroupInfo   GroupInfo `json:"group_info"`
	CollectedAt string    `json:"collected_at"`
}

// OpenHistory opens or creates the database at path.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create history directory")
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open history %s", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		var err error
		if err == nil {
			_, err = tx.CreateBucketIfNotExists(chatsBucket)
		}
		if err == nil {
			_, err = tx.CreateBucketIfNotExists(filesBucket)
		}
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ensure history buckets")
	}
	return &History{db: db}, nil
}

// Close releases the database file.
func (h *History) Close() error { return h.db.Close() }

// Merge stores the groups and files in data, then replaces each entry's
// file list with everything recorded for that chat. Chats known only from
// earlier runs are added to data. It returns the number of files that were
// not yet recorded.
func (h *History) Merge(data map[int64]GroupData) (int, error) {
	added := 0
	err := h.db.Update(func(tx *bolt.Tx) error {
		chats := tx.Bucket(chatsBucket)
		files := tx.Bucket(filesBucket)
		for id, g := range data {
			rec, err := json.Marshal(chatRecord{GroupInfo: g.GroupInfo, CollectedAt: g.CollectedAt})
			if err != nil {
				return err
			}
			if err := chats.Put(id2key(id), rec); err != nil {
				return err
			}
			b, err := files.CreateBucketIfNotExists(id2key(id))
			if err != nil {
				return err
			}
			for _, f := range g.Files {
				k := msgKey(f.MessageID)
				if b.Get(k) != nil {
					continue
				}
				v, err := json.Marshal(f)
				if err != nil {
					return err
				}
				if err := b.Put(k, v); err != nil {
					return err
				}
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "record history")
	}
	return added, h.fill(data)
}

// fill loads every recorded chat into data.
func (h *History) fill(data map[int64]GroupData) error {
	err := h.db.View(func(tx *bolt.Tx) error {
		files := tx.Bucket(filesBucket)
		return tx.Bucket(chatsBucket).ForEach(func(k, v []byte) error {
			id := key2id(k)
			var rec chatRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return errors.Wrapf(err, "decode chat %s", k)
			}
			g := GroupData{GroupInfo: rec.GroupInfo, CollectedAt: rec.CollectedAt, Files: []FileRecord{}}
			if existing, ok := data[id]; ok {
				g = existing
				g.Files = []FileRecord{}
			}
			if b := files.Bucket(k); b != nil {
				if err := b.ForEach(func(_, fv []byte) error {
					var f FileRecord
					if err := json.Unmarshal(fv, &f); err != nil {
						return err
					}
					g.Files = append(g.Files, f)
					return nil
				}); err != nil {
					return errors.Wrapf(err, "decode files of chat %s", k)
				}
			}
			g.FileCount = len(g.Files)
			data[id] = g
			return nil
		})
	})
	return errors.Wrap(err, "read history")
}

func id2key(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}

func key2id(key []byte) int64 {
	id, _ := strconv.ParseInt(string(key), 10, 64)
	return id
}

// msgKey zero-pads so bolt's byte ordering matches message order.
func msgKey(id int) []byte {
	return []byte(fmt.Sprintf("%012d", id))
}
