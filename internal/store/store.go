package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

const snapshotVersion = 1

// Snapshot is the full persisted state. Every mutation rewrites the
// whole document, which keeps readers from ever seeing a partial
// update but bounds the design to small datasets.
type Snapshot struct {
	Version  int               `json:"version"`
	Chats    []*models.Chat    `json:"chats"`
	Messages []*models.Message `json:"messages"`
}

// Store owns the snapshot file. It is not safe for concurrent use on
// its own; the chat service serializes all access. A single process
// must own the file — there is no cross-process locking.
type Store struct {
	path string
	log  zerolog.Logger

	Chats    []*models.Chat
	Messages []*models.Message
}

// Open reads the snapshot at path if one exists. A corrupt snapshot is
// moved aside to <path>.bad and the store starts empty rather than
// propagating the decode error.
func Open(path string, log zerolog.Logger) (*Store, error) {
	s := &Store{path: path, log: log}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		bad := path + ".bad"
		if renameErr := os.Rename(path, bad); renameErr == nil {
			log.Warn().Err(err).Str("moved_to", bad).Msg("corrupt snapshot, starting empty")
		} else {
			log.Warn().Err(err).Msg("corrupt snapshot, starting empty")
		}
		return s, nil
	}
	if snap.Version > snapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported %d", snap.Version, snapshotVersion)
	}

	s.Chats = snap.Chats
	s.Messages = snap.Messages
	return s, nil
}

// Save writes the complete state atomically: marshal, write to a temp
// file in the same directory, rename over the target.
func (s *Store) Save() error {
	snap := Snapshot{
		Version:  snapshotVersion,
		Chats:    s.Chats,
		Messages: s.Messages,
	}
	data, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("persist snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// Chat returns the chat with the given id, or nil.
func (s *Store) Chat(id string) *models.Chat {
	for _, c := range s.Chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Message returns the message with the given id, or nil.
func (s *Store) Message(id string) *models.Message {
	for _, m := range s.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}
