// Package liststore persists channel list-mode entries (bans, exceptions,
// invite exemptions) in a bbolt database so they survive restarts.
package liststore

import (
	"bytes"
	"fmt"
	"strconv"

	bbolt "go.etcd.io/bbolt"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

var bucketLists = []byte("listmodes")

// Store wraps a bbolt database holding list-mode entries, write-through
// on every applied list change.
type Store struct {
	bolt *bbolt.DB
}

// Open opens or creates a bbolt database file and ensures the bucket exists.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("liststore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketLists)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("liststore: create bucket: %w", err)
	}
	return &Store{bolt: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

// Keys are "channel\x00mode\x00mask"; values are "setter\x00settime".
// Channel names are stored folded by the caller.

func entryKey(channel, mode, mask string) []byte {
	return []byte(channel + "\x00" + mode + "\x00" + mask)
}

func channelPrefix(channel string) []byte {
	return []byte(channel + "\x00")
}

// PutEntry persists one list entry.
func (s *Store) PutEntry(channel, mode string, e modes.ListEntry) error {
	val := []byte(e.Setter + "\x00" + strconv.FormatInt(e.SetAt, 10))
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketLists).Put(entryKey(channel, mode, e.Mask), val)
	})
}

// DeleteEntry removes one list entry.
func (s *Store) DeleteEntry(channel, mode, mask string) error {
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketLists).Delete(entryKey(channel, mode, mask))
	})
}

// LoadChannel returns all persisted list entries of one channel, keyed by
// internal mode name.
func (s *Store) LoadChannel(channel string) (map[string][]modes.ListEntry, error) {
	out := make(map[string][]modes.ListEntry)
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketLists).Cursor()
		prefix := channelPrefix(channel)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			rest := k[len(prefix):]
			sep := bytes.IndexByte(rest, 0)
			if sep < 0 {
				continue
			}
			mode, mask := string(rest[:sep]), string(rest[sep+1:])

			vsep := bytes.IndexByte(v, 0)
			if vsep < 0 {
				continue
			}
			setAt, err := strconv.ParseInt(string(v[vsep+1:]), 10, 64)
			if err != nil {
				continue
			}
			out[mode] = append(out[mode], modes.ListEntry{
				Mask:   mask,
				Setter: string(v[:vsep]),
				SetAt:  setAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("liststore: load %s: %w", channel, err)
	}
	return out, nil
}
