// Package bolt is a storage.Storage backed by a BoltDB file.  Each
// game gets a bucket, and each session's state is a JSON value in
// that bucket.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Comcast/parley/storage"

	bolt "go.etcd.io/bbolt"
)

func JS(x interface{}) string {
	js, err := json.Marshal(&x)
	if err != nil {
		return err.Error()
	}
	return string(js)
}

// ErrNotOpen is returned when the Storage hasn't been opened.
var ErrNotOpen = errors.New("storage not open")

type Storage struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.db == nil {
		return ErrNotOpen
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("BoltDB Storage."+format, args...)
	}
}

func (s *Storage) MakeGame(ctx context.Context, gid string) error {
	s.logf("MakeGame %s", gid)
	if s.db == nil {
		return ErrNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(gid))
		return err
	})
}

func (s *Storage) RemGame(ctx context.Context, gid string) error {
	s.logf("RemGame %s", gid)
	if s.db == nil {
		return ErrNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(gid))
		if err == bolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}

func (s *Storage) GetSessions(ctx context.Context, gid string) ([]*storage.SessionState, error) {
	s.logf("GetSessions %s", gid)
	if s.db == nil {
		return nil, ErrNotOpen
	}
	ss := make([]*storage.SessionState, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(gid))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for id, bs := c.First(); id != nil; id, bs = c.Next() {
			var x storage.SessionState
			if err := json.Unmarshal(bs, &x); err != nil {
				return err
			}
			x.Sid = string(id)
			s.logf("GetSessions %s session %s", gid, JS(x))
			ss = append(ss, &x)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logf("GetSessions %s found %d sessions", gid, len(ss))

	if len(ss) == 0 {
		return nil, nil
	}

	return ss, nil
}

func (s *Storage) WriteState(ctx context.Context, gid string, ss []*storage.SessionState) error {
	s.logf("WriteState %s %s", gid, JS(ss))
	if s.db == nil {
		return ErrNotOpen
	}

	if 0 == len(ss) {
		return nil
	}

	vals := make(map[string][]byte, len(ss))

	for _, x := range ss {
		id := x.Sid
		if x.Deleted {
			vals[id] = nil
		} else {
			// The key is the id.
			x = &storage.SessionState{
				State: x.State,
			}
			js, err := json.Marshal(&x)
			if err != nil {
				return err
			}
			vals[id] = js
		}
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(gid))
		if err != nil {
			return err
		}
		for id, bs := range vals {
			var (
				key = []byte(id)
				err error
			)
			if bs == nil {
				err = b.Delete(key)
			} else {
				err = b.Put(key, bs)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
