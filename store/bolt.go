package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/glog"
	"go.etcd.io/bbolt"
)

var cookiesBucket = []byte("cookies")

// cookieStore implements interface `ICookieStore` on a bbolt file.
type cookieStore struct {
	*bbolt.DB
}

// OpenCookieStore opens or creates the bbolt file at path.
func OpenCookieStore(path string) (*cookieStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open `%s`: %v", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cookiesBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init bucket: %v", err)
	}
	return &cookieStore{db}, nil
}

func (s *cookieStore) Load() (map[string][]*Cookie, error) {
	out := make(map[string][]*Cookie)
	err := s.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(cookiesBucket).ForEach(func(k, v []byte) error {
			var cookies []*Cookie
			if err := json.Unmarshal(v, &cookies); err != nil {
				// A corrupt entry only costs a re-login.
				glog.Errorf("store: skip corrupt cookies for `%s`: %v", k, err)
				return nil
			}
			out[string(k)] = cookies
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *cookieStore) Save(origin string, cookies []*Cookie) error {
	return s.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(cookiesBucket)
		if len(cookies) == 0 {
			return b.Delete([]byte(origin))
		}
		value, err := json.Marshal(cookies)
		if err != nil {
			return err
		}
		return b.Put([]byte(origin), value)
	})
}
