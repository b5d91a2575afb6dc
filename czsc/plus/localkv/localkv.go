// Package localkv 基于 buntdb 的本地键值缓存，用于记住相同输入的回测统计。
package localkv

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/ezquant/czsc/czsc/tools/log"
	"github.com/tidwall/buntdb"
)

const memory = ":memory:"

// ErrNotFound 键不存在或已过期
var ErrNotFound = buntdb.ErrNotFound

// LocalKV Structure to hold the db client
type LocalKV struct {
	db     *buntdb.DB
	dbPath string
	ttl    time.Duration
}

type Option func(*LocalKV)

// WithTTL 写入的键在 ttl 后过期，0 表示永不过期
func WithTTL(ttl time.Duration) Option {
	return func(l *LocalKV) {
		l.ttl = ttl
	}
}

// NewLocalKV databasePath 为 nil 时使用内存存储，否则在该目录下创建 kv.db
func NewLocalKV(databasePath *string, options ...Option) (*LocalKV, error) {
	dbPath := memory
	if databasePath != nil {
		if err := os.MkdirAll(*databasePath, 0755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %v", err)
		}
		dbPath = path.Join(*databasePath, "kv.db")
	}

	db, err := buntdb.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %v", err)
	}
	if err := db.SetConfig(buntdb.Config{
		SyncPolicy:           buntdb.EverySecond,
		AutoShrinkPercentage: 100,
		AutoShrinkMinSize:    32 * 1024 * 1024,
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置数据库配置失败: %v", err)
	}

	kv := &LocalKV{db: db, dbPath: dbPath}
	for _, option := range options {
		option(kv)
	}
	return kv, nil
}

// Close closes the db
func (l *LocalKV) Close() error {
	return l.db.Close()
}

// Get gets a value from the db
func (l *LocalKV) Get(key string) (string, error) {
	var val string
	err := l.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		val = v
		return nil
	})
	return val, err
}

// Set sets a value in the db
func (l *LocalKV) Set(key, value string) error {
	var opts *buntdb.SetOptions
	if l.ttl > 0 {
		opts = &buntdb.SetOptions{Expires: true, TTL: l.ttl}
	}
	return l.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, value, opts)
		return err
	})
}

func (l *LocalKV) Delete(key string) error {
	return l.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		return err
	})
}

// GetJSON 读取并解码 JSON 值
func (l *LocalKV) GetJSON(key string, dst any) error {
	v, err := l.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(v), dst)
}

// SetJSON 编码为 JSON 后写入
func (l *LocalKV) SetJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return l.Set(key, string(b))
}

// Remember 命中缓存时把值解码到 dst；未命中时调用 compute，写入缓存后再解码到 dst
func (l *LocalKV) Remember(key string, dst any, compute func() (any, error)) (hit bool, err error) {
	err = l.GetJSON(key, dst)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, buntdb.ErrNotFound) {
		log.WithError(err).WithField("key", key).Warn("缓存值无法解码，重新计算")
	}

	v, err := compute()
	if err != nil {
		return false, err
	}
	if err := l.SetJSON(key, v); err != nil {
		return false, err
	}
	return false, l.GetJSON(key, dst)
}

// Keys 返回匹配 pattern 的全部键，pattern 语法同 buntdb，例如 "stats:*"
func (l *LocalKV) Keys(pattern string) ([]string, error) {
	var keys []string
	err := l.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(pattern, func(key, _ string) bool {
			keys = append(keys, key)
			return true
		})
	})
	return keys, err
}

// RemoveDB removes db file
func (l *LocalKV) RemoveDB() error {
	if l.db != nil {
		l.db.Close()
	}
	if l.dbPath != memory && l.dbPath != "" {
		if err := os.Remove(l.dbPath); err != nil && !os.IsNotExist(err) {
			log.Warnf("删除数据库文件失败: %v", err)
		}
	}
	return nil
}
