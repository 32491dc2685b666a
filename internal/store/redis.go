package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/flowchart/internal/config"
	"github.com/kode4food/flowchart/pkg/api"
)

// Redis stores each lesson as a hash of screen documents plus sequence and
// page documents. Snapshots are read and commits written inside MULTI/EXEC
type Redis struct {
	client *redis.Client
	prefix string
}

const (
	keyLessons  = "lessons"
	keyScreens  = "screens"
	keySequence = "sequence"
	keyPage     = "page"
	keyNextID   = "next-id"
)

var (
	ErrRedisConnect = errors.New("failed to connect to redis")
	ErrDecode       = errors.New("failed to decode stored document")
	ErrEncode       = errors.New("failed to encode document")
)

var _ Store = (*Redis)(nil)

// NewRedis connects to the configured Redis instance
func NewRedis(ctx context.Context, cfg config.StoreConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrRedisConnect, err)
	}
	return NewRedisWithClient(client, cfg.Prefix), nil
}

// NewRedisWithClient wraps an existing client, namespacing every key under
// prefix
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
	}
}

// Lesson reads the screens, sequence, and page in one transaction
func (r *Redis) Lesson(
	ctx context.Context, id api.LessonID,
) (*api.Lesson, error) {
	var screens *redis.MapStringStringCmd
	var seq, page *redis.StringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		screens = pipe.HGetAll(ctx, r.key(id, keyScreens))
		seq = pipe.Get(ctx, r.key(id, keySequence))
		page = pipe.Get(ctx, r.key(id, keyPage))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	res := &api.Lesson{
		ID:       id,
		Screens:  []*api.Screen{},
		Sequence: api.Sequence{},
	}
	for field, data := range screens.Val() {
		s, err := decodeScreen(data)
		if err != nil {
			return nil, fmt.Errorf("%w: screen %s: %w", ErrDecode, field, err)
		}
		res.Screens = append(res.Screens, s)
	}
	sortScreens(res.Screens)

	if data, err := seq.Result(); err == nil {
		if err := json.Unmarshal([]byte(data), &res.Sequence); err != nil {
			return nil, fmt.Errorf("%w: sequence: %w", ErrDecode, err)
		}
	}
	if data, err := page.Result(); err == nil {
		res.Page = &api.Page{}
		if err := json.Unmarshal([]byte(data), res.Page); err != nil {
			return nil, fmt.Errorf("%w: page: %w", ErrDecode, err)
		}
	}
	return res, nil
}

// Screen reads a single screen document
func (r *Redis) Screen(
	ctx context.Context, id api.LessonID, screenID api.ScreenID,
) (*api.Screen, error) {
	data, err := r.client.HGet(
		ctx, r.key(id, keyScreens), screenID.String(),
	).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %d", ErrScreenNotFound, screenID)
	}
	if err != nil {
		return nil, err
	}
	s, err := decodeScreen(data)
	if err != nil {
		return nil, fmt.Errorf("%w: screen %d: %w", ErrDecode, screenID, err)
	}
	return s, nil
}

// NextScreenID increments the lesson's id counter until it names a free
// screen id
func (r *Redis) NextScreenID(
	ctx context.Context, id api.LessonID,
) (api.ScreenID, error) {
	if id == "" {
		return 0, ErrEmptyLessonID
	}
	for {
		next, err := r.client.Incr(ctx, r.key(id, keyNextID)).Result()
		if err != nil {
			return 0, err
		}
		taken, err := r.client.HExists(
			ctx, r.key(id, keyScreens), strconv.FormatInt(next, 10),
		).Result()
		if err != nil {
			return 0, err
		}
		if !taken {
			return api.ScreenID(next), nil
		}
	}
}

// Commit writes the transaction inside MULTI/EXEC so readers never observe
// a partial change
func (r *Redis) Commit(ctx context.Context, id api.LessonID, tx *Tx) error {
	if err := tx.validate(id); err != nil {
		return err
	}
	if tx.Empty() {
		return nil
	}

	upserts := make([]any, 0, len(tx.Upserts)*2)
	for _, s := range tx.Upserts {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("%w: screen %d: %w", ErrEncode, s.ID, err)
		}
		upserts = append(upserts, s.ID.String(), string(data))
	}
	deletes := make([]string, 0, len(tx.Deletes))
	for _, screenID := range tx.Deletes {
		deletes = append(deletes, screenID.String())
	}
	seq, err := encodeOptional(tx.Sequence != nil, tx.Sequence)
	if err != nil {
		return err
	}
	page, err := encodeOptional(tx.Page != nil, tx.Page)
	if err != nil {
		return err
	}

	screensKey := r.key(id, keyScreens)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, r.prefixed(keyLessons), string(id))
		if tx.Replace {
			pipe.Del(ctx, screensKey)
		}
		if len(deletes) > 0 {
			pipe.HDel(ctx, screensKey, deletes...)
		}
		if len(upserts) > 0 {
			pipe.HSet(ctx, screensKey, upserts...)
		}
		if seq != nil {
			pipe.Set(ctx, r.key(id, keySequence), *seq, 0)
		}
		if page != nil {
			pipe.Set(ctx, r.key(id, keyPage), *page, 0)
		}
		return nil
	})
	return err
}

// Lessons lists every lesson that has been committed at least once
func (r *Redis) Lessons(ctx context.Context) ([]api.LessonID, error) {
	ids, err := r.client.SMembers(ctx, r.prefixed(keyLessons)).Result()
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	res := make([]api.LessonID, len(ids))
	for i, id := range ids {
		res[i] = api.LessonID(id)
	}
	return res, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(id api.LessonID, name string) string {
	return fmt.Sprintf("%s:lesson:%s:%s", r.prefix, id, name)
}

func (r *Redis) prefixed(name string) string {
	return r.prefix + ":" + name
}

func decodeScreen(data string) (*api.Screen, error) {
	var s api.Screen
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func encodeOptional(present bool, v any) (*string, error) {
	if !present {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	res := string(data)
	return &res, nil
}
