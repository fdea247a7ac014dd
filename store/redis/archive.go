package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/store"
)

type (
	// Archive keeps catalogs in Redis. Each dataset's events live in a
	// sorted set scored by Unix milliseconds so time ranges can be read
	// without loading the whole catalog
	Archive struct {
		client    *goredis.Client
		prefix    string
		putLua    *goredis.Script
		deleteLua *goredis.Script
		config    Config
	}

	// Config selects the Redis server and key namespace
	Config struct {
		Addr         string
		Password     string
		Prefix       string
		DB           int
		StreamMaxLen int64
	}
)

const (
	ConnectTimeout      = 5 * time.Second
	DefaultPrefix       = "tremor"
	DefaultStreamMaxLen = 10_000

	eventsSuffix  = ":events"
	extentSuffix  = ":extent"
	datasetsKey   = ":datasets"
	datasetPrefix = ":dataset:"

	// zero-padded index that keeps equal scores in catalog order
	memberIndexWidth = 10
)

var (
	// ErrUnexpectedLuaResult indicates a script returned an unknown shape
	ErrUnexpectedLuaResult = errors.New("unexpected result from Lua script")

	// ErrMalformedMember indicates a stored event could not be decoded
	ErrMalformedMember = errors.New("malformed event member")
)

// DefaultConfig returns a Config for a local Redis server
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Prefix:       DefaultPrefix,
		StreamMaxLen: DefaultStreamMaxLen,
	}
}

// ConfigFromURL parses a redis:// URL into a Config with default prefix
func ConfigFromURL(url string) (Config, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	cfg.Addr = opts.Addr
	cfg.Password = opts.Password
	cfg.DB = opts.DB
	return cfg, nil
}

// Open connects to Redis and verifies the connection
func Open(ctx context.Context, cfg Config) (*Archive, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.StreamMaxLen <= 0 {
		cfg.StreamMaxLen = DefaultStreamMaxLen
	}

	return &Archive{
		client:    client,
		prefix:    cfg.Prefix,
		putLua:    goredis.NewScript(luaPutDataset),
		deleteLua: goredis.NewScript(luaDeleteDataset),
		config:    cfg,
	}, nil
}

// Close releases the Redis connection
func (a *Archive) Close() error {
	return a.client.Close()
}

// Put replaces the named dataset in one atomic script call
func (a *Archive) Put(
	ctx context.Context, name string, rec *store.Record,
) error {
	if err := store.CheckName(name); err != nil {
		return err
	}

	keys := a.datasetKeys(name)
	args := make([]any, 0, 3+2*len(rec.Events))
	args = append(args,
		name,
		rec.Extent.Start.Format(time.RFC3339Nano),
		rec.Extent.End.Format(time.RFC3339Nano),
	)
	for i := range rec.Events {
		member, err := encodeMember(i, &rec.Events[i])
		if err != nil {
			return err
		}
		args = append(args, score(rec.Events[i].Timestamp), member)
	}

	res, err := a.putLua.Run(ctx, a.client, keys, args...).Int64()
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	if res != int64(len(rec.Events)) {
		return fmt.Errorf("put %s: %w", name, ErrUnexpectedLuaResult)
	}
	return nil
}

// Get loads the named dataset
func (a *Archive) Get(
	ctx context.Context, name string,
) (*store.Record, error) {
	ext, err := a.Extent(ctx, name)
	if err != nil {
		return nil, err
	}

	members, err := a.client.ZRange(ctx, a.eventsKey(name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	events, err := decodeMembers(members)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return &store.Record{
		Extent: ext,
		Events: events,
	}, nil
}

// Extent reads only the extent of the named dataset
func (a *Archive) Extent(
	ctx context.Context, name string,
) (tremor.Extent, error) {
	fields, err := a.client.HGetAll(ctx, a.extentKey(name)).Result()
	if err != nil {
		return tremor.Extent{}, fmt.Errorf("extent %s: %w", name, err)
	}
	if len(fields) == 0 {
		return tremor.Extent{}, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	start, err := time.Parse(time.RFC3339Nano, fields["start"])
	if err != nil {
		return tremor.Extent{}, fmt.Errorf("extent %s: %w", name, err)
	}
	end, err := time.Parse(time.RFC3339Nano, fields["end"])
	if err != nil {
		return tremor.Extent{}, fmt.Errorf("extent %s: %w", name, err)
	}
	return tremor.NewExtent(start, end), nil
}

// Window returns the events of the named dataset in (from, to], in
// catalog order, without loading the rest of the dataset
func (a *Archive) Window(
	ctx context.Context, name string, from, to time.Time,
) ([]tremor.Event, error) {
	if !to.After(from) {
		return []tremor.Event{}, nil
	}

	members, err := a.client.ZRangeByScore(ctx, a.eventsKey(name),
		&goredis.ZRangeBy{
			Min: strconv.FormatInt(from.UnixMilli(), 10),
			Max: strconv.FormatInt(to.UnixMilli(), 10),
		},
	).Result()
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", name, err)
	}

	events, err := decodeMembers(members)
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", name, err)
	}
	res := events[:0]
	for _, ev := range events {
		if ev.Timestamp.After(from) && !ev.Timestamp.After(to) {
			res = append(res, ev)
		}
	}
	return res, nil
}

// Delete removes the named dataset
func (a *Archive) Delete(ctx context.Context, name string) error {
	res, err := a.deleteLua.Run(
		ctx, a.client, a.datasetKeys(name), name,
	).Int64()
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if res == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	return nil
}

// List returns the archived dataset names in sorted order
func (a *Archive) List(ctx context.Context) ([]string, error) {
	names, err := a.client.SMembers(ctx, a.prefix+datasetsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Client exposes the underlying connection, shared with FrameStream
func (a *Archive) Client() *goredis.Client {
	return a.client
}

func (a *Archive) datasetKeys(name string) []string {
	return []string{
		a.eventsKey(name), a.extentKey(name), a.prefix + datasetsKey,
	}
}

func (a *Archive) eventsKey(name string) string {
	return a.prefix + datasetPrefix + name + eventsSuffix
}

func (a *Archive) extentKey(name string) string {
	return a.prefix + datasetPrefix + name + extentSuffix
}

func encodeMember(i int, ev *tremor.Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d:%s", memberIndexWidth, i, data), nil
}

func decodeMembers(members []string) ([]tremor.Event, error) {
	res := make([]tremor.Event, 0, len(members))
	for _, m := range members {
		_, data, ok := strings.Cut(m, ":")
		if !ok {
			return nil, ErrMalformedMember
		}
		var ev tremor.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMember, err)
		}
		res = append(res, ev)
	}
	return res, nil
}

func score(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
