package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kode4food/tremor"
)

type (
	// FrameStream is a View that publishes every push to a Redis stream so
	// other processes can follow a playback session
	FrameStream struct {
		ctx    context.Context
		client *goredis.Client
		logger *zap.Logger
		key    string
		maxLen int64
	}

	// StreamEntry is one decoded stream message
	StreamEntry struct {
		ID       string           `json:"-"`
		Kind     EntryKind        `json:"kind"`
		Session  uuid.UUID        `json:"session,omitzero"`
		Seq      uint64           `json:"seq,omitempty"`
		Time     time.Time        `json:"time,omitzero"`
		Step     time.Duration    `json:"step,omitempty"`
		Progress float64          `json:"progress,omitempty"`
		Motion   string           `json:"motion,omitempty"`
		State    string           `json:"state,omitempty"`
		Events   []tremor.Event   `json:"events,omitempty"`
		IDs      []tremor.EventID `json:"-"`
	}

	// EntryKind distinguishes the View calls carried by the stream
	EntryKind string
)

const (
	KindFrame  EntryKind = "frame"
	KindClear  EntryKind = "clear"
	KindPause  EntryKind = "pause"
	KindResume EntryKind = "resume"

	payloadField = "payload"
	framesSuffix = ":frames"
)

// ErrStreamEntryMalformed indicates a stream entry could not be decoded
var ErrStreamEntryMalformed = errors.New("stream entry malformed")

// NewFrameStream creates a View that publishes to the archive's frame
// stream. Publishing failures are logged and never block playback
func (a *Archive) NewFrameStream(
	ctx context.Context, logger *zap.Logger,
) *FrameStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FrameStream{
		ctx:    ctx,
		client: a.client,
		logger: logger,
		key:    a.prefix + framesSuffix,
		maxLen: a.config.StreamMaxLen,
	}
}

// Key returns the stream key being published to
func (s *FrameStream) Key() string {
	return s.key
}

// Tick publishes the frame
func (s *FrameStream) Tick(f *tremor.Frame) {
	events := make([]tremor.Event, len(f.Events))
	for i, ev := range f.Events {
		events[i] = *ev
	}
	s.publish(&StreamEntry{
		Kind:     KindFrame,
		Session:  f.Session,
		Seq:      f.Seq,
		Time:     f.Time,
		Step:     f.Step,
		Progress: f.Progress,
		Motion:   f.Motion.String(),
		State:    f.State.String(),
		Events:   events,
	})
}

// Clear publishes a clear marker
func (s *FrameStream) Clear() {
	s.publish(&StreamEntry{Kind: KindClear})
}

// PauseTransitions publishes a pause marker
func (s *FrameStream) PauseTransitions() {
	s.publish(&StreamEntry{Kind: KindPause})
}

// ResumeTransitions publishes a resume marker
func (s *FrameStream) ResumeTransitions() {
	s.publish(&StreamEntry{Kind: KindResume})
}

func (s *FrameStream) publish(e *StreamEntry) {
	payload, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("Failed to encode stream entry", zap.Error(err))
		return
	}

	err = s.client.XAdd(s.ctx, &goredis.XAddArgs{
		Stream: s.key,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{payloadField: string(payload)},
	}).Err()
	if err != nil {
		s.logger.Warn("Failed to publish stream entry",
			zap.String("kind", string(e.Kind)),
			zap.String("stream", s.key),
			zap.Error(err),
		)
	}
}

// ReadFrames returns up to count entries published after the given
// stream ID. Use "0" to read from the beginning. A positive block waits
// for new entries; no entries within the wait is not an error
func (a *Archive) ReadFrames(
	ctx context.Context, after string, count int64, block time.Duration,
) ([]*StreamEntry, error) {
	if after == "" {
		after = "0"
	}
	args := &goredis.XReadArgs{
		Streams: []string{a.prefix + framesSuffix, after},
		Count:   count,
		Block:   block,
	}
	if block <= 0 {
		args.Block = -1
	}

	streams, err := a.client.XRead(ctx, args).Result()
	if errors.Is(err, goredis.Nil) {
		return []*StreamEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	res := []*StreamEntry{}
	for _, st := range streams {
		for _, msg := range st.Messages {
			e, err := parseStreamEntry(msg)
			if err != nil {
				return nil, err
			}
			res = append(res, e)
		}
	}
	return res, nil
}

func parseStreamEntry(msg goredis.XMessage) (*StreamEntry, error) {
	raw, ok := msg.Values[payloadField]
	if !ok {
		return nil, ErrStreamEntryMalformed
	}

	payload, ok := raw.(string)
	if !ok {
		if b, okBytes := raw.([]byte); okBytes {
			payload = string(b)
		} else {
			return nil, ErrStreamEntryMalformed
		}
	}

	e := &StreamEntry{}
	if err := json.Unmarshal([]byte(payload), e); err != nil {
		return nil, errors.Join(ErrStreamEntryMalformed, err)
	}
	e.ID = msg.ID
	e.IDs = make([]tremor.EventID, len(e.Events))
	for i, ev := range e.Events {
		e.IDs[i] = ev.ID
	}
	return e, nil
}
