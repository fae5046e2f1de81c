package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"yt2x/types"
)

func TestProducerPublishesJSONKeyedByItem(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	defer mp.Close()

	var got types.PostedEvent
	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "yt2x-posted" {
			t.Errorf("unexpected topic %q", msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "abc" {
			t.Errorf("unexpected key %q", key)
		}
		value, _ := msg.Value.Encode()
		return json.Unmarshal(value, &got)
	})

	p := NewProducerWithClient(mp, "yt2x-posted")
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := NewPostedEvent(types.FeedItem{ID: "abc", Title: "t"}, "p1", false, false, at)

	if err := p.PublishPosted(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ItemID != "abc" || got.PostID != "p1" || !got.PostedAt.Equal(at) {
		t.Errorf("unexpected event %+v", got)
	}
	if ev.EventID == "" {
		t.Error("expected event id")
	}
}

func TestProducerSendFailure(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	defer mp.Close()
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerWithClient(mp, "yt2x-posted")
	err := p.PublishPosted(context.Background(), NewPostedEvent(types.FeedItem{ID: "abc"}, "", false, true, time.Now()))
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Errorf("expected broker error, got %v", err)
	}
}

func TestOverrideHandler(t *testing.T) {
	var got []types.CursorOverride
	h := NewOverrideHandler(func(o types.CursorOverride) { got = append(got, o) })

	tests := []struct {
		name string
		msg  string
		mark bool
	}{
		{"valid", `{"item_id":" abc "}`, true},
		{"missing id", `{"requested_by":"ops"}`, true},
		{"garbage", `not json`, true},
	}
	for _, tt := range tests {
		mark, err := h.HandleMessage(context.Background(), []byte(tt.msg))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
		if mark != tt.mark {
			t.Errorf("%s: mark = %v, want %v", tt.name, mark, tt.mark)
		}
	}

	if len(got) != 1 || got[0].ItemID != "abc" || got[0].RequestedBy != "kafka" {
		t.Errorf("unexpected overrides %+v", got)
	}
}

func TestTypedHandlerProcessErrorLeavesUnmarked(t *testing.T) {
	h := &TypedHandler[types.CursorOverride]{
		Process: func(context.Context, *types.CursorOverride) error { return errors.New("busy") },
	}
	mark, err := h.HandleMessage(context.Background(), []byte(`{"item_id":"abc"}`))
	if err == nil || mark {
		t.Errorf("expected unmarked error, got mark=%v err=%v", mark, err)
	}
}
