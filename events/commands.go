package events

import (
	"context"
	"strings"

	"yt2x/logger"
	"yt2x/types"
)

// NewOverrideHandler decodes cursor override commands and hands them to submit. Commands
// without an item id are dropped.
func NewOverrideHandler(submit func(types.CursorOverride)) *TypedHandler[types.CursorOverride] {
	log := logger.New("commands")
	return &TypedHandler[types.CursorOverride]{
		Validate: func(msg *types.CursorOverride) bool {
			msg.ItemID = strings.TrimSpace(msg.ItemID)
			if msg.ItemID == "" {
				log.Println("❌ override missing item_id, skipping")
				return false
			}
			return true
		},
		Process: func(_ context.Context, msg *types.CursorOverride) error {
			if msg.RequestedBy == "" {
				msg.RequestedBy = "kafka"
			}
			submit(*msg)
			log.Printf("✅ cursor override queued: %s (by %s)", msg.ItemID, msg.RequestedBy)
			return nil
		},
		MarkInvalid: true,
		Logger:      log,
	}
}
