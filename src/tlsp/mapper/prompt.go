package mapper

import (
	"github.com/toitware/tlsp/src/tlsp/entity"
	"go.lsp.dev/protocol"
)

// ActionsToMessageActionItems maps action titles to protocol.MessageActionItem.
func ActionsToMessageActionItems(actions []string) []protocol.MessageActionItem {
	if len(actions) == 0 {
		return nil
	}
	items := make([]protocol.MessageActionItem, len(actions))
	for i, a := range actions {
		items[i] = protocol.MessageActionItem{Title: a}
	}
	return items
}

// MessageActionItemToResult maps the answer to a showMessageRequest into a Result.
// A dismissed prompt is a cancellation, not an error.
func MessageActionItemToResult(item *protocol.MessageActionItem, err error) entity.Result[string] {
	if err != nil {
		return entity.Failed[string](err)
	}
	if item == nil || item.Title == "" {
		return entity.Cancelled[string]()
	}
	return entity.Ok(item.Title)
}
