package glpi

import (
	"context"
	"fmt"
)

// FollowupInput describes one replayed conversation entry.
type FollowupInput struct {
	TicketID  int64
	AuthorID  int64
	Body      string
	CreatedAt string
	IsPrivate bool
}

// AddFollowup appends a followup to a ticket and returns the followup id.
func (c *Client) AddFollowup(ctx context.Context, s *Session, input FollowupInput) (int64, error) {
	isPrivate := 0
	if input.IsPrivate {
		isPrivate = 1
	}
	payload := map[string]any{
		"input": map[string]any{
			"items_id":      input.TicketID,
			"itemtype":      "Ticket",
			"content":       input.Body,
			"date_creation": input.CreatedAt,
			"users_id":      input.AuthorID,
			"is_private":    isPrivate,
		},
	}

	var response idPayload
	if _, err := c.postJSON(ctx, s, "/ITILFollowup", payload, &response); err != nil {
		return 0, fmt.Errorf("add followup to ticket %d: %w", input.TicketID, err)
	}
	id, ok := response.value()
	if !ok {
		return 0, fmt.Errorf("add followup to ticket %d: %w", input.TicketID, ErrMissingID)
	}
	return id, nil
}
