package glpi

import (
	"context"
	"fmt"
)

// Fixed GLPI ticket attributes applied to every migrated ticket.
const (
	ticketTypeIncident = 1
	ticketUrgency      = 3
	ticketImpact       = 3
	watcherLinkType    = 3
)

// TicketInput maps a resolved source ticket into the GLPI ticket schema.
// AssigneeID and CloseDate are omitted from the payload entirely when nil;
// GLPI treats an explicit zero assignee differently from an absent one.
type TicketInput struct {
	Name         string `json:"name"`
	Content      string `json:"content"`
	RequesterID  int64  `json:"_users_id_requester"`
	CreatorID    int64  `json:"_users_id_creator"`
	EntityID     int64  `json:"entities_id"`
	Status       int64  `json:"status"`
	Date         string `json:"date"`
	DateCreation string `json:"date_creation"`
	DateMod      string `json:"date_mod"`
	Priority     int64  `json:"priority"`
	CategoryID   int64  `json:"itilcategories_id"`
	Type         int    `json:"type"`
	Urgency      int    `json:"urgency"`
	Impact       int    `json:"impact"`
	AutoImport   bool   `json:"_auto_import"`

	AssigneeID *int64  `json:"_users_id_assign,omitempty"`
	CloseDate  *string `json:"closedate,omitempty"`
}

// NewTicketInput returns a TicketInput with the fixed migration attributes
// set.
func NewTicketInput() TicketInput {
	return TicketInput{
		Type:       ticketTypeIncident,
		Urgency:    ticketUrgency,
		Impact:     ticketImpact,
		AutoImport: true,
	}
}

// CreateTicket creates a ticket and returns its id. A success response
// without an id yields ErrMissingID; callers must treat that as a failed
// creation and skip the ticket's remaining steps.
func (c *Client) CreateTicket(ctx context.Context, s *Session, input TicketInput) (int64, error) {
	payload := map[string]any{"input": input}

	var response idPayload
	if _, err := c.postJSON(ctx, s, "/Ticket", payload, &response); err != nil {
		return 0, fmt.Errorf("create ticket %q: %w", input.Name, err)
	}
	id, ok := response.value()
	if !ok {
		return 0, fmt.Errorf("create ticket %q: %w", input.Name, ErrMissingID)
	}
	return id, nil
}

// AddWatcher attaches an account to a ticket as a watcher.
func (c *Client) AddWatcher(ctx context.Context, s *Session, ticketID, accountID int64) error {
	payload := map[string]any{
		"input": map[string]any{
			"tickets_id": ticketID,
			"users_id":   accountID,
			"type":       watcherLinkType,
		},
	}
	if _, err := c.postJSON(ctx, s, "/Ticket_User", payload, nil); err != nil {
		return fmt.Errorf("add watcher %d to ticket %d: %w", accountID, ticketID, err)
	}
	return nil
}
