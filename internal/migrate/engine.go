package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ticketferry/internal/enummap"
	"ticketferry/internal/glpi"
	"ticketferry/internal/logging"
	"ticketferry/internal/source"
	"ticketferry/internal/state"
)

// Failure stages recorded in the state store.
const (
	StageRequester  = "requester"
	StageTicket     = "ticket"
	StageWatcher    = "watcher"
	StageFollowup   = "followup"
	StageAttachment = "attachment"
)

// TargetAPI is the slice of the GLPI client the engine drives. *glpi.Client
// satisfies it.
type TargetAPI interface {
	Impersonate(ctx context.Context, s *glpi.Session, accountID int64) error
	CreateTicket(ctx context.Context, s *glpi.Session, input glpi.TicketInput) (int64, error)
	AddWatcher(ctx context.Context, s *glpi.Session, ticketID, accountID int64) error
	AddFollowup(ctx context.Context, s *glpi.Session, input glpi.FollowupInput) (int64, error)
	UploadDocument(ctx context.Context, s *glpi.Session, upload glpi.DocumentUpload) (int64, error)
	LinkDocument(ctx context.Context, s *glpi.Session, link glpi.DocumentLink) error
	DeleteDocument(ctx context.Context, s *glpi.Session, documentID int64) error
}

// SourceReader is the slice of the osTicket database the engine reads.
// *source.DB satisfies it.
type SourceReader interface {
	ThreadEntries(ctx context.Context, ticketID int64) ([]source.ThreadEntry, error)
	Collaborators(ctx context.Context, ticketID int64) ([]source.Collaborator, error)
	Attachments(ctx context.Context, entryID int64) ([]source.Attachment, error)
}

// AccountResolver maps source emails to target account ids.
type AccountResolver interface {
	Resolve(ctx context.Context, s *glpi.Session, email, realName string) (int64, error)
}

// ContentFetcher returns the raw bytes of a stored source file.
type ContentFetcher interface {
	Fetch(ctx context.Context, fileID int64) ([]byte, error)
}

// LinkStore persists migration progress. *state.Store satisfies it.
type LinkStore interface {
	LookupTicket(ctx context.Context, sourceID int64) (int64, bool, error)
	LinkTicket(ctx context.Context, sourceID, targetID int64, runID string) error
	RecordFailure(ctx context.Context, failure state.Failure) error
}

// TicketResult summarizes one replicated ticket.
type TicketResult struct {
	TargetID       int64
	Watchers       int
	Followups      int
	Documents      int
	SkippedContent int
	SoftFailures   int
}

// Engine replicates one ticket at a time. Ticket creation is the hard gate:
// a failure there aborts the ticket and nothing is linked. Every step after
// creation is best effort; failures are recorded in the state store and the
// ticket is still linked, because the target ticket already exists and a
// rerun must not duplicate it.
type Engine struct {
	target   TargetAPI
	src      SourceReader
	resolver AccountResolver
	content  ContentFetcher
	mapper   *enummap.Mapper
	store    LinkStore
	logger   *slog.Logger
	runID    string
}

// NewEngine assembles a replication engine for one run.
func NewEngine(target TargetAPI, src SourceReader, resolver AccountResolver,
	content ContentFetcher, mapper *enummap.Mapper, store LinkStore,
	logger *slog.Logger, runID string) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		target:   target,
		src:      src,
		resolver: resolver,
		content:  content,
		mapper:   mapper,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "engine"),
		runID:    runID,
	}
}

// MigrateTicket replicates one source ticket onto the target. The returned
// error is non-nil only for hard failures, where no target ticket was
// created; soft failures are counted in the result.
func (e *Engine) MigrateTicket(ctx context.Context, s *glpi.Session, ticket source.Ticket) (TicketResult, error) {
	var result TicketResult
	logger := e.logger.With(logging.Int64(logging.FieldTicketID, ticket.ID))

	requesterID, err := e.resolver.Resolve(ctx, s, ticket.RequesterEmail, ticket.RequesterName)
	if err != nil {
		e.recordFailure(ctx, ticket.ID, StageRequester, err)
		return result, fmt.Errorf("resolve requester: %w", err)
	}
	if requesterID > 0 {
		if err := e.target.Impersonate(ctx, s, requesterID); err != nil {
			e.recordFailure(ctx, ticket.ID, StageRequester, err)
			return result, fmt.Errorf("impersonate requester: %w", err)
		}
	}

	entityID := e.mapper.Entity(ticket.DepartmentID)
	targetID, err := e.target.CreateTicket(ctx, s, e.buildTicket(ticket, requesterID, entityID))
	if err != nil {
		e.recordFailure(ctx, ticket.ID, StageTicket, err)
		return result, fmt.Errorf("create ticket: %w", err)
	}
	result.TargetID = targetID
	logger.Info("ticket created", logging.Int64("target_id", targetID))

	e.migrateWatchers(ctx, s, ticket, targetID, logger, &result)
	e.migrateThread(ctx, s, ticket, targetID, entityID, requesterID, logger, &result)

	if err := e.store.LinkTicket(ctx, ticket.ID, targetID, e.runID); err != nil {
		return result, fmt.Errorf("record link: %w", err)
	}
	return result, nil
}

// buildTicket maps a source ticket into the target schema. Assignment and
// close date are carried only when the source has them; absent values must
// stay absent on the wire.
func (e *Engine) buildTicket(ticket source.Ticket, requesterID, entityID int64) glpi.TicketInput {
	input := glpi.NewTicketInput()
	input.Name = ticket.Subject
	if input.Name == "" {
		input.Name = "Ticket " + ticket.Number
	}
	input.Content = ticket.Body
	input.RequesterID = requesterID
	input.CreatorID = requesterID
	input.EntityID = entityID
	input.Status = e.mapper.Status(ticket.StatusID)
	input.CategoryID = ticket.TopicID
	input.Date = glpi.Timestamp(ticket.Created)
	input.DateCreation = glpi.Timestamp(ticket.Created)
	input.DateMod = glpi.Timestamp(ticket.LastUpdate)
	input.Priority = ticket.Priority

	if technicianID := e.mapper.Technician(ticket.StaffID); technicianID > 0 {
		input.AssigneeID = &technicianID
	}
	if ticket.Closed != nil {
		closeDate := glpi.Timestamp(*ticket.Closed)
		input.CloseDate = &closeDate
	}
	return input
}

func (e *Engine) migrateWatchers(ctx context.Context, s *glpi.Session, ticket source.Ticket,
	targetID int64, logger *slog.Logger, result *TicketResult) {
	collaborators, err := e.src.Collaborators(ctx, ticket.ID)
	if err != nil {
		logger.Warn("listing watchers failed", logging.Error(err))
		e.recordFailure(ctx, ticket.ID, StageWatcher, err)
		result.SoftFailures++
		return
	}
	for _, collaborator := range collaborators {
		accountID, err := e.resolver.Resolve(ctx, s, collaborator.Email, collaborator.Name)
		if err != nil || accountID == 0 {
			logger.Warn("watcher not resolved",
				logging.String("email", collaborator.Email), logging.Error(err))
			e.recordFailure(ctx, ticket.ID, StageWatcher,
				fmt.Errorf("watcher %q: %w", collaborator.Email, errOrUnresolved(err)))
			result.SoftFailures++
			continue
		}
		if err := e.target.AddWatcher(ctx, s, targetID, accountID); err != nil {
			logger.Warn("adding watcher failed",
				logging.String("email", collaborator.Email), logging.Error(err))
			e.recordFailure(ctx, ticket.ID, StageWatcher, err)
			result.SoftFailures++
			continue
		}
		result.Watchers++
	}
}

// migrateThread replays the conversation in creation order. The first entry's
// body already went into the ticket description, so only its attachments are
// carried; every later entry becomes a followup plus its attachments.
func (e *Engine) migrateThread(ctx context.Context, s *glpi.Session, ticket source.Ticket,
	targetID, entityID, requesterID int64, logger *slog.Logger, result *TicketResult) {
	entries, err := e.src.ThreadEntries(ctx, ticket.ID)
	if err != nil {
		logger.Warn("listing thread entries failed", logging.Error(err))
		e.recordFailure(ctx, ticket.ID, StageFollowup, err)
		result.SoftFailures++
		return
	}

	for i, entry := range entries {
		authorID := e.resolveAuthor(ctx, s, entry, requesterID, logger)

		if i > 0 {
			if authorID > 0 && authorID != s.ActiveUserID() {
				if err := e.target.Impersonate(ctx, s, authorID); err != nil {
					logger.Warn("impersonating author failed",
						logging.Int64("account_id", authorID), logging.Error(err))
					e.recordFailure(ctx, ticket.ID, StageFollowup, err)
					result.SoftFailures++
					continue
				}
			}
			if _, err := e.target.AddFollowup(ctx, s, glpi.FollowupInput{
				TicketID:  targetID,
				AuthorID:  authorID,
				Body:      entry.Body,
				CreatedAt: glpi.Timestamp(entry.Created),
				IsPrivate: !entry.IsPublicMessage(),
			}); err != nil {
				logger.Warn("adding followup failed",
					logging.Int64("entry_id", entry.ID), logging.Error(err))
				e.recordFailure(ctx, ticket.ID, StageFollowup, err)
				result.SoftFailures++
				continue
			}
			result.Followups++
		}

		e.migrateAttachments(ctx, s, ticket, entry, targetID, entityID, authorID, logger, result)
	}
}

// resolveAuthor picks the target account a thread entry is attributed to.
// Staff entries go through the technician table; resolution by email is for
// end users only. Unresolvable authors fall back to the requester so the
// entry is never lost.
func (e *Engine) resolveAuthor(ctx context.Context, s *glpi.Session,
	entry source.ThreadEntry, requesterID int64, logger *slog.Logger) int64 {
	if entry.StaffID > 0 {
		if technicianID := e.mapper.Technician(entry.StaffID); technicianID > 0 {
			return technicianID
		}
		return requesterID
	}
	if entry.UserEmail == "" {
		return requesterID
	}
	accountID, err := e.resolver.Resolve(ctx, s, entry.UserEmail, entry.UserName)
	if err != nil {
		logger.Warn("resolving entry author failed",
			logging.String("email", entry.UserEmail), logging.Error(err))
		return requesterID
	}
	if accountID == 0 {
		return requesterID
	}
	return accountID
}

// migrateAttachments runs the transfer saga for each attachment on an entry:
// fetch, upload, link, and on a link failure delete the uploaded document so
// the target is not left holding an orphan.
func (e *Engine) migrateAttachments(ctx context.Context, s *glpi.Session, ticket source.Ticket,
	entry source.ThreadEntry, targetID, entityID, authorID int64,
	logger *slog.Logger, result *TicketResult) {
	attachments, err := e.src.Attachments(ctx, entry.ID)
	if err != nil {
		logger.Warn("listing attachments failed",
			logging.Int64("entry_id", entry.ID), logging.Error(err))
		e.recordFailure(ctx, ticket.ID, StageAttachment, err)
		result.SoftFailures++
		return
	}

	for _, attachment := range attachments {
		content, err := e.content.Fetch(ctx, attachment.FileID)
		if err != nil {
			if errors.Is(err, source.ErrContentMissing) {
				logger.Warn("attachment content missing, skipping",
					logging.String("name", attachment.DisplayName()),
					logging.Int64("file_id", attachment.FileID))
				result.SkippedContent++
				continue
			}
			logger.Warn("fetching attachment failed",
				logging.String("name", attachment.DisplayName()), logging.Error(err))
			e.recordFailure(ctx, ticket.ID, StageAttachment, err)
			result.SoftFailures++
			continue
		}

		createdAt := glpi.Timestamp(attachment.Created)
		documentID, err := e.target.UploadDocument(ctx, s, glpi.DocumentUpload{
			Name:      attachment.DisplayName(),
			Content:   content,
			OwnerID:   authorID,
			EntityID:  entityID,
			CreatedAt: createdAt,
		})
		if err != nil {
			logger.Warn("uploading attachment failed",
				logging.String("name", attachment.DisplayName()), logging.Error(err))
			e.recordFailure(ctx, ticket.ID, StageAttachment, err)
			result.SoftFailures++
			continue
		}

		if err := e.target.LinkDocument(ctx, s, glpi.DocumentLink{
			DocumentID: documentID,
			TicketID:   targetID,
			OwnerID:    authorID,
			CreatedAt:  createdAt,
		}); err != nil {
			logger.Warn("linking attachment failed, deleting upload",
				logging.String("name", attachment.DisplayName()), logging.Error(err))
			if deleteErr := e.target.DeleteDocument(ctx, s, documentID); deleteErr != nil {
				logger.Error("deleting orphaned document failed",
					logging.Int64("document_id", documentID), logging.Error(deleteErr))
			}
			e.recordFailure(ctx, ticket.ID, StageAttachment, err)
			result.SoftFailures++
			continue
		}
		result.Documents++
	}
}

func (e *Engine) recordFailure(ctx context.Context, sourceID int64, stage string, cause error) {
	failure := state.Failure{
		SourceID: sourceID,
		RunID:    e.runID,
		Stage:    stage,
		Detail:   cause.Error(),
	}
	if err := e.store.RecordFailure(ctx, failure); err != nil {
		e.logger.Error("recording failure failed", logging.Error(err))
	}
}

func errOrUnresolved(err error) error {
	if err != nil {
		return err
	}
	return errors.New("no matching account")
}
