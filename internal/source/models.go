package source

import "time"

// Thread entry type codes used by osTicket. Only messages are public; every
// other type migrates as a private followup.
const EntryTypeMessage = "M"

// Attachment storage backends recorded in ost_file.bk.
const BackendFilesystem = "F"

// Ticket is a read-only snapshot of one osTicket case, including the first
// thread entry's body and the requester identity.
type Ticket struct {
	ID             int64
	Number         string
	Subject        string
	Body           string
	Priority       int64
	StatusID       int64
	DepartmentID   int64
	TopicID        int64
	StaffID        int64
	SLAID          int64
	RequesterName  string
	RequesterEmail string
	Created        time.Time
	LastUpdate     time.Time
	Closed         *time.Time
	DueDate        *time.Time
}

// ThreadEntry is one message or note in a ticket's conversation, with the
// author identity joined in. StaffID and UserID are mutually exclusive; both
// zero means a system entry.
type ThreadEntry struct {
	ID        int64
	StaffID   int64
	UserID    int64
	Type      string
	Poster    string
	Body      string
	Created   time.Time
	StaffName string
	UserName  string
	UserEmail string
}

// IsPublicMessage reports whether the entry migrates as a public followup.
func (e ThreadEntry) IsPublicMessage() bool {
	return e.Type == EntryTypeMessage
}

// Collaborator is a watcher on a ticket.
type Collaborator struct {
	Email string
	Name  string
	Role  string
}

// Attachment is a human-visible file bound to a thread entry. Name falls back
// to the stored file name when the attachment has no display name.
type Attachment struct {
	ID       int64
	EntryID  int64
	FileID   int64
	Name     string
	FileName string
	Size     int64
	Created  time.Time
}

// DisplayName returns the name the migrated document should carry.
func (a Attachment) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.FileName
}

// FileBacking describes where an attachment's bytes live: the filesystem
// (sharded by the key's first character) or chunk rows in ost_file_chunk.
type FileBacking struct {
	Backend string
	Key     string
}
