package config

const (
	defaultStateDir         = "~/.local/share/ticketferry"
	defaultAttachmentsDir   = "/opt/osticket/data/attachments"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultRequestTimeout   = 30
	defaultMaxOpenConns     = 4
	defaultNoReplyEmail     = "no_reply@example.com"
	defaultNoReplyAccountID = 999999
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Source: Source{
			AttachmentsDir: defaultAttachmentsDir,
			MaxOpenConns:   defaultMaxOpenConns,
		},
		Target: Target{
			RequestTimeout: defaultRequestTimeout,
		},
		Identity: Identity{
			NoReplyEmail:     defaultNoReplyEmail,
			NoReplyAccountID: defaultNoReplyAccountID,
		},
		Mappings: Mappings{
			Departments: map[string]int64{},
			Statuses:    map[string]int64{},
			Staff:       map[string]int64{},
		},
		State: State{
			Dir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
