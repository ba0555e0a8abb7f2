package timestamp

// Format is a known timestamp layout accepted by the permissive parser.
type Format struct {
	Name      string   // Human-readable name
	Layout    string   // Go time layout, or one of the UNIX_* markers
	Examples  []string // Example timestamps
	Zoned     bool     // True if the layout carries a zone or offset
	Ambiguous bool     // True if format has date ordering ambiguity (MM/DD vs DD/MM)
}

// Special layouts handled without time.Parse.
const (
	LayoutUnixSeconds = "UNIX_SECONDS"
	LayoutUnixMillis  = "UNIX_MILLIS"
)

// FormatISO8601 is reported for values accepted by the strict ISO-8601 pass.
const FormatISO8601 = "ISO 8601"

// isoLayouts are tried in order by the strict pass. Fractional seconds are
// accepted after the seconds field even though no layout spells them out.
var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{"2006-01-02T15:04:05-07:00", true},
	{"2006-01-02T15:04:05-0700", true},
	{"2006-01-02T15:04-07:00", true},
	{"2006-01-02 15:04:05-07:00", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
}

// DefaultFormats returns the layouts tried after strict ISO-8601 fails.
// Formats are ordered roughly by specificity (more specific patterns first).
func DefaultFormats() []*Format {
	return []*Format{
		{
			Name:     "RFC 3339 with nanoseconds",
			Layout:   "2006-01-02T15:04:05.999999999Z07:00",
			Examples: []string{"2024-01-15T10:30:00.123456789Z"},
			Zoned:    true,
		},
		{
			Name:     "RFC 1123 with numeric zone",
			Layout:   "Mon, 02 Jan 2006 15:04:05 -0700",
			Examples: []string{"Mon, 15 Jan 2024 10:30:00 +0000"},
			Zoned:    true,
		},
		{
			Name:     "RFC 1123",
			Layout:   "Mon, 02 Jan 2006 15:04:05 MST",
			Examples: []string{"Mon, 15 Jan 2024 10:30:00 UTC"},
			Zoned:    true,
		},
		{
			Name:     "Apache/NGINX CLF",
			Layout:   "02/Jan/2006:15:04:05 -0700",
			Examples: []string{"15/Jun/2024:10:30:00 +0000"},
			Zoned:    true,
		},
		{
			Name:     "Datetime with zone abbreviation",
			Layout:   "2006-01-02 15:04:05 MST",
			Examples: []string{"2024-01-15 10:30:00 UTC"},
			Zoned:    true,
		},
		{
			Name:     "Python logging",
			Layout:   "2006-01-02 15:04:05,000",
			Examples: []string{"2024-01-15 10:30:00,123"},
		},
		{
			Name:     "Slash-separated date",
			Layout:   "2006/01/02 15:04:05",
			Examples: []string{"2024/01/15 10:30:00"},
		},
		{
			Name:     "Syslog with year",
			Layout:   "Jan 2 2006 15:04:05",
			Examples: []string{"Jun 14 2024 15:16:01"},
		},
		{
			Name:     "Long month name",
			Layout:   "January 2, 2006 15:04",
			Examples: []string{"January 15, 2024 10:30"},
		},
		{
			Name:     "Apache error log",
			Layout:   "Mon Jan 02 15:04:05 2006",
			Examples: []string{"Sun Dec 04 04:47:44 2005"},
		},
		{
			Name:     "Unix timestamp (seconds)",
			Layout:   LayoutUnixSeconds,
			Examples: []string{"1705315800"},
			Zoned:    true,
		},
		{
			Name:     "Unix timestamp (milliseconds)",
			Layout:   LayoutUnixMillis,
			Examples: []string{"1705315800000"},
			Zoned:    true,
		},
		{
			Name:      "US date format (MM/DD/YYYY)",
			Layout:    "01/02/2006 15:04:05",
			Examples:  []string{"01/15/2024 10:30:00"},
			Ambiguous: true,
		},
	}
}
