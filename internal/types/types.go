package types

// WordType classifies what kind of pattern produced a match.
type WordType string

const (
	TypeWord  WordType = "word"
	TypeURL   WordType = "url"
	TypeEmail WordType = "email"
	TypeNum   WordType = "num"
	TypeIPv4  WordType = "ipv4"
)

// Mode selects how a scan terminates.
type Mode int

const (
	// CollectAll reports every non-overlapping match left to right.
	CollectAll Mode = iota
	// StopAtFirst ends the scan right after the first reported match.
	StopAtFirst
)

func (m Mode) String() string {
	if m == StopAtFirst {
		return "first"
	}
	return "all"
}

// ParseMode maps "all"/"first" (and a few aliases) to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "all", "collect-all", "fail-over":
		return CollectAll, true
	case "first", "stop-at-first", "fail-fast":
		return StopAtFirst, true
	}
	return CollectAll, false
}

// Match is one reported occurrence. Start and End are rune indices into the
// original text; End is exclusive.
type Match struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Type  WordType `json:"type"`
	Text  string   `json:"text"`
	Tags  []string `json:"tags,omitempty"`
}

// Len returns the match length in runes.
func (m Match) Len() int { return m.End - m.Start }

// Severity is a coarse-grained risk level for a finding.
type Severity string

const (
	SevLow  Severity = "low"
	SevMed  Severity = "medium"
	SevHigh Severity = "high"
)

// SeverityOf maps a match type to the severity used by file reports.
// Dictionary hits rank highest.
func SeverityOf(t WordType) Severity {
	switch t {
	case TypeWord:
		return SevHigh
	case TypeURL, TypeEmail:
		return SevMed
	default:
		return SevLow
	}
}

// Finding describes a match located inside a scanned file.
type Finding struct {
	Path     string   `json:"path"`
	Line     int      `json:"line"`
	Column   int      `json:"column,omitempty"`
	Match    string   `json:"match"`
	Type     WordType `json:"type"`
	Severity Severity `json:"severity"`
	Tags     []string `json:"tags,omitempty"`
}

// Blob is file content held in memory, such as a git object. Rev, when set,
// names the revision it was read from.
type Blob struct {
	Path string
	Rev  string
	Data []byte
}

// Name is the path used in findings: "rev:path" for blobs with a revision.
func (b Blob) Name() string {
	if b.Rev == "" {
		return b.Path
	}
	return b.Rev + ":" + b.Path
}
