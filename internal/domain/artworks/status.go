package artworks

// Analysis states an artwork moves through.
//
//	pending -> analyzing -> complete | failed
//	complete | failed -> analyzing (re-analysis)
const (
	StatusPending   = "pending"
	StatusAnalyzing = "analyzing"
	StatusComplete  = "complete"
	StatusFailed    = "failed"
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Titles shown to readers while the record is not analyzed.
const (
	TitleAnalyzing        = "Analyzing..."
	TitleReanalyzing      = "Re-analyzing..."
	TitleAnalysisFailed   = "Analysis Failed"
	TitleReanalysisFailed = "Re-analysis Failed"
)

var conditions = map[string]bool{
	"Excellent": true,
	"Good":      true,
	"Fair":      true,
	"Poor":      true,
}

// ValidCondition reports whether c is one of Excellent, Good, Fair, Poor.
func ValidCondition(c string) bool {
	return conditions[c]
}

// ValidVisibility reports whether v is public or private.
func ValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// CanStartAnalysis reports whether a new analysis may begin from status.
func CanStartAnalysis(status string) bool {
	return status != StatusAnalyzing
}
