package hermes

const (
	SubjectReportRequest = "scorecard.report.request"
	SubjectStats         = "scorecard.stats"

	StreamName   = "SCORECARD_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

// StreamSubjects are captured by the JetStream stream.
var StreamSubjects = []string{"scorecard.report.>", "scorecard.stats"}

func SubjectReportAssembled(reportID string) string {
	return "scorecard.report." + reportID + ".assembled"
}

// SubjectReportLabelled lets consumers subscribe to one label only, e.g.
// "scorecard.report.*.labelled.STRONG_BUY".
func SubjectReportLabelled(reportID, label string) string {
	return "scorecard.report." + reportID + ".labelled." + label
}
