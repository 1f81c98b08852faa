package ingestion

// Suggestions are ready-made queries offered before the first search.
var Suggestions = []string{
	"Senior Frontend Developer",
	"Full Stack Engineer",
	"DevOps Specialist",
}
