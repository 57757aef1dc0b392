package version

// Version is the current version of the supervisor console engine
const Version = "0.4.2"

// UserAgent returns the User-Agent string for collaborator requests
func UserAgent() string {
	return "supervisor-console/" + Version
}
