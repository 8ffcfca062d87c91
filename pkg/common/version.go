package common

import "fmt"

// NAME of the App
var NAME = "openblas-fetch"

// SUMMARY of the Version
var SUMMARY = "0.0.0-dev"

// BRANCH of the Version
var BRANCH = "dev"

// VERSION of Release
var VERSION = "0.0.0"

// COMMIT of Release
var COMMIT = "dirty"

// AppVersion --
var AppVersion AppVersionInfo

// AppVersionInfo --
type AppVersionInfo struct {
	Name    string
	Version string
	Branch  string
	Summary string
	Commit  string
}

// UserAgent is sent with every outbound request
func (a AppVersionInfo) UserAgent() string {
	return fmt.Sprintf("%s/%s", a.Name, a.Summary)
}

func init() {
	if SUMMARY == "" {
		SUMMARY = VERSION
	}

	AppVersion = AppVersionInfo{
		Name:    NAME,
		Version: VERSION,
		Branch:  BRANCH,
		Summary: SUMMARY,
		Commit:  COMMIT,
	}
}
