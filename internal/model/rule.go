package model

// RuleInfo describes one registry entry for listing.
type RuleInfo struct {
	Pattern     string
	Behavior    string
	Severity    string
	Code        string
	Description string
}
