package models

import "time"

// BrowserEventKind classifies diagnostics captured from the browser
type BrowserEventKind string

const (
	EventConsole       BrowserEventKind = "console"
	EventException     BrowserEventKind = "exception"
	EventRequestFailed BrowserEventKind = "request_failed"
)

// BrowserEvent is a console message, uncaught exception or failed request seen during a scenario
type BrowserEvent struct {
	Kind    BrowserEventKind `json:"kind"`
	Level   string           `json:"level,omitempty"`
	Message string           `json:"message"`
	URL     string           `json:"url,omitempty"`
	Time    time.Time        `json:"time"`
}

// SelectorMatch is the number of nodes a selector matched in a captured page
type SelectorMatch struct {
	Role     string `json:"role"` // e.g. "search input"
	Selector string `json:"selector"`
	Count    int    `json:"count"`
}
