package domain

import "encoding/json"

// NodeVersion is an installed runtime version found under the install root.
type NodeVersion struct {
	Version       string `json:"version"`
	Path          string `json:"path"`
	IsActive      bool   `json:"isActive"`
	InstalledDate string `json:"installedDate"`
	Size          int64  `json:"size"`
}

// AvailableVersion is one entry of the mirror's index.json catalog.
type AvailableVersion struct {
	Version string          `json:"version"`
	Date    string          `json:"date"`
	Files   []string        `json:"files"`
	NPM     string          `json:"npm,omitempty"`
	LTS     json.RawMessage `json:"lts"` // false or a codename string
}
