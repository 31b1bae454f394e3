package dto

import "strings"

type InstallVersionRequest struct {
	Version string `json:"version"`
}

func (r *InstallVersionRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Version) == "" {
		errors["version"] = "version is required"
	}
	return errors
}

type InstallPackageRequest struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

func (r *InstallPackageRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "package name is required"
	}
	return errors
}
