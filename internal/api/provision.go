package api

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ProvisionRequest contains everything needed to kickstart a single domain.
type ProvisionRequest struct {
	ConfigPath   string `json:"cfg_path"`
	ImagePath    string `json:"img_path"`
	InstallURL   string `json:"install_url"`
	DiskSizeMB   int64  `json:"disk_size_mb"`
	RootPassword string `json:"root_passwd"`
	BridgeName   string `json:"bridge_name"`
	KickstartURL string `json:"ksurl"`
	Name         string `json:"name"`
	RAMMB        int64  `json:"ram_mb"`
	Extra        string `json:"extra,omitempty"`
}

// Validate reports every missing or malformed field at once.
func (r ProvisionRequest) Validate() error {
	var errs []error

	required := []struct {
		field string
		value string
	}{
		{"cfg-path", r.ConfigPath},
		{"img-path", r.ImagePath},
		{"install-url", r.InstallURL},
		{"root-passwd", r.RootPassword},
		{"bridge-name", r.BridgeName},
		{"ksurl", r.KickstartURL},
		{"name", r.Name},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", f.field))
		}
	}

	if r.DiskSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("disk-size must be a positive number of MB, got %d", r.DiskSizeMB))
	}
	if r.RAMMB <= 0 {
		errs = append(errs, fmt.Errorf("ram must be a positive number of MB, got %d", r.RAMMB))
	}

	for _, u := range []struct {
		field string
		value string
	}{
		{"install-url", r.InstallURL},
		{"ksurl", r.KickstartURL},
	} {
		if u.value == "" {
			continue
		}
		if err := validateHTTPURL(u.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u.field, err))
		}
	}

	return errors.Join(errs...)
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
