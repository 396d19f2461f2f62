package common

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"
)

// PasswordEnv - Environment variable holding the password or key passphrase.
const PasswordEnv = "SSH_PASSWORD"

// Profile - Defaults for a type of device.
type Profile struct {
	Username           string  `json:"username"`
	Range              string  `json:"range"`
	KeyEnv             string  `json:"key_env"` // Environment variable holding the private key
	TimeoutSeconds     float64 `json:"timeout_seconds"`
	ScanTimeoutSeconds float64 `json:"scan_timeout_seconds"`
}

// DefaultProfiles - Built-in device profiles, by tag.
var DefaultProfiles = map[string]Profile{
	"hc":  {Username: "root", Range: "10.8.0.0/24", KeyEnv: "HC_PRIVATE_KEY", TimeoutSeconds: 3, ScanTimeoutSeconds: 15},
	"ai2": {Username: "nano", Range: "10.8.0.0/24", KeyEnv: "AI3_PRIVATE_KEY", TimeoutSeconds: 3, ScanTimeoutSeconds: 15},
	"ai3": {Username: "pi", Range: "192.168.255.0/24", KeyEnv: "AI3_PRIVATE_KEY", TimeoutSeconds: 3, ScanTimeoutSeconds: 15},
}

// LookupProfile - Find a profile by tag, config profiles first.
func LookupProfile(config Config, tag string) (Profile, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if profile, ok := config.Profiles[tag]; ok {
		return profile, true
	}
	profile, ok := DefaultProfiles[tag]
	return profile, ok
}

// ProfileTags - All known profile tags, sorted.
func ProfileTags(config Config) []string {
	seen := make(map[string]bool)
	for tag := range DefaultProfiles {
		seen[tag] = true
	}
	for tag := range config.Profiles {
		seen[tag] = true
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ScanOptions - Raw scan request, as given on the command line.
// Zero values mean "not given".
type ScanOptions struct {
	TargetMAC          string
	Range              string
	Username           string
	Password           string
	KeyPath            string
	Profile            string
	Port               int
	TimeoutSeconds     float64
	ScanTimeoutSeconds float64
}

// ResolvedScan - Everything the scanner needs for one scan.
type ResolvedScan struct {
	TargetMAC   string
	Range       string
	Probe       ProbeConfig
	ScanTimeout time.Duration // Zero for none
}

// ResolveScan - Merge options, profile, config and environment into a scan request.
// Precedence is options, then profile, then config, then defaults.
func ResolveScan(options ScanOptions, config Config, lookupEnv func(string) (string, bool)) (ResolvedScan, error) {
	var resolved ResolvedScan

	// Target
	mac, err := net.ParseMAC(strings.TrimSpace(options.TargetMAC))
	if err != nil || len(mac) != 6 {
		return resolved, fmt.Errorf("invalid target hardware address: %q", options.TargetMAC)
	}
	resolved.TargetMAC = mac.String()

	var profile Profile
	if options.Profile != "" {
		var ok bool
		profile, ok = LookupProfile(config, options.Profile)
		if !ok {
			return resolved, fmt.Errorf("unknown profile %q (known: %v)", options.Profile, strings.Join(ProfileTags(config), ", "))
		}
	}

	resolved.Range = firstString(options.Range, profile.Range)
	if resolved.Range == "" {
		return resolved, errors.New("missing address range")
	}

	resolved.Probe = ProbeConfig{
		Username:       firstString(options.Username, profile.Username, "root"),
		Port:           firstInt(options.Port, config.Port),
		Timeout:        secondsToDuration(firstFloat(options.TimeoutSeconds, profile.TimeoutSeconds, config.TimeoutSeconds)),
		Command:        config.Command,
		KnownHostsPath: config.KnownHostsPath,
	}.WithDefaults()
	resolved.ScanTimeout = secondsToDuration(firstFloat(options.ScanTimeoutSeconds, profile.ScanTimeoutSeconds, config.ScanTimeoutSeconds))

	// Credential: key file, then profile key material, then password
	password := options.Password
	if password == "" {
		password, _ = lookupEnv(PasswordEnv)
	}
	switch {
	case options.KeyPath != "":
		resolved.Probe.Credential = KeyFileCredential(options.KeyPath, password)
	case profile.KeyEnv != "":
		material, _ := lookupEnv(profile.KeyEnv)
		if strings.TrimSpace(material) == "" {
			return resolved, fmt.Errorf("private key not found in environment variable %v", profile.KeyEnv)
		}
		resolved.Probe.Credential = KeyMaterialCredential(material, password)
	case password != "":
		resolved.Probe.Credential = PasswordCredential(password)
	default:
		return resolved, fmt.Errorf("no credential given, use --key, --password or %v", PasswordEnv)
	}

	return resolved, nil
}

func firstString(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

func firstInt(values ...int) int {
	for _, value := range values {
		if value > 0 {
			return value
		}
	}
	return 0
}

func firstFloat(values ...float64) float64 {
	for _, value := range values {
		if value > 0 {
			return value
		}
	}
	return 0
}
