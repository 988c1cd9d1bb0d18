package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/donaldfilimon/ovo/internal/cache"
	"github.com/donaldfilimon/ovo/internal/tooldetect"
)

// HealthCheck is a single diagnostic check against the local toolchain,
// cache, or lockfile.
type HealthCheck interface {
	Name() string
	Description() string
	Run() CheckResult
	CanAutoFix() bool
	Fix() error
	Severity() Severity
}

// CheckResult contains the outcome of a health check.
type CheckResult struct {
	Status     Status
	Message    string
	Details    string
	FixCommand string
	Impact     string
}

// Status represents check status.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
	StatusCritical
)

// Severity indicates how important a fix is.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// HealthReport summarizes a Doctor run.
type HealthReport struct {
	TotalChecks int
	Passed      int
	Warnings    int
	Errors      int
	Critical    int
	StartTime   time.Time
	EndTime     time.Time
	Score       int
}

// Doctor runs health checks over external tool availability, cache
// integrity, and config directory permissions, re-expressing the
// teacher's container-runtime/pnpm health framework against this
// system's own external dependencies (git/curl/tar/vcpkg/conan/
// pkg-config) and on-disk state (cache index, config dir).
type Doctor struct {
	checks  []HealthCheck
	cfg     Config
	cache   *cache.Cache
	verbose bool
}

// NewDoctor builds a Doctor wired against cfg's cache directory.
func NewDoctor(cfg Config, c *cache.Cache, verbose bool) *Doctor {
	return &Doctor{
		cfg:     cfg,
		cache:   c,
		verbose: verbose,
		checks: []HealthCheck{
			&ExternalToolsCheck{},
			&VcpkgConanCheck{},
			&ConfigDirCheck{Dir: filepath.Dir(cfg.LockfilePath)},
			&CacheHealthCheck{Cache: c},
		},
	}
}

// Run executes every check and returns a scored report.
func (d *Doctor) Run() (HealthReport, []CheckResult) {
	rpt := HealthReport{StartTime: time.Now()}
	var results []CheckResult
	for _, c := range d.checks {
		res := c.Run()
		results = append(results, res)
		rpt.TotalChecks++
		switch res.Status {
		case StatusOK:
			rpt.Passed++
		case StatusWarning:
			rpt.Warnings++
		case StatusError:
			rpt.Errors++
		case StatusCritical:
			rpt.Critical++
		}
	}
	rpt.EndTime = time.Now()
	score := 100 - rpt.Warnings*5 - rpt.Errors*15 - rpt.Critical*25
	if score < 0 {
		score = 0
	}
	rpt.Score = score
	return rpt, results
}

// Fix runs every auto-fixable check's Fix method, returning the first
// error encountered.
func (d *Doctor) Fix() error {
	for _, c := range d.checks {
		if !c.CanAutoFix() {
			continue
		}
		if err := c.Fix(); err != nil {
			return fmt.Errorf("%s: %w", c.Name(), err)
		}
	}
	return nil
}

// ExternalToolsCheck verifies git/curl/tar are reachable on PATH; unzip
// is not checked.
type ExternalToolsCheck struct{}

func (c *ExternalToolsCheck) Name() string        { return "external-tools" }
func (c *ExternalToolsCheck) Description() string { return "checks git/curl/tar are on PATH" }
func (c *ExternalToolsCheck) Severity() Severity   { return SeverityCritical }
func (c *ExternalToolsCheck) CanAutoFix() bool     { return false }
func (c *ExternalToolsCheck) Fix() error           { return nil }

func (c *ExternalToolsCheck) Run() CheckResult {
	required := []string{tooldetect.Git, tooldetect.Curl, tooldetect.Tar}
	var missing []string
	for _, name := range required {
		if _, ok := tooldetect.Find(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return CheckResult{Status: StatusOK, Message: "git, curl, and tar are available"}
	}
	return CheckResult{
		Status:  StatusCritical,
		Message: "missing required tools: " + strings.Join(missing, ", "),
		Impact:  "git and archive sources cannot be fetched",
	}
}

// VcpkgConanCheck reports on optional vcpkg/conan/pkg-config presence;
// absence is a warning, not an error, since not every manifest uses
// those source types.
type VcpkgConanCheck struct{}

func (c *VcpkgConanCheck) Name() string        { return "vcpkg-conan" }
func (c *VcpkgConanCheck) Description() string { return "checks optional vcpkg/conan/pkg-config tooling" }
func (c *VcpkgConanCheck) Severity() Severity   { return SeverityLow }
func (c *VcpkgConanCheck) CanAutoFix() bool     { return false }
func (c *VcpkgConanCheck) Fix() error           { return nil }

func (c *VcpkgConanCheck) Run() CheckResult {
	var notes []string
	if _, ok := tooldetect.FindVcpkgRoot(); !ok {
		notes = append(notes, "vcpkg root not found")
	}
	if info, err := os.Stat(tooldetect.FindConanHome()); err != nil || !info.IsDir() {
		notes = append(notes, "conan home not found")
	}
	if _, ok := tooldetect.FindPkgConfig(); !ok {
		notes = append(notes, "pkg-config/pkgconf not found")
	}
	if len(notes) == 0 {
		return CheckResult{Status: StatusOK, Message: "vcpkg, conan, and pkg-config all detected"}
	}
	return CheckResult{
		Status:  StatusWarning,
		Message: strings.Join(notes, "; "),
		Impact:  "vcpkg/conan/system sources using these tools will fail to resolve",
	}
}

// ConfigDirCheck verifies the lockfile's parent directory exists and is a
// directory, auto-fixing by creating it with 0o755 permissions. Write
// permission is not checked.
type ConfigDirCheck struct {
	Dir string
}

func (c *ConfigDirCheck) Name() string        { return "config-dir" }
func (c *ConfigDirCheck) Description() string { return "checks the project config directory exists" }
func (c *ConfigDirCheck) Severity() Severity   { return SeverityMedium }
func (c *ConfigDirCheck) CanAutoFix() bool     { return true }

func (c *ConfigDirCheck) Run() CheckResult {
	if c.Dir == "" || c.Dir == "." {
		return CheckResult{Status: StatusOK, Message: "using current directory"}
	}
	info, err := os.Stat(c.Dir)
	if err != nil {
		return CheckResult{
			Status:     StatusWarning,
			Message:    c.Dir + " does not exist",
			FixCommand: "mkdir -p " + c.Dir,
		}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusError, Message: c.Dir + " exists but is not a directory"}
	}
	return CheckResult{Status: StatusOK, Message: c.Dir + " is present"}
}

func (c *ConfigDirCheck) Fix() error {
	if c.Dir == "" || c.Dir == "." {
		return nil
	}
	return os.MkdirAll(c.Dir, 0o755)
}

// CacheHealthCheck verifies the cache index can be read and reports
// basic stats. A corrupt index.json reads as an empty index in the cache
// package, so it reports OK; a warning comes only when the index cannot
// be opened, locked or read.
type CacheHealthCheck struct {
	Cache *cache.Cache
}

func (c *CacheHealthCheck) Name() string        { return "cache-health" }
func (c *CacheHealthCheck) Description() string { return "checks cache index integrity and size" }
func (c *CacheHealthCheck) Severity() Severity   { return SeverityLow }
func (c *CacheHealthCheck) CanAutoFix() bool     { return true }

func (c *CacheHealthCheck) Run() CheckResult {
	if c.Cache == nil {
		return CheckResult{Status: StatusWarning, Message: "no cache configured"}
	}
	stats, err := c.Cache.GetCacheStats()
	if err != nil {
		return CheckResult{Status: StatusWarning, Message: "could not read cache index: " + err.Error()}
	}
	return CheckResult{
		Status:  StatusOK,
		Message: fmt.Sprintf("cache holds %d bytes across %d source types", stats.TotalBytes, len(stats.CountBySource)),
	}
}

// Fix evicts expired entries, the cache's own self-healing action.
func (c *CacheHealthCheck) Fix() error {
	if c.Cache == nil {
		return nil
	}
	_, err := c.Cache.Clean()
	return err
}
