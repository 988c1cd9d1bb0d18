// Package lockfile implements the persisted exact-version mapping
// described in §4.4: deterministic JSON serialization, atomic saves, and
// the in-memory operations the package manager façade needs
// (put/get/has/add_root/is_up_to_date/topological_order). The
// atomic-write-then-rename idiom is grounded on the teacher's
// internal/config.Config.Save and the retrieval pack's devbox lockfile
// (other_examples' internal/lock/lockfile.go), which also stages a
// dirty-check before writing.
package lockfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/donaldfilimon/ovo/internal/depspec"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CurrentVersion is the lockfile schema version this build writes and
// the only version it will load; any other version is rejected.
const CurrentVersion = 1

// Metadata is the lockfile's top-level metadata block.
type Metadata struct {
	UpdatedAt    time.Time `json:"updated_at"`
	ManifestHash string    `json:"manifest_hash,omitempty"`
	OvoVersion   string    `json:"ovo_version,omitempty"`
}

// Lockfile is the in-memory, owning representation of ovo.lock.
type Lockfile struct {
	Version  int
	Roots    []string
	Metadata Metadata
	Packages map[string]depspec.LockedPackage
	dirty    bool
}

// New returns an empty lockfile at the current schema version.
func New() *Lockfile {
	return &Lockfile{
		Version:  CurrentVersion,
		Packages: make(map[string]depspec.LockedPackage),
	}
}

// wireEntry is the JSON shape of one packages[name] entry, in the fixed
// key order §4.4 mandates.
type wireEntry struct {
	Version       string   `json:"version"`
	SourceType    string   `json:"source_type"`
	SourceURL     string   `json:"source_url"`
	ResolvedHash  *string  `json:"resolved_hash"`
	IntegrityHash *string  `json:"integrity_hash"`
	Dependencies  []string `json:"dependencies"`
	LockedAt      *int64   `json:"locked_at"`
}

type wireFile struct {
	Version  int                  `json:"version"`
	Roots    []string             `json:"roots"`
	Metadata wireMetadata         `json:"metadata"`
	Packages map[string]wireEntry `json:"packages"`
}

type wireMetadata struct {
	UpdatedAt    *int64  `json:"updated_at"`
	ManifestHash *string `json:"manifest_hash"`
	OvoVersion   *string `json:"ovo_version"`
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func unixPtr(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	v := t.Unix()
	return &v
}

func unixVal(p *int64) time.Time {
	if p == nil {
		return time.Time{}
	}
	return time.Unix(*p, 0).UTC()
}

// Serialize renders the lockfile deterministically: packages sorted
// ascending by byte-wise name, fixed key order within each package,
// roots/dependencies preserving insertion order, UTF-8, single trailing
// newline, no trailing commas (json.Marshal already guarantees the
// latter two).
func (l *Lockfile) Serialize() ([]byte, error) {
	names := make([]string, 0, len(l.Packages))
	for name := range l.Packages {
		names = append(names, name)
	}
	sort.Strings(names)

	packages := make(map[string]wireEntry, len(names))
	for _, name := range names {
		pkg := l.Packages[name]
		packages[name] = wireEntry{
			Version:       pkg.Version,
			SourceType:    string(pkg.SourceType),
			SourceURL:     pkg.SourceURL,
			ResolvedHash:  strPtr(pkg.ResolvedHash),
			IntegrityHash: strPtr(pkg.IntegrityHash),
			Dependencies:  append([]string(nil), pkg.Dependencies...),
			LockedAt:      unixPtr(pkg.LockedAt),
		}
	}

	wf := wireFile{
		Version: l.Version,
		Roots:   append([]string(nil), l.Roots...),
		Metadata: wireMetadata{
			UpdatedAt:    unixPtr(l.Metadata.UpdatedAt),
			ManifestHash: strPtr(l.Metadata.ManifestHash),
			OvoVersion:   strPtr(l.Metadata.OvoVersion),
		},
		Packages: packages,
	}
	if wf.Roots == nil {
		wf.Roots = []string{}
	}

	out, err := marshalOrdered(wf, names)
	if err != nil {
		return nil, ovoerrors.Wrap(err, ovoerrors.InvalidManifest, "cannot serialize lockfile")
	}
	return append(out, '\n'), nil
}

// marshalOrdered renders wf with packages emitted in sortedNames order.
// encoding/json sorts map keys alphabetically for map[string]T, which
// coincides with byte-wise package-name order here, so a plain Marshal
// already satisfies the determinism invariant; this wrapper exists to
// make that guarantee explicit and keep the indentation consistent with
// the rest of the JSON assets this tool writes.
func marshalOrdered(wf wireFile, sortedNames []string) ([]byte, error) {
	return json.MarshalIndent(wf, "", "  ")
}

// Parse reads raw JSON bytes into a Lockfile, ignoring unknown fields
// (the default json.Unmarshal behavior) and treating a null hash or
// timestamp as absent. Per §3 invariant 5, a document whose version
// field doesn't match CurrentVersion is refused outright rather than
// loaded and silently misinterpreted.
func Parse(data []byte) (*Lockfile, error) {
	var wf wireFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, ovoerrors.Wrap(err, ovoerrors.InvalidManifest, "malformed lockfile JSON")
	}
	if wf.Version != CurrentVersion {
		return nil, ovoerrors.New(ovoerrors.InvalidManifest,
			fmt.Sprintf("unsupported lockfile schema version %d, this build reads version %d", wf.Version, CurrentVersion))
	}
	l := &Lockfile{
		Version:  wf.Version,
		Roots:    wf.Roots,
		Packages: make(map[string]depspec.LockedPackage, len(wf.Packages)),
	}
	l.Metadata = Metadata{
		UpdatedAt:    unixVal(wf.Metadata.UpdatedAt),
		ManifestHash: strVal(wf.Metadata.ManifestHash),
		OvoVersion:   strVal(wf.Metadata.OvoVersion),
	}
	for name, entry := range wf.Packages {
		l.Packages[name] = depspec.LockedPackage{
			Name:          name,
			Version:       entry.Version,
			SourceType:    depspec.SourceType(entry.SourceType),
			SourceURL:     entry.SourceURL,
			ResolvedHash:  strVal(entry.ResolvedHash),
			IntegrityHash: strVal(entry.IntegrityHash),
			Dependencies:  entry.Dependencies,
			LockedAt:      unixVal(entry.LockedAt),
		}
	}
	return l, nil
}

// ErrAbsent is returned by TryLoad when the lockfile file does not
// exist, distinct from any other load failure per §4.4's "tryLoad
// returns absent for FileNotFound and propagates other errors."
var ErrAbsent = ovoerrors.New(ovoerrors.FileNotFound, "lockfile not present")

// TryLoad reads and parses path, returning (nil, ErrAbsent) when the
// file is missing and (nil, err) for any other failure. The document is
// validated against the structural schema before Parse attempts a typed
// unmarshal, so a malformed lockfile fails with a schema diagnostic
// rather than an opaque json.Unmarshal error.
func TryLoad(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrAbsent
		}
		return nil, ovoerrors.Wrap(err, ovoerrors.FileNotFound, "cannot read lockfile")
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return Parse(data)
}

// Save writes l to path atomically: a temp file in the same directory,
// then a rename, so a crash mid-write never corrupts a previously valid
// lockfile (§5, §9 "Lockfile-write atomicity").
func (l *Lockfile) Save(path string) error {
	data, err := l.Serialize()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ovoerrors.Wrap(err, ovoerrors.AccessDenied, "cannot create lockfile directory")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ovoerrors.Wrap(err, ovoerrors.AccessDenied, "cannot write lockfile temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return ovoerrors.Wrap(err, ovoerrors.AccessDenied, "cannot rename lockfile into place")
	}
	l.dirty = false
	return nil
}

// PutPackage copies pkg into the lockfile, overwriting any prior entry
// with the same name.
func (l *Lockfile) PutPackage(pkg depspec.LockedPackage) {
	l.Packages[pkg.Name] = pkg.Clone()
	l.dirty = true
}

// GetPackage returns the locked entry for name, if any.
func (l *Lockfile) GetPackage(name string) (depspec.LockedPackage, bool) {
	pkg, ok := l.Packages[name]
	return pkg, ok
}

// HasPackage reports whether name is present.
func (l *Lockfile) HasPackage(name string) bool {
	_, ok := l.Packages[name]
	return ok
}

// AddRoot appends name to Roots if not already present (idempotent).
func (l *Lockfile) AddRoot(name string) {
	for _, r := range l.Roots {
		if r == name {
			return
		}
	}
	l.Roots = append(l.Roots, name)
	l.dirty = true
}

// IsUpToDate reports whether the stored manifest hash matches
// manifestHash.
func (l *Lockfile) IsUpToDate(manifestHash string) bool {
	return l.Metadata.ManifestHash == manifestHash
}

// Dirty reports whether the lockfile has unsaved mutations.
func (l *Lockfile) Dirty() bool { return l.dirty }

// TopologicalOrder performs a depth-first traversal starting from each
// root in Roots order: for each node, dependencies are visited before
// the node itself is emitted. A shared visited-set prevents revisits;
// §3's invariant 1/2 (the resolver never emits a cycle) means this never
// needs cycle detection of its own.
func (l *Lockfile) TopologicalOrder() []string {
	visited := make(map[string]bool)
	var order []string
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		pkg, ok := l.Packages[name]
		if !ok {
			return
		}
		for _, dep := range pkg.Dependencies {
			visit(dep)
		}
		order = append(order, name)
	}
	for _, root := range l.Roots {
		visit(root)
	}
	return order
}

// schemaDoc is the structural JSON Schema validated against a parsed
// lockfile document before Parse hands it back to the caller, catching
// malformed documents earlier and with a clearer error than a bare
// json.Unmarshal type mismatch would.
const schemaDoc = `{
  "type": "object",
  "required": ["version", "roots", "metadata", "packages"],
  "properties": {
    "version": {"type": "integer"},
    "roots": {"type": "array", "items": {"type": "string"}},
    "metadata": {"type": "object"},
    "packages": {"type": "object"}
  }
}`

var compiledSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ovo-lockfile.json", strings.NewReader(schemaDoc)); err != nil {
		panic(err)
	}
	compiledSchema = compiler.MustCompile("ovo-lockfile.json")
}

// Validate checks raw lockfile bytes against the structural schema
// before Parse attempts a typed unmarshal, surfacing schema violations
// (missing top-level fields, wrong JSON types) distinctly from Go
// unmarshal errors.
func Validate(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return ovoerrors.Wrap(err, ovoerrors.InvalidManifest, "lockfile is not valid JSON")
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return ovoerrors.Wrap(err, ovoerrors.InvalidManifest, "lockfile does not match schema")
	}
	return nil
}
