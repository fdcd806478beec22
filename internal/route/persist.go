package route

import (
	"encoding/xml"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/starmap/internal/universe"
)

// Resolver turns persisted location names back into locations.
// *universe.LocationRegistry satisfies it.
type Resolver interface {
	Resolve(name string) (universe.Location, bool)
}

// FromNames rebuilds a path from canonical location names. Names the resolver
// rejects are skipped; the resolver is responsible for logging them. The
// skipped names are returned so callers can report them.
func FromNames(names []string, r Resolver) (*JumpPath, []string) {
	p := &JumpPath{locs: make([]universe.Location, 0, len(names))}
	var skipped []string
	for _, name := range names {
		loc, ok := r.Resolve(name)
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		p.Add(loc)
	}
	return p, skipped
}

// yamlPathFile is the YAML document form of a jump path.
type yamlPathFile struct {
	JumpPath []string `yaml:"jump_path"`
}

// MarshalYAML encodes p as a YAML document with one location name per hop.
func MarshalYAML(p *JumpPath) ([]byte, error) {
	data, err := yaml.Marshal(yamlPathFile{JumpPath: p.Names()})
	if err != nil {
		return nil, fmt.Errorf("encoding jump path: %w", err)
	}
	return data, nil
}

// UnmarshalYAML decodes a YAML jump path document.
//
// Postcondition: Returns a best-effort path (unresolvable names skipped), or an
// error if data is not a valid document.
func UnmarshalYAML(data []byte, r Resolver) (*JumpPath, error) {
	var file yamlPathFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing jump path YAML: %w", err)
	}
	p, _ := FromNames(file.JumpPath, r)
	return p, nil
}

// xmlPath is the legacy saved-campaign form:
// <jumpPath><loc>[JumpPoint,star=...,nadir=true]</loc>...</jumpPath>.
type xmlPath struct {
	XMLName xml.Name `xml:"jumpPath"`
	Locs    []string `xml:"loc"`
}

// WriteXML writes p as a <jumpPath> element.
func WriteXML(w io.Writer, p *JumpPath) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(xmlPath{Locs: p.Names()}); err != nil {
		return fmt.Errorf("encoding jump path XML: %w", err)
	}
	return enc.Flush()
}

// ReadXML reads a <jumpPath> element written by WriteXML.
//
// Postcondition: Returns a best-effort path (unresolvable names skipped), or an
// error if the element cannot be decoded.
func ReadXML(rd io.Reader, r Resolver) (*JumpPath, error) {
	var doc xmlPath
	if err := xml.NewDecoder(rd).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing jump path XML: %w", err)
	}
	p, _ := FromNames(doc.Locs, r)
	return p, nil
}
