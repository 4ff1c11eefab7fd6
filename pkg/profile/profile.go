// Package profile loads named, operator-editable configuration presets
// from an embedded YAML document, so a binary wiring up a Framer doesn't
// have to hardcode buffer sizes.
package profile

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/commsccf/ccf/ccf"
)

//go:embed profiles.yaml
var defaultProfilesYAML []byte

// entry is the on-disk shape of one profile: plain integers, the same
// fields ccf.Config validates.
type entry struct {
	RxBufSize  uint32 `yaml:"rx_buf_size"`
	TxBufSize  uint32 `yaml:"tx_buf_size"`
	MaxPktSize uint32 `yaml:"max_pkt_size"`
}

// document is the top-level shape of profiles.yaml: a name -> entry map.
type document struct {
	Profiles map[string]entry `yaml:"profiles"`
}

// Profiles holds a parsed set of named configurations.
type Profiles struct {
	byName map[string]entry
}

// Parse reads a profiles document from data (the embedded default, or an
// operator-supplied override read from disk).
func Parse(data []byte) (*Profiles, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("profile: cannot parse profiles document: %w", err)
	}
	if len(doc.Profiles) == 0 {
		return nil, fmt.Errorf("profile: document declares no profiles")
	}
	return &Profiles{byName: doc.Profiles}, nil
}

// Default returns the built-in profile set embedded into the binary.
func Default() *Profiles {
	p, err := Parse(defaultProfilesYAML)
	if err != nil {
		// The embedded document is a build-time constant; a parse
		// failure here is a programming error, not an operator one.
		panic(fmt.Sprintf("profile: embedded profiles.yaml is invalid: %v", err))
	}
	return p
}

// Names returns the set of profile names this document declares.
func (p *Profiles) Names() []string {
	names := make([]string, 0, len(p.byName))
	for name := range p.byName {
		names = append(names, name)
	}
	return names
}

// Load resolves name to a validated ccf.Config. A bad profile (non-power-
// of-two sizes, max_pkt_size out of range) fails here, at startup, rather
// than silently truncating packets later.
func (p *Profiles) Load(name string) (ccf.Config, error) {
	e, ok := p.byName[name]
	if !ok {
		return ccf.Config{}, fmt.Errorf("profile: no profile named %q", name)
	}
	cfg, err := ccf.NewConfig(e.RxBufSize, e.TxBufSize, e.MaxPktSize)
	if err != nil {
		return ccf.Config{}, fmt.Errorf("profile: profile %q: %w", name, err)
	}
	return cfg, nil
}
