package wasmopt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/screepers/screeps-build/wasmopt/internal/leb"
)

// Section IDs from the WebAssembly binary format.
const (
	SectionCustom byte = 0
	SectionData   byte = 11
)

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Parsing errors returned by Parse.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// Profile holds the codegen tunables for an optimization run. It is passed
// by value into Optimize; there is no process-wide active profile.
type Profile struct {
	ShrinkLevel       uint32
	OptimizationLevel uint32
	DebugInfo         bool
}

// Section is one raw section of a module. Name is set for custom sections.
type Section struct {
	ID      byte
	Name    string
	Payload []byte
}

// Module is a section-level representation of a wasm binary. Section
// payloads are kept opaque; the optimizer works on whole sections only.
type Module struct {
	raw      []byte
	sections []Section
	modified bool
}

// Report summarizes what an optimization run changed.
type Report struct {
	DroppedSections []string
	Reencoded       bool
}

// Parse decodes data into a section-level module representation. The
// original bytes are retained so an untouched module can round-trip
// verbatim.
func Parse(data []byte) (*Module, error) {
	if len(data) < len(header) {
		return nil, ErrInvalidMagic
	}
	if !bytes.Equal(data[:4], header[:4]) {
		return nil, ErrInvalidMagic
	}
	if !bytes.Equal(data[4:8], header[4:]) {
		return nil, ErrInvalidVersion
	}

	m := &Module{raw: data}

	pos := len(header)
	for pos < len(data) {
		id := data[pos]
		pos++
		if id > SectionData && id != 12 && id != 13 {
			return nil, fmt.Errorf("unknown section id %d at offset %d", id, pos-1)
		}

		size, n, err := leb.ReadU32(data, pos)
		if err != nil {
			return nil, fmt.Errorf("section %d size: %w", id, err)
		}
		pos += n
		if pos+int(size) > len(data) {
			return nil, fmt.Errorf("section %d length %d exceeds module bounds", id, size)
		}

		sec := Section{ID: id, Payload: data[pos : pos+int(size)]}
		if id == SectionCustom {
			name, err := customName(sec.Payload)
			if err != nil {
				return nil, fmt.Errorf("custom section at offset %d: %w", pos, err)
			}
			sec.Name = name
		}
		m.sections = append(m.sections, sec)
		pos += int(size)
	}

	return m, nil
}

// customName extracts the name field a custom section payload begins with.
func customName(payload []byte) (string, error) {
	length, n, err := leb.ReadU32(payload, 0)
	if err != nil {
		return "", fmt.Errorf("name length: %w", err)
	}
	if n+int(length) > len(payload) {
		return "", errors.New("name exceeds section bounds")
	}
	name := payload[n : n+int(length)]
	if !utf8.Valid(name) {
		return "", errors.New("name is not valid UTF-8")
	}
	return string(name), nil
}

// Optimize applies the passes selected by the profile:
//
//   - DebugInfo=false drops debug custom sections ("name", ".debug_*",
//     "sourceMappingURL").
//   - ShrinkLevel >= 1 drops remaining metadata custom sections, keeping
//     "producers" until ShrinkLevel >= 2.
//   - OptimizationLevel >= 1 re-encodes section size prefixes minimally
//     (toolchains patch sizes in place and may leave them LEB-padded).
//
// Non-custom sections are never touched.
func (m *Module) Optimize(p Profile) Report {
	var report Report

	kept := m.sections[:0]
	for _, sec := range m.sections {
		if sec.ID == SectionCustom && dropCustom(sec.Name, p) {
			report.DroppedSections = append(report.DroppedSections, sec.Name)
			continue
		}
		kept = append(kept, sec)
	}
	m.sections = kept

	if len(report.DroppedSections) > 0 || p.OptimizationLevel >= 1 {
		m.modified = true
		report.Reencoded = true
	}

	return report
}

func dropCustom(name string, p Profile) bool {
	if name == "name" || name == "sourceMappingURL" || strings.HasPrefix(name, ".debug_") {
		return !p.DebugInfo
	}
	if name == "producers" {
		return p.ShrinkLevel >= 2
	}
	return p.ShrinkLevel >= 1
}

// Encode serializes the module. A module no pass has modified round-trips
// as the exact input bytes.
func (m *Module) Encode() []byte {
	if !m.modified {
		return bytes.Clone(m.raw)
	}

	out := make([]byte, 0, len(m.raw))
	out = append(out, header...)
	for _, sec := range m.sections {
		out = append(out, sec.ID)
		out = leb.AppendU32(out, uint32(len(sec.Payload)))
		out = append(out, sec.Payload...)
	}
	return out
}

// Sections returns the current section list. The returned slice is shared
// with the module and must not be mutated.
func (m *Module) Sections() []Section {
	return m.sections
}
