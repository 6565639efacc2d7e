package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatManagers formats a list of managers as JSON
func (f *Formatter) FormatManagers(managers []ManagerDTO) error {
	return f.encode(managers)
}

// FormatResolution formats a resolved class as JSON
func (f *Formatter) FormatResolution(res ResolutionDTO) error {
	return f.encode(res)
}

// FormatBoot formats a boot result as JSON
func (f *Formatter) FormatBoot(result BootDTO) error {
	return f.encode(result)
}

// FormatCompile formats a compile result as JSON
func (f *Formatter) FormatCompile(result CompileDTO) error {
	return f.encode(result)
}

// FormatEvent writes ev as a single JSON line
func (f *Formatter) FormatEvent(ev EventDTO) error {
	return json.NewEncoder(f.writer).Encode(ev)
}
