package alloc

import (
	"strconv"

	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// RequireString returns the named attribute or a status.InvalidParameter
// error naming the allocator and the missing attribute.
func (d Descriptor) RequireString(allocator, name string) (string, error) {
	v, ok := d.attrs[name]
	if !ok || v == "" {
		return "", status.Wrapf(status.InvalidParameter, "%s: missing required attribute %q", allocator, name)
	}
	return v, nil
}

// RequireInt is RequireString parsed as an integer.
func (d Descriptor) RequireInt(allocator, name string) (int, error) {
	s, err := d.RequireString(allocator, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, status.Wrapf(status.InvalidParameter, "%s: attribute %q=%q is not an integer", allocator, name, s)
	}
	return n, nil
}

// RequireFloat is RequireString parsed as a float64.
func (d Descriptor) RequireFloat(allocator, name string) (float64, error) {
	s, err := d.RequireString(allocator, name)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, status.Wrapf(status.InvalidParameter, "%s: attribute %q=%q is not a number", allocator, name, s)
	}
	return f, nil
}

// OptionalFloat returns the named attribute parsed as float64, or def
// if the attribute is absent. A present-but-malformed attribute is
// still an error — only a missing attribute falls back to def (§4.2: "a
// missing optional attribute is filled with a default").
func (d Descriptor) OptionalFloat(allocator, name string, def float64) (float64, error) {
	s, ok := d.attrs[name]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, status.Wrapf(status.InvalidParameter, "%s: attribute %q=%q is not a number", allocator, name, s)
	}
	return f, nil
}

// OptionalInt is OptionalFloat's integer counterpart.
func (d Descriptor) OptionalInt(allocator, name string, def int) (int, error) {
	s, ok := d.attrs[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, status.Wrapf(status.InvalidParameter, "%s: attribute %q=%q is not an integer", allocator, name, s)
	}
	return n, nil
}

// OptionalString is the string counterpart, defaulting to def.
func (d Descriptor) OptionalString(name, def string) string {
	if v, ok := d.attrs[name]; ok {
		return v
	}
	return def
}
