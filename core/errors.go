package core

import "errors"

var (
	// ErrUnknownPort is returned when the chip has no register block for a port
	ErrUnknownPort = errors.New("gpio: unknown port")

	// ErrReservedEncoding is returned when a field that applies to the
	// selected function holds a reserved code
	ErrReservedEncoding = errors.New("gpio: reserved encoding")

	// ErrRegisterAccess is returned by backends whose register accesses can fault
	ErrRegisterAccess = errors.New("gpio: register access fault")

	// ErrNoChip is returned by the command surface before SetChipSupport
	ErrNoChip = errors.New("gpio: chip support not configured")

	// ErrInvalidField is returned by Fields.Validate and the name parsers
	ErrInvalidField = errors.New("gpio: invalid field")
)

// ConfigError carries the operation and the value it was applied to
type ConfigError struct {
	Op   string // "configure", "write", "read", "dump", "irq"
	Desc uint32 // descriptor or pin-set
	Err  error
}

func (e *ConfigError) Error() string {
	return e.Op + " " + hex32(e.Desc) + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// accessError keeps the backend's cause while matching ErrRegisterAccess
type accessError struct {
	cause error
}

func (e *accessError) Error() string        { return ErrRegisterAccess.Error() + ": " + e.cause.Error() }
func (e *accessError) Unwrap() error        { return e.cause }
func (e *accessError) Is(target error) bool { return target == ErrRegisterAccess }

func wrapAccess(err error) error {
	if errors.Is(err, ErrRegisterAccess) {
		return err
	}
	return &accessError{cause: err}
}

// FieldError describes a field value outside its domain
type FieldError struct {
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return "gpio: invalid " + e.Field + " " + e.Value
}

func (e *FieldError) Unwrap() error { return ErrInvalidField }

func fieldError(name string, v uint32) error {
	return &FieldError{Field: name, Value: itoa(int(v))}
}

func nameError(name, s string) error {
	return &FieldError{Field: name, Value: "\"" + s + "\""}
}

// Code is the compact error identifier carried in gpio_status responses
type Code uint8

const (
	CodeOK Code = iota
	CodeUnknownPort
	CodeReservedEncoding
	CodeRegisterAccess
	CodeNoChip
	CodeMalformed
)

var codeNames = [...]string{"ok", "unknown_port", "reserved_encoding", "register_access", "no_chip", "malformed"}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "error"
}

// Err converts a wire code back to the matching sentinel (nil for CodeOK)
func (c Code) Err() error {
	switch c {
	case CodeOK:
		return nil
	case CodeUnknownPort:
		return ErrUnknownPort
	case CodeReservedEncoding:
		return ErrReservedEncoding
	case CodeRegisterAccess:
		return ErrRegisterAccess
	case CodeNoChip:
		return ErrNoChip
	}
	return errors.New("gpio: " + c.String())
}

// CodeOf maps an error to its wire code
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrUnknownPort):
		return CodeUnknownPort
	case errors.Is(err, ErrReservedEncoding):
		return CodeReservedEncoding
	case errors.Is(err, ErrRegisterAccess):
		return CodeRegisterAccess
	case errors.Is(err, ErrNoChip):
		return CodeNoChip
	}
	return CodeMalformed
}
