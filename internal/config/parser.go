package config

import (
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/platform"
	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/target"
)

// Parser reads lnd-binary.lua project files.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector leaves the platform table out of the VM.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile parses the Lua project config at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (target.Values, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return target.Values{}, fmt.Errorf("read %s: %w", path, err)
	}

	values, err := p.ParseString(ctx, string(code))
	if err != nil {
		return target.Values{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return values, nil
}

// ParseString parses a Lua project config from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (target.Values, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return target.Values{}, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return target.Values{}, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return target.Values{}, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	return extractValues(L)
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractValues reads the global lnd_binary table. A script that does not
// define it yields empty values.
func extractValues(L *lua.LState) (target.Values, error) {
	global := L.GetGlobal(luaGlobal)
	if global.Type() == lua.LTNil {
		return target.Values{}, nil
	}

	table, ok := global.(*lua.LTable)
	if !ok {
		return target.Values{}, &ParseError{
			Message: fmt.Sprintf("invalid '%s' value", luaGlobal),
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}

	var values target.Values
	fields := []struct {
		name string
		dst  *string
	}{
		{luaFieldPlatform, &values.Platform},
		{luaFieldArch, &values.Arch},
		{luaFieldVersion, &values.Version},
		{luaFieldName, &values.Name},
		{luaFieldSite, &values.Site},
		{luaFieldDir, &values.Dir},
		{luaFieldPath, &values.Path},
	}

	for _, f := range fields {
		v := table.RawGetString(f.name)
		switch v.Type() {
		case lua.LTNil:
			// Unset, or nil from a platform conditional
		case lua.LTString, lua.LTNumber:
			*f.dst = v.String()
		default:
			return target.Values{}, &ParseError{
				Message: fmt.Sprintf("invalid field '%s.%s'", luaGlobal, f.name),
				Detail:  fmt.Sprintf("expected string, got %s", v.Type()),
			}
		}
	}

	return values, nil
}
