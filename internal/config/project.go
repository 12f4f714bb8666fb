package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/target"
)

// Project is the project config layer.
type Project struct {
	// File is the config file the values came from, empty when none applies.
	File   string
	Values target.Values
}

// FindProject walks from startDir towards the filesystem root and returns
// the config of the nearest directory holding a package.json or an
// lnd-binary.lua file. In a directory with both, a package.json carrying an
// lnd-binary block wins. A nearest package.json without the block and
// without a Lua file next to it ends the search with no project config.
func FindProject(ctx context.Context, startDir string, parser *Parser) (Project, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return Project{}, fmt.Errorf("resolve project dir: %w", err)
	}

	for {
		pkgPath := filepath.Join(dir, packageJSONFile)
		luaPath := filepath.Join(dir, luaConfigFile)
		hasPkg := isFile(pkgPath)
		hasLua := isFile(luaPath)

		if hasPkg {
			values, found, err := readPackageJSON(pkgPath)
			if err != nil {
				return Project{}, err
			}
			if found {
				return Project{File: pkgPath, Values: values}, nil
			}
		}

		if hasLua {
			values, err := parser.ParseFile(ctx, luaPath)
			if err != nil {
				return Project{}, err
			}
			return Project{File: luaPath, Values: values}, nil
		}

		if hasPkg {
			return Project{}, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Project{}, nil
		}
		dir = parent
	}
}

// readPackageJSON returns the config["lnd-binary"] block of a package.json
// and whether it was present.
func readPackageJSON(path string) (target.Values, bool, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return target.Values{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	block := v.Sub(blockKey)
	if block == nil {
		return target.Values{}, false, nil
	}

	var values target.Values
	if err := block.Unmarshal(&values); err != nil {
		return target.Values{}, false, fmt.Errorf("decode %s block in %s: %w", target.PackageName, path, err)
	}

	return values, true, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
