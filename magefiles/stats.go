//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stats prints Go lines of code per package as one JSON object per line,
// followed by a totals line.
func Stats() error {
	type counts struct {
		Package string `json:"package"`
		Prod    int    `json:"go_loc_prod"`
		Test    int    `json:"go_loc_test"`
	}
	byPkg := map[string]*counts{}
	var total counts
	total.Package = "total"

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch {
			case path == ".":
				return nil
			case strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_"),
				path == "vendor", path == binaryDir, path == "magefiles", path == "testdata":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		dir := filepath.Dir(path)
		c, ok := byPkg[dir]
		if !ok {
			c = &counts{Package: dir}
			byPkg[dir] = c
		}
		if strings.HasSuffix(path, "_test.go") {
			c.Test += n
			total.Test += n
		} else {
			c.Prod += n
			total.Prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(byPkg))
	for dir := range byPkg {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	enc := json.NewEncoder(os.Stdout)
	for _, dir := range dirs {
		if err := enc.Encode(byPkg[dir]); err != nil {
			return err
		}
	}
	if err := enc.Encode(total); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d packages\n", len(dirs))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
