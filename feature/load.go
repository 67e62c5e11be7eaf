package feature

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/rs/zerolog/log"
)

// Parse reads one Gherkin document and compiles it.
func Parse(uri string, r io.Reader) (*Feature, error) {
	doc, err := gherkin.ParseGherkinDocument(r, (&messages.Incrementing{}).NewId)
	if err != nil {
		return nil, fmt.Errorf("feature: parsing %s: %w", uri, err)
	}
	return Compile(doc, uri)
}

// Load reads every .feature file under the given paths, in path order.
// A malformed file is fatal for that file only: parsing continues for
// the remaining sources and the per-file errors come back joined,
// alongside the features that did parse.
func Load(paths ...string) ([]*Feature, error) {
	var (
		features []*Feature
		errs     []error
	)

	for _, path := range paths {
		files, err := featureFiles(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, file := range files {
			f, err := loadFile(file)
			if err != nil {
				log.Warn().Str("file", file).Err(err).Msg("skipping feature file")
				errs = append(errs, err)
				continue
			}
			features = append(features, f)
		}
	}

	return features, errors.Join(errs...)
}

func loadFile(path string) (*Feature, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feature: opening %s: %w", path, err)
	}
	defer r.Close()
	return Parse(path, r)
}

func featureFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("feature: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".feature") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("feature: walking %s: %w", path, err)
	}
	return files, nil
}
