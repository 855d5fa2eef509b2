package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Dosada05/esports-tournament-engine/models"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Tournament *models.Tournament `yaml:"tournament"`
	Matches    []*models.Match    `yaml:"matches"`
}

func loadSeedFile(path string) (*seedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	seed, err := decodeSeed(f)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return seed, nil
}

func decodeSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed seedFile
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file is empty")
		}
		return nil, err
	}
	if seed.Tournament == nil {
		return nil, errors.New("missing tournament section")
	}
	return &seed, nil
}
