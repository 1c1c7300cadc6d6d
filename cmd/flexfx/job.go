package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/moffa90/go-flexfx/propfile"
	"github.com/moffa90/go-flexfx/protocol"
)

type jobKind int

const (
	jobList jobKind = iota
	jobFirmware
	jobRAMData
	jobSamples
	jobProperties
	jobProperty
)

func (k jobKind) String() string {
	switch k {
	case jobList:
		return "list"
	case jobFirmware:
		return "firmware"
	case jobRAMData:
		return "ram-data"
	case jobSamples:
		return "samples"
	case jobProperties:
		return "properties"
	case jobProperty:
		return "property"
	}
	return "unknown"
}

// job is one command line invocation. Path is set for the file-driven kinds,
// Record for jobProperty.
type job struct {
	Kind   jobKind
	Port   int
	Path   string
	Record protocol.Property
}

var suffixJobs = map[string]jobKind{
	".bin": jobFirmware,
	".dat": jobRAMData,
	".wav": jobSamples,
	".txt": jobProperties,
}

// parseJob selects the job from the positional arguments.
func parseJob(args []string) (job, error) {
	switch len(args) {
	case 0:
		return job{Kind: jobList}, nil

	case 2:
		port, err := parsePort(args[0])
		if err != nil {
			return job{}, err
		}
		ext := strings.ToLower(filepath.Ext(args[1]))
		kind, ok := suffixJobs[ext]
		if !ok {
			return job{}, fmt.Errorf("unsupported file type %q (want .bin, .dat, .wav or .txt)", args[1])
		}
		return job{Kind: kind, Port: port, Path: args[1]}, nil

	case 1 + propfile.TokensPerLine:
		port, err := parsePort(args[0])
		if err != nil {
			return job{}, err
		}
		rec, err := propfile.ParseArgs(args[1:])
		if err != nil {
			return job{}, err
		}
		return job{Kind: jobProperty, Port: port, Record: rec}, nil
	}

	return job{}, fmt.Errorf("expected 0, 2 or %d arguments, got %d", 1+propfile.TokensPerLine, len(args))
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 0 {
		return 0, fmt.Errorf("invalid port %q: must be a non-negative index from the port list", s)
	}
	return port, nil
}
