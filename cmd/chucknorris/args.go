package main

import (
	"errors"
	"fmt"
	"strconv"

	"chuck-jokes/internal/importer"
)

const cleanArg = "clean"

var (
	ErrInvalidCount = errors.New("invalid number of jokes")
	ErrTooManyArgs  = errors.New("too many arguments")
)

type command struct {
	clean bool
	count int
}

// parseArgs accepts nothing, a joke count or "clean".
func parseArgs(args []string) (command, error) {
	switch {
	case len(args) == 0:
		return command{count: importer.DefaultCount}, nil
	case len(args) > 1:
		return command{}, ErrTooManyArgs
	case args[0] == cleanArg:
		return command{clean: true}, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return command{}, fmt.Errorf("%w: %q", ErrInvalidCount, args[0])
	}
	if n < 1 || n > importer.MaxCount {
		return command{}, importer.ErrCountOutOfRange
	}

	return command{count: n}, nil
}

func argError(err error) string {
	switch {
	case errors.Is(err, importer.ErrCountOutOfRange):
		return fmt.Sprintf("Maximum number of jokes is %d", importer.MaxCount)
	case errors.Is(err, ErrTooManyArgs):
		return usage
	default:
		return fmt.Sprintf("Error: %v\n%s", err, usage)
	}
}

const usage = `Usage: chucknorris [COUNT|clean]

    COUNT   number of jokes to import, 1-10 (default 5)
    clean   delete all stored jokes`
