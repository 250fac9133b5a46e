// Package console turns typed commands into session input events.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"example.com/goban-client/internal/interaction"
)

var ErrUnknownCommand = errors.New("unknown command")

// Parse reads one command line. Blank lines yield (nil, nil).
//
//	play x y | click x y   place a stone (or stage a handicap stone)
//	hover x y              move the cursor
//	leave                  hide the cursor
//	commit | reset         confirm or discard staged handicap stones
//	pass | resign
func Parse(line string) (interaction.Input, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil, nil
	}

	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "play", "click", "p":
		x, y, err := point(cmd, args)
		if err != nil {
			return nil, err
		}
		return interaction.Click{X: x, Y: y}, nil
	case "hover", "h":
		x, y, err := point(cmd, args)
		if err != nil {
			return nil, err
		}
		return interaction.Hover{X: x, Y: y}, nil
	}

	if len(args) != 0 {
		return nil, fmt.Errorf("%s takes no arguments", cmd)
	}
	switch cmd {
	case "leave":
		return interaction.Leave{}, nil
	case "commit":
		return interaction.CommitHandicap{}, nil
	case "reset":
		return interaction.ResetHandicap{}, nil
	case "pass":
		return interaction.Pass{}, nil
	case "resign":
		return interaction.Resign{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
}

func point(cmd string, args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%s needs x and y", cmd)
	}
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%s: bad x %q", cmd, args[0])
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%s: bad y %q", cmd, args[1])
	}
	return x, y, nil
}

// SubmitFunc hands an input event to the session.
type SubmitFunc func(ctx context.Context, in interaction.Input) error

// Pump reads commands from r until EOF, ctx cancellation or a submit error.
// Parse errors are logged and skipped.
func Pump(ctx context.Context, r io.Reader, submit SubmitFunc, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		in, err := Parse(sc.Text())
		if err != nil {
			log.Warn("ignored input", "line", sc.Text(), "err", err)
			continue
		}
		if in == nil {
			continue
		}
		if err := submit(ctx, in); err != nil {
			return err
		}
	}
	return sc.Err()
}
