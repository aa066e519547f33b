package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jwebster45206/q3a-report/pkg/game"
	"github.com/jwebster45206/q3a-report/pkg/grammar"
	"github.com/jwebster45206/q3a-report/pkg/logsource"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <games.log>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &LogValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Log file is valid!")
}

// LogValidator reads a whole log and collects every line that does not
// parse, instead of stopping at the first one.
type LogValidator struct {
	errors []string
	games  int
	open   bool
}

func (v *LogValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	f, err := logsource.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := v.validate(context.Background(), f.Reader); err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	fmt.Printf("%d complete games\n", v.games)
	if v.open {
		fmt.Println("Last game has no ShutdownGame line")
	}

	if len(v.errors) > 0 {
		for _, e := range v.errors {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("%d invalid lines in %s", len(v.errors), filename)
	}
	return nil
}

func (v *LogValidator) validate(ctx context.Context, r *logsource.Reader) error {
	v.errors = nil
	v.games = 0
	v.open = false

	p := game.NewParser()
	for n := 1; ; n++ {
		line, ok, err := r.ReadLine(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if grammar.IsBlank(line) {
			continue
		}

		report, err := p.ProcessLine(line)
		if err != nil {
			v.errors = append(v.errors, fmt.Sprintf("line %d: %v", n, err))
			continue
		}
		if report != nil {
			v.games++
		}
	}

	v.open = p.TotalKills() > 0 || len(p.Players()) > 0
	return nil
}

