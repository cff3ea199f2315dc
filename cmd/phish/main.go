// phish - Command-line email analysis.
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/AamirAhmadDon/phishing-detector/internal/detector"
	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
	"github.com/AamirAhmadDon/phishing-detector/internal/ner"
	"github.com/AamirAhmadDon/phishing-detector/internal/report"
	"github.com/AamirAhmadDon/phishing-detector/internal/rules"
)

// sampleEmail is analyzed when no input file is given, so the tool
// demonstrates itself out of the box.
const sampleEmail = `Subject: Urgent Action Required

Dear user,

Your account will be suspended within 24 hours. Please verify your
identity immediately at http://fakebank-login.com/verify to avoid
losing access.

Thank you,
Security Team`

func main() {
	rulesetPath := flag.String("ruleset", "", "path to a JSON ruleset file (built-in rules when empty)")
	inputPath := flag.String("input", "", "path to an email text file (built-in sample when empty)")
	sender := flag.String("sender", "", "sender address for the analysis")
	flag.Parse()

	if err := run(*rulesetPath, *inputPath, *sender); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(rulesetPath, inputPath, sender string) error {
	rs := rules.DefaultRuleSet()
	if rulesetPath != "" {
		loaded, err := rules.LoadRuleSet(rulesetPath)
		if err != nil {
			return err
		}
		rs = loaded
	}

	text := sampleEmail
	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		text = string(data)
	}

	recognizer, err := ner.New(domain.RecognizerConfig{Type: "lexicon"})
	if err != nil {
		return err
	}

	det, err := detector.New(rs, recognizer)
	if err != nil {
		return err
	}

	analysis, err := det.Analyze(context.Background(), &detector.Input{
		Sender: sender,
		Text:   text,
	})
	if err != nil {
		return err
	}

	report.Write(os.Stdout, analysis)
	return nil
}
