// Command jsonschema-cli validates JSON or YAML documents against a
// JSON Schema.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/lucab/jsonschema"
	schemaerrors "github.com/lucab/jsonschema/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdout, os.Stderr)
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsonschema-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	schemaPath := fs.String("schema", "", "path to JSON Schema file (JSON or YAML)")
	draftName := fs.String("draft", "", "force draft: 4, 6, 7, 2019-09 or 2020-12")
	assertFormat := fs.Bool("assert-format", false, "assert format keywords in every draft")
	var usageErr error
	fs.Usage = func() {
		usageErr = errors.Join(
			usageErr,
			writef(stderr, "Usage: %s --schema <schema.json> <instance.json>...\n\n", os.Args[0]),
			writeln(stderr, "Validates JSON or YAML documents against a JSON Schema."),
			writeln(stderr),
			writeln(stderr, "Options:"),
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *schemaPath == "" {
		if err := writeln(stderr, "error: --schema is required"); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}
	instances := fs.Args()
	if len(instances) == 0 {
		if err := writeln(stderr, "error: at least one instance file argument is required"); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}

	var opts []jsonschema.Option
	if *draftName != "" {
		d, ok := parseDraft(*draftName)
		if !ok {
			if err := writef(stderr, "error: unknown draft %q\n", *draftName); err != nil {
				return 1
			}
			return 2
		}
		opts = append(opts, jsonschema.WithDraft(d))
	}
	if *assertFormat {
		opts = append(opts, jsonschema.WithFormatAssertions(true))
	}

	schemaDoc, err := decodeFile(*schemaPath)
	if err != nil {
		if writeErr := writef(stderr, "error loading schema: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	schema, err := jsonschema.Compile(schemaDoc, opts...)
	if err != nil {
		if writeErr := writef(stderr, "error compiling schema: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}

	var failures error
	for _, path := range instances {
		if err := validateFile(schema, path, stdout, stderr); err != nil {
			failures = multierr.Append(failures, err)
		}
	}
	if failures != nil {
		return 1
	}
	return 0
}

func validateFile(schema *jsonschema.Schema, path string, stdout, stderr io.Writer) error {
	doc, err := decodeFile(path)
	if err != nil {
		if writeErr := writef(stderr, "error reading %s: %v\n", path, err); writeErr != nil {
			return writeErr
		}
		return err
	}

	valid := true
	for violation := range schema.Errors(doc) {
		valid = false
		if writeErr := writef(stderr, "%s: %s\n", path, formatViolation(violation)); writeErr != nil {
			return writeErr
		}
	}
	if !valid {
		if writeErr := writef(stderr, "%s fails to validate\n", path); writeErr != nil {
			return writeErr
		}
		return fmt.Errorf("%s: invalid", path)
	}
	if err := writef(stdout, "%s validates\n", path); err != nil {
		return err
	}
	return nil
}

func formatViolation(v *schemaerrors.Validation) string {
	loc := v.InstanceLocation()
	if loc == "" {
		loc = "(root)"
	}
	return fmt.Sprintf("%s: %s [%s]", loc, v.Message, v.Keyword)
}

// decodeFile reads a schema or instance document, choosing the decoder
// by extension. JSON numbers decode as json.Number to keep precision.
func decodeFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml %s: %w", path, err)
		}
		return doc, nil
	default:
		dec := json.NewDecoder(strings.NewReader(string(data)))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse json %s: %w", path, err)
		}
		return doc, nil
	}
}

func parseDraft(name string) (jsonschema.Draft, bool) {
	switch name {
	case "4", "draft4":
		return jsonschema.Draft4, true
	case "6", "draft6":
		return jsonschema.Draft6, true
	case "7", "draft7":
		return jsonschema.Draft7, true
	case "2019", "2019-09":
		return jsonschema.Draft2019, true
	case "2020", "2020-12":
		return jsonschema.Draft2020, true
	default:
		return 0, false
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
