package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"streetplan/internal/api/handlers"
	"streetplan/internal/core"
	"streetplan/internal/types"
)

//go:embed default_project.yaml
var defaultProjectYAML []byte

func seedCmd(a *app) *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a project from a YAML definition (built-in example by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := defaultProjectYAML
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading seed file: %w", err)
				}
				data = raw
			}

			project, err := parseSeed(data, core.NewValidator(a.logger))
			if err != nil {
				return err
			}
			if dryRun {
				return printSeedSummary(cmd.OutOrStdout(), project)
			}

			ctx := cmd.Context()
			b, err := a.open(ctx, a.logger)
			if err != nil {
				return err
			}
			defer b.close()

			if err := b.projects.Create(ctx, project); err != nil {
				return fmt.Errorf("creating project: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded project %s\n", project.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML project definition")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and print the project without storing it")
	return cmd
}

// parseSeed turns a YAML project definition into a validated project. The
// document uses the same keys as the create-project request body; layoutJson
// and geometryJson may be written as YAML mappings.
func parseSeed(data []byte, v *core.Validator) (*types.Project, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing seed YAML: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("seed file is empty")
	}

	if err := stringifyJSONField(doc, "layoutJson"); err != nil {
		return nil, err
	}
	if zones, ok := doc["zones"].([]any); ok {
		for i, z := range zones {
			zone, ok := z.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("zones[%d] must be a mapping", i)
			}
			if err := stringifyJSONField(zone, "geometryJson"); err != nil {
				return nil, fmt.Errorf("zones[%d]: %w", i, err)
			}
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding seed document: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var req handlers.CreateProjectRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decoding seed document: %w", err)
	}

	if err := v.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("invalid seed project: %w", err)
	}
	project := req.ToProject()
	if err := types.ValidateCostConfigs(project.CostConfigs); err != nil {
		return nil, fmt.Errorf("invalid seed project: %w", err)
	}
	return project, nil
}

// stringifyJSONField re-encodes a non-string value under key as JSON text.
func stringifyJSONField(m map[string]any, key string) error {
	val, ok := m[key]
	if !ok || val == nil {
		return nil
	}
	if _, isString := val.(string); isString {
		return nil
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	m[key] = string(raw)
	return nil
}

func printSeedSummary(w io.Writer, p *types.Project) error {
	_, err := fmt.Fprintf(w,
		"Project %q (%s)\n  baseline: pressure %.0f, %d spots\n  intersections: %d, zones: %d, cost configs: %d\n",
		p.Name, p.AreaName, p.BaselineParkingPressure, p.BaselineParkingSpots,
		len(p.Intersections), len(p.Zones), len(p.CostConfigs),
	)
	return err
}
